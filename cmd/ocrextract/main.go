package main

import (
	"context"
	"fmt"
	"io"
	logslog "log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/tbruckner/metsalto"
	"github.com/tbruckner/metsalto/alto"
	"github.com/tbruckner/metsalto/extract"
	"github.com/tbruckner/metsalto/fs"
	metshttp "github.com/tbruckner/metsalto/http"
	"github.com/tbruckner/metsalto/mets"
	metslog "github.com/tbruckner/metsalto/slog"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct{}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Mets           string        `arg:"" required:"" help:"Path or URL of the METS manifest."`
	Format         string        `short:"f" default:"txt" enum:"txt,md,json" help:"Output format: txt, md, or json."`
	Pages          bool          `short:"p" help:"Write one file per page instead of one combined file."`
	KeepHistorical bool          `help:"Keep historical glyphs (skip normalization)."`
	Output         string        `short:"o" help:"Output directory (default: the manifest's directory)."`
	Timeout        time.Duration `short:"t" default:"20s" help:"Fetch timeout per resource."`
	Concurrency    int           `short:"c" default:"1" help:"Concurrent page fetch limit."`
	RateLimit      float64       `default:"0" help:"Requests per second per host (0 = unlimited)."`
	Charmap        string        `help:"YAML file overriding the character substitution table."`
	Verbose        bool          `short:"v" help:"Enable debug logging."`
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("ocrextract"),
		kong.Description("Extract OCR full text, metadata, and structure from METS/ALTO archives"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle no arguments
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no arguments provided")
	}

	// Handle help flags
	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	_, err = parser.Parse(args)
	if err != nil {
		return err
	}

	level := logslog.LevelInfo
	if cli.Verbose {
		level = logslog.LevelDebug
	}
	logger := logslog.New(logslog.NewTextHandler(stderr, &logslog.HandlerOptions{Level: level}))

	replacer := metsalto.DefaultReplacer()
	if cli.Charmap != "" {
		data, err := os.ReadFile(cli.Charmap)
		if err != nil {
			return fmt.Errorf("reading charmap %s: %w", cli.Charmap, err)
		}
		table, err := metsalto.ParseReplacements(data)
		if err != nil {
			return err
		}
		if replacer, err = metsalto.NewReplacer(table); err != nil {
			return err
		}
	}

	// The original tool's default: outputs land next to the manifest.
	outDir := cli.Output
	if outDir == "" {
		if metshttp.IsRemote(cli.Mets) {
			outDir = "."
		} else {
			outDir = filepath.Dir(cli.Mets)
		}
	}

	loader := metslog.NewLoggingLoader(
		metshttp.NewLoader(
			metshttp.WithTimeout(cli.Timeout),
			metshttp.WithRateLimit(cli.RateLimit),
		),
		logger,
	)

	pipeline := &extract.Pipeline{
		Loader:      loader,
		Manifest:    mets.NewResolver(mets.WithLogger(logger)),
		Extractor:   alto.NewExtractor(alto.WithReplacer(replacer)),
		Writer:      fs.NewWriter(outDir),
		Logger:      logger,
		Concurrency: cli.Concurrency,
	}

	mode := metsalto.ModeCombined
	if cli.Pages {
		mode = metsalto.ModePerPage
	}

	progress := func(p extract.PageProgress) {
		if p.Error != nil {
			fmt.Fprintf(stderr, "skip %s (%s): %s\n", p.Key, p.Address, metsalto.ErrorMessage(p.Error))
		}
		fmt.Fprintf(stdout, "\r[%d/%d] %s", p.Completed, p.Total, p.Key)
	}

	result, err := pipeline.Run(ctx, extract.Request{
		ManifestPath: cli.Mets,
		Format:       metsalto.Format(cli.Format),
		Mode:         mode,
		Normalize:    !cli.KeepHistorical,
	}, progress)
	if err != nil {
		return err
	}

	// Clear progress line
	fmt.Fprintf(stdout, "\r%40s\r", "")
	fmt.Fprintf(stdout, "Wrote %s (%d pages, %d failed)\n", result.Path, result.Pages, result.Failed)

	return nil
}
