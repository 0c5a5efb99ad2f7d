// Package fs assembles extracted volumes into output files: one combined
// file or one file per page, as plain text, Markdown, or JSON.
package fs

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/tbruckner/metsalto"
)

// markupSeparator joins pages in combined Markdown output: a blank line, a
// horizontal rule, a blank line.
const markupSeparator = "\n\n---\n\n"

// Ensure Writer implements metsalto.VolumeWriter at compile time.
var _ metsalto.VolumeWriter = (*Writer)(nil)

// Writer writes volumes below a destination directory. Every write is a
// single complete overwrite of its target path.
type Writer struct {
	dir string
}

// NewWriter creates a Writer targeting the given destination directory.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Validate reports whether the writer has a usable destination. An empty
// destination is a configuration failure, not a write failure.
func (w *Writer) Validate() error {
	if w.dir == "" {
		return metsalto.Errorf(metsalto.EINVALID, "destination directory required")
	}
	return nil
}

// PageRecord is the structured (JSON) form of a single page, carrying a
// flattened copy of the volume metadata.
type PageRecord struct {
	Page     string `json:"page"`
	Order    int    `json:"order"`
	Text     string `json:"text"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Year     string `json:"year"`
	VDNumber string `json:"vd_number"`
	Source   string `json:"source,omitempty"`
}

// SummaryMetadata is the metadata block of a structure summary.
type SummaryMetadata struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Year     string `json:"year"`
	VDNumber string `json:"vd_number"`
	Source   string `json:"source,omitempty"`
	NumPages int    `json:"num_pages"`
}

// SummaryRecord describes the volume as a whole: metadata plus the logical
// outline. It is emitted only when the volume has metadata or structure.
type SummaryRecord struct {
	Metadata SummaryMetadata          `json:"metadata"`
	Divs     []metsalto.StructureNode `json:"divs"`
}

// NewPageRecord builds the structured record for the page at 0-based index
// i of the volume.
func NewPageRecord(v *metsalto.Volume, i int) PageRecord {
	return PageRecord{
		Page:     v.Pages[i].Key,
		Order:    i + 1,
		Text:     v.Pages[i].Text,
		Title:    v.Metadata.Title,
		Author:   v.Metadata.Author,
		Year:     v.Metadata.Year,
		VDNumber: v.Metadata.VDNumber,
		Source:   v.Source,
	}
}

// NewSummaryRecord builds the structure summary for a volume.
func NewSummaryRecord(v *metsalto.Volume) SummaryRecord {
	divs := v.Structure
	if divs == nil {
		divs = []metsalto.StructureNode{}
	}
	return SummaryRecord{
		Metadata: SummaryMetadata{
			Title:    v.Metadata.Title,
			Author:   v.Metadata.Author,
			Year:     v.Metadata.Year,
			VDNumber: v.Metadata.VDNumber,
			Source:   v.Source,
			NumPages: len(v.Pages),
		},
		Divs: divs,
	}
}

// hasSummary reports whether the volume carries anything worth a structure
// summary record.
func hasSummary(v *metsalto.Volume) bool {
	return !v.Metadata.IsEmpty() || len(v.Structure) > 0
}

// WriteCombined writes all pages into <base>_volltext.<ext>, returning the
// written path.
func (w *Writer) WriteCombined(v *metsalto.Volume, format metsalto.Format) (string, error) {
	if !format.Valid() {
		return "", metsalto.Errorf(metsalto.EINVALID, "unsupported output format %q", format)
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", metsalto.Errorf(metsalto.EINTERNAL, "creating output directory: %v", err)
	}

	var content []byte
	switch format {
	case metsalto.FormatJSON:
		records := make([]interface{}, 0, len(v.Pages)+1)
		if hasSummary(v) {
			records = append(records, NewSummaryRecord(v))
		}
		for i := range v.Pages {
			records = append(records, NewPageRecord(v, i))
		}
		data, err := marshalJSON(records)
		if err != nil {
			return "", err
		}
		content = data
	default:
		sep := "\n\n"
		if format == metsalto.FormatMarkdown {
			sep = markupSeparator
		}
		texts := make([]string, len(v.Pages))
		for i, p := range v.Pages {
			texts[i] = p.Text
		}
		content = []byte(strings.Join(texts, sep))
	}

	path := filepath.Join(w.dir, baseName(v)+"_volltext."+format.Ext())
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", metsalto.Errorf(metsalto.EINTERNAL, "writing %s: %v", path, err)
	}
	return path, nil
}

// WritePages writes a <base>_pages/ directory: one file per page and, for
// the JSON format, a content.json structure summary when the volume has
// metadata or structure. Returns the directory path.
func (w *Writer) WritePages(v *metsalto.Volume, format metsalto.Format) (string, error) {
	if !format.Valid() {
		return "", metsalto.Errorf(metsalto.EINVALID, "unsupported output format %q", format)
	}

	dir := filepath.Join(w.dir, baseName(v)+"_pages")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", metsalto.Errorf(metsalto.EINTERNAL, "creating output directory: %v", err)
	}

	if format == metsalto.FormatJSON && hasSummary(v) {
		data, err := marshalJSON(NewSummaryRecord(v))
		if err != nil {
			return "", err
		}
		path := filepath.Join(dir, "content.json")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return "", metsalto.Errorf(metsalto.EINTERNAL, "writing %s: %v", path, err)
		}
	}

	for i, page := range v.Pages {
		var content []byte
		if format == metsalto.FormatJSON {
			data, err := marshalJSON(NewPageRecord(v, i))
			if err != nil {
				return "", err
			}
			content = data
		} else {
			content = []byte(page.Text)
		}

		path := filepath.Join(dir, page.Key+"."+format.Ext())
		if err := os.WriteFile(path, content, 0644); err != nil {
			return "", metsalto.Errorf(metsalto.EINTERNAL, "writing %s: %v", path, err)
		}
	}

	return dir, nil
}

// baseName returns the manifest basename without its extension, used as
// the output file prefix.
func baseName(v *metsalto.Volume) string {
	if v.Source == "" {
		return "output"
	}
	return strings.TrimSuffix(v.Source, filepath.Ext(v.Source))
}

// marshalJSON encodes with two-space indentation and without HTML
// escaping, so historical glyphs survive verbatim.
func marshalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, metsalto.Errorf(metsalto.EINTERNAL, "encoding JSON: %v", err)
	}
	return buf.Bytes(), nil
}
