package metsalto

import "fmt"

// Format selects the textual shape of the output.
type Format string

// Supported output formats.
const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string { return string(f) }

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	return f == FormatText || f == FormatMarkdown || f == FormatJSON
}

// Mode selects the output granularity.
type Mode string

// Supported output modes.
const (
	ModeCombined Mode = "full"
	ModePerPage  Mode = "page"
)

// Valid reports whether m is one of the supported modes.
func (m Mode) Valid() bool {
	return m == ModeCombined || m == ModePerPage
}

// PageText is the extracted text of one page. Key is a synthesized
// zero-padded sequence label (page_0001, page_0002, ...) assigned by
// position in the resolved locator sequence, not by the locator's own ID.
// Text is empty when the page failed to extract.
type PageText struct {
	Key  string
	Text string
}

// PageKey returns the sequence label for a 1-based page position.
func PageKey(n int) string {
	return fmt.Sprintf("page_%04d", n)
}

// Volume is the fully assembled extraction result for one manifest:
// ordered page texts plus whatever metadata and logical structure the
// manifest yielded. Source is the manifest address reduced to its final
// path segment, or empty when no manifest path is known.
type Volume struct {
	Source    string
	Metadata  Metadata
	Structure []StructureNode
	Pages     []PageText
}
