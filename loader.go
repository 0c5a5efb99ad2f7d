package metsalto

import (
	"context"

	"github.com/beevik/etree"
)

// Loader retrieves an XML document from a local path or a remote URL and
// parses it into a traversable tree. It is the sole I/O boundary for
// reading XML; repeated loads of the same address re-fetch or re-read.
//
// Load returns ENOTFOUND for a missing local file, EUNAVAILABLE for a
// transport failure (timeout, non-2xx status, connection error), and
// EINVALID for malformed XML. Retrying is caller policy.
type Loader interface {
	Load(ctx context.Context, source string) (*etree.Document, error)
}

// ManifestReader answers three independent read-only queries over a loaded
// METS manifest tree.
//
// Locators is fail-hard: without page locators there is nothing to extract.
// Metadata and Structure are fail-soft: a nil or empty manifest degrades to
// an empty result, never an error, because bibliographic sections are
// frequently absent or malformed in real archival data.
type ManifestReader interface {
	// Locators returns the manifest's full-text page resources, sorted per
	// the PageLocator ordering rule. Entries without a resolvable address
	// are skipped silently.
	Locators(doc *etree.Document) ([]PageLocator, error)

	// Metadata extracts the bibliographic record, trying the primary
	// schema first and the simple-metadata schema as fallback per field.
	Metadata(doc *etree.Document) Metadata

	// Structure extracts the logical outline in document order, keeping
	// only divisions with a non-empty type or label.
	Structure(doc *etree.Document) []StructureNode
}

// TextExtractor produces the plain text of one ALTO page resource.
// A resource with no line elements yields an empty string, not an error.
type TextExtractor interface {
	ExtractText(doc *etree.Document, normalize bool) string
}

// VolumeWriter assembles a volume into output files. Both write methods
// create destination directories as needed and overwrite existing files
// whole. They return the path of the written file or directory.
type VolumeWriter interface {
	// Validate reports configuration problems such as an empty
	// destination. Callers check it before doing any page I/O so a bad
	// destination fails the run up front.
	Validate() error

	// WriteCombined writes all pages into a single <base>_volltext.<ext>
	// file in the requested format.
	WriteCombined(v *Volume, format Format) (string, error)

	// WritePages writes a <base>_pages/ directory with one file per page,
	// plus a content.json structure summary for the JSON format when the
	// volume has metadata or structure.
	WritePages(v *Volume, format Format) (string, error)
}
