// Package alto extracts plain text from ALTO OCR page trees.
package alto

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/tbruckner/metsalto"
)

// Ensure Extractor implements metsalto.TextExtractor at compile time.
var _ metsalto.TextExtractor = (*Extractor)(nil)

// Extractor reads the text content of an ALTO page. It is stateless apart
// from its normalization table and safe for concurrent use across pages.
type Extractor struct {
	replacer *metsalto.Replacer
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithReplacer sets the normalization table. Defaults to
// metsalto.DefaultReplacer.
func WithReplacer(r *metsalto.Replacer) Option {
	return func(e *Extractor) {
		e.replacer = r
	}
}

// NewExtractor creates a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.replacer == nil {
		e.replacer = metsalto.DefaultReplacer()
	}
	return e
}

// ExtractText joins the CONTENT of every String element per TextLine with
// single spaces, and the lines with newlines. Elements are matched by local
// name, which covers the ALTO v2-v4 namespaces as well as unqualified
// documents. A page without line elements yields an empty string.
func (e *Extractor) ExtractText(doc *etree.Document, normalize bool) string {
	if doc == nil || doc.Root() == nil {
		return ""
	}

	var lines []string
	for _, line := range findAll(doc.Root(), "TextLine") {
		var words []string
		for _, word := range findAll(line, "String") {
			if content := attr(word, "CONTENT"); content != "" {
				words = append(words, content)
			}
		}
		text := strings.Join(words, " ")
		if normalize {
			text = e.replacer.Normalize(text)
		}
		lines = append(lines, text)
	}

	return strings.Join(lines, "\n")
}

// findAll collects every descendant of e whose local name matches tag, in
// document order, ignoring namespace prefixes.
func findAll(e *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range e.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
		out = append(out, findAll(child, tag)...)
	}
	return out
}

// attr returns the value of the first attribute of e with the given local
// key, ignoring namespace prefixes.
func attr(e *etree.Element, key string) string {
	for _, a := range e.Attr {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}
