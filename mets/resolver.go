// Package mets resolves METS manifest trees into page locators, a
// bibliographic metadata record, and a logical structure outline.
//
// Real-world manifests vary in namespace usage (prefixed, default, or none)
// and in which bibliographic schema they carry, so every query here matches
// elements and attributes by local name and every field is defined as an
// ordered fallback chain evaluated until one strategy yields a non-empty
// value.
package mets

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/tbruckner/metsalto"
)

// fulltextUse is the fileGrp use-class marking ALTO OCR resources.
const fulltextUse = "FULLTEXT"

// Ensure Resolver implements metsalto.ManifestReader at compile time.
var _ metsalto.ManifestReader = (*Resolver)(nil)

// Resolver reads page locators, metadata, and structure from a loaded
// manifest tree. The zero value is usable; options configure logging.
type Resolver struct {
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for ambiguity warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a new Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Locators returns the manifest's full-text page resources sorted by
// numeric ID suffix. Entries without a resolvable address are skipped;
// absence is expected for incomplete manifests.
func (r *Resolver) Locators(doc *etree.Document) ([]metsalto.PageLocator, error) {
	if doc == nil || doc.Root() == nil {
		return nil, metsalto.Errorf(metsalto.EINVALID, "manifest document required")
	}

	var locs []metsalto.PageLocator
	for _, grp := range findAll(doc.Root(), "fileGrp") {
		if !strings.EqualFold(attr(grp, "USE"), fulltextUse) {
			continue
		}
		for _, file := range findAll(grp, "file") {
			flocat := findFirst(file, "FLocat")
			if flocat == nil {
				continue
			}
			// xlink:href in well-formed manifests, bare href otherwise.
			href := strings.TrimSpace(attr(flocat, "href"))
			if href == "" {
				continue
			}
			locs = append(locs, metsalto.PageLocator{
				ID:      attr(file, "ID"),
				Address: href,
			})
		}
	}

	metsalto.SortLocators(locs)
	return locs, nil
}

// Metadata extracts the bibliographic record. Each field tries the MODS
// section first and the simple-metadata (DC) section as fallback; a nil or
// rootless document degrades to an all-empty record.
func (r *Resolver) Metadata(doc *etree.Document) metsalto.Metadata {
	if doc == nil || doc.Root() == nil {
		return metsalto.Metadata{}
	}

	mods := findFirst(doc.Root(), "mods")
	dc := findFirst(doc.Root(), "dc")

	return metsalto.Metadata{
		Title: first(
			func() string { return textAt(mods, "titleInfo", "title") },
			func() string { return textAt(dc, "title") },
		),
		Author: first(
			func() string { return textAt(mods, "name", "displayForm") },
			func() string { return textAt(mods, "name", "namePart") },
			func() string { return textAt(dc, "creator") },
		),
		Year: first(
			func() string { return textAt(mods, "originInfo", "dateIssued") },
			func() string { return textAt(dc, "date") },
		),
		VDNumber: r.vdNumber(mods, dc),
	}
}

// vdNumber probes the typed-identifier variants in canonical order. The
// first matching variant wins; additional matches are logged as ambiguous,
// not treated as errors.
func (r *Resolver) vdNumber(mods, dc *etree.Element) string {
	var found []string

	if mods != nil {
		for _, variant := range metsalto.VDVariants {
			for _, id := range findAll(mods, "identifier") {
				if !strings.EqualFold(attr(id, "type"), variant) {
					continue
				}
				if value := strings.TrimSpace(id.Text()); value != "" {
					found = append(found, variant+" "+value)
				}
			}
		}
	}

	if len(found) == 0 && dc != nil {
		for _, variant := range metsalto.VDVariants {
			for _, id := range findAll(dc, "identifier") {
				value := strings.TrimSpace(id.Text())
				if value != "" && strings.HasPrefix(strings.ToUpper(value), variant) {
					found = append(found, value)
				}
			}
		}
	}

	if len(found) == 0 {
		return ""
	}
	if len(found) > 1 {
		r.logger.Warn("ambiguous VD identifiers in manifest",
			"chosen", found[0],
			"ignored", found[1:],
		)
	}
	return found[0]
}

// Structure extracts the logical outline. The LOGICAL structMap is
// preferred; manifests that omit the TYPE attribute fall back to the first
// structMap present.
func (r *Resolver) Structure(doc *etree.Document) []metsalto.StructureNode {
	if doc == nil || doc.Root() == nil {
		return nil
	}

	maps := findAll(doc.Root(), "structMap")
	if len(maps) == 0 {
		return nil
	}
	outline := maps[0]
	for _, m := range maps {
		if strings.EqualFold(attr(m, "TYPE"), "LOGICAL") {
			outline = m
			break
		}
	}

	var nodes []metsalto.StructureNode
	for _, div := range findAll(outline, "div") {
		node := metsalto.StructureNode{
			Type:  strings.TrimSpace(attr(div, "TYPE")),
			Label: strings.TrimSpace(attr(div, "LABEL")),
		}
		if node.Type == "" && node.Label == "" {
			continue
		}
		if s := attr(div, "ORDER"); s != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				node.Order = &n
			}
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// first evaluates query strategies in order and returns the first
// non-empty, whitespace-trimmed result.
func first(queries ...func() string) string {
	for _, q := range queries {
		if v := strings.TrimSpace(q()); v != "" {
			return v
		}
	}
	return ""
}

// findAll collects every descendant of e whose local name matches tag, in
// document order. Matching ignores namespace prefixes.
func findAll(e *etree.Element, tag string) []*etree.Element {
	if e == nil {
		return nil
	}
	var out []*etree.Element
	for _, child := range e.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
		out = append(out, findAll(child, tag)...)
	}
	return out
}

// findFirst returns the first descendant of e with the given local name,
// or nil.
func findFirst(e *etree.Element, tag string) *etree.Element {
	if e == nil {
		return nil
	}
	for _, child := range e.ChildElements() {
		if child.Tag == tag {
			return child
		}
		if found := findFirst(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// attr returns the value of the first attribute of e whose local key
// matches key, ignoring namespace prefixes.
func attr(e *etree.Element, key string) string {
	if e == nil {
		return ""
	}
	for _, a := range e.Attr {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// textAt walks the given local-name path from e and returns the trimmed
// text of the first element found along it.
func textAt(e *etree.Element, path ...string) string {
	cur := e
	for _, tag := range path {
		cur = findFirst(cur, tag)
		if cur == nil {
			return ""
		}
	}
	return strings.TrimSpace(cur.Text())
}
