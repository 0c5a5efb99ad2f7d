// Package mock provides function-field mock implementations of the
// metsalto domain interfaces for use in tests.
package mock

import (
	"context"

	"github.com/beevik/etree"
	"github.com/tbruckner/metsalto"
)

var _ metsalto.Loader = (*Loader)(nil)

// Loader is a mock implementation of metsalto.Loader.
type Loader struct {
	LoadFn func(ctx context.Context, source string) (*etree.Document, error)
}

func (l *Loader) Load(ctx context.Context, source string) (*etree.Document, error) {
	return l.LoadFn(ctx, source)
}

var _ metsalto.ManifestReader = (*ManifestReader)(nil)

// ManifestReader is a mock implementation of metsalto.ManifestReader.
type ManifestReader struct {
	LocatorsFn  func(doc *etree.Document) ([]metsalto.PageLocator, error)
	MetadataFn  func(doc *etree.Document) metsalto.Metadata
	StructureFn func(doc *etree.Document) []metsalto.StructureNode
}

func (r *ManifestReader) Locators(doc *etree.Document) ([]metsalto.PageLocator, error) {
	return r.LocatorsFn(doc)
}

func (r *ManifestReader) Metadata(doc *etree.Document) metsalto.Metadata {
	return r.MetadataFn(doc)
}

func (r *ManifestReader) Structure(doc *etree.Document) []metsalto.StructureNode {
	return r.StructureFn(doc)
}

var _ metsalto.TextExtractor = (*TextExtractor)(nil)

// TextExtractor is a mock implementation of metsalto.TextExtractor.
type TextExtractor struct {
	ExtractTextFn func(doc *etree.Document, normalize bool) string
}

func (e *TextExtractor) ExtractText(doc *etree.Document, normalize bool) string {
	return e.ExtractTextFn(doc, normalize)
}

var _ metsalto.VolumeWriter = (*VolumeWriter)(nil)

// VolumeWriter is a mock implementation of metsalto.VolumeWriter.
type VolumeWriter struct {
	ValidateFn      func() error
	WriteCombinedFn func(v *metsalto.Volume, format metsalto.Format) (string, error)
	WritePagesFn    func(v *metsalto.Volume, format metsalto.Format) (string, error)
}

func (w *VolumeWriter) Validate() error {
	return w.ValidateFn()
}

func (w *VolumeWriter) WriteCombined(v *metsalto.Volume, format metsalto.Format) (string, error) {
	return w.WriteCombinedFn(v, format)
}

func (w *VolumeWriter) WritePages(v *metsalto.Volume, format metsalto.Format) (string, error) {
	return w.WritePagesFn(v, format)
}
