// Package metsalto extracts OCR full text, bibliographic metadata, and
// logical structure from digitized-book archives encoded as METS/ALTO XML,
// and re-serializes them as plain text, Markdown, or JSON for downstream
// retrieval and indexing pipelines.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency or concern (e.g., mets/, alto/, http/, fs/).
package metsalto
