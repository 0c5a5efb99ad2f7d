package metsalto

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Replacement maps one historical or typographic glyph to its modern
// equivalent. From must be a single Unicode code point so replacements stay
// independent of table order and of each other.
type Replacement struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// DefaultReplacements is the built-in substitution table for common
// historical letterforms: long s, round r, ligatures, and accented
// digraphs.
var DefaultReplacements = []Replacement{
	{From: "ſ", To: "s"},
	{From: "ꝛ", To: "r"},
	{From: "æ", To: "ae"},
	{From: "Æ", To: "Ae"},
	{From: "œ", To: "oe"},
	{From: "Œ", To: "Oe"},
	{From: "ﬀ", To: "ff"},
	{From: "ﬁ", To: "fi"},
	{From: "ﬂ", To: "fl"},
	{From: "ﬃ", To: "ffi"},
	{From: "ﬄ", To: "ffl"},
	{From: "ꞵ", To: "ß"},
}

// spaceBeforePunct matches whitespace runs immediately preceding sentence
// or clause punctuation.
var spaceBeforePunct = regexp.MustCompile(`\s+([.,;:!?])`)

// Replacer normalizes historical orthography. It is immutable after
// construction and safe for concurrent use; Normalize is pure.
type Replacer struct {
	replacer *strings.Replacer
}

// NewReplacer builds a Replacer from an ordered substitution table.
// It returns EINVALID if any source glyph is not a single code point.
func NewReplacer(table []Replacement) (*Replacer, error) {
	pairs := make([]string, 0, len(table)*2)
	for _, r := range table {
		if utf8.RuneCountInString(r.From) != 1 {
			return nil, Errorf(EINVALID, "replacement source %q must be a single code point", r.From)
		}
		pairs = append(pairs, r.From, r.To)
	}
	return &Replacer{replacer: strings.NewReplacer(pairs...)}, nil
}

// DefaultReplacer returns a Replacer over DefaultReplacements.
func DefaultReplacer() *Replacer {
	r, err := NewReplacer(DefaultReplacements)
	if err != nil {
		// The built-in table is validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return r
}

// Normalize applies the substitution table, removes whitespace before
// punctuation, and trims the result.
func (r *Replacer) Normalize(s string) string {
	s = r.replacer.Replace(s)
	s = spaceBeforePunct.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// ParseReplacements parses a YAML substitution table: a list of
// {from, to} pairs evaluated in file order. Used to override the built-in
// table for project-specific normalization needs.
func ParseReplacements(data []byte) ([]Replacement, error) {
	var table []Replacement
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, Errorf(EINVALID, "parsing replacement table: %v", err)
	}
	if len(table) == 0 {
		return nil, Errorf(EINVALID, "replacement table is empty")
	}
	return table, nil
}
