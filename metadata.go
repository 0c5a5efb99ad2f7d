package metsalto

// Metadata holds the bibliographic fields extracted from a manifest.
// Every field may be empty; absence of metadata never aborts extraction.
type Metadata struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Year     string `json:"year"`
	VDNumber string `json:"vd_number"`
}

// IsEmpty reports whether no field was extracted.
func (m Metadata) IsEmpty() bool {
	return m.Title == "" && m.Author == "" && m.Year == "" && m.VDNumber == ""
}

// VDVariants lists the typed-identifier variants probed for VDNumber, in
// canonical priority order. The first matching variant wins and its label
// prefixes the extracted value (e.g. "VD17 23:301502E").
var VDVariants = []string{"VD16", "VD17", "VD18"}
