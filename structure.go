package metsalto

// StructureNode is one logical division from the manifest's structMap.
// Order is carried through as data only; document order determines the
// position of a node in the outline. Nodes with neither a type nor a label
// are dropped during extraction.
type StructureNode struct {
	Order *int   `json:"order,omitempty"`
	Type  string `json:"type"`
	Label string `json:"label"`
}
