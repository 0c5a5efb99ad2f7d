package metsalto

import (
	"sort"
	"strconv"
	"strings"
)

// PageLocator identifies one full-text page resource referenced by a
// manifest. ID is the manifest-internal file identifier, used only for
// ordering; Address is a local path or URL to the ALTO resource.
type PageLocator struct {
	ID      string
	Address string
}

// SortLocators orders locators in place by the numeric suffix of their ID
// (the digits after the last underscore, e.g. FILE_0010 sorts as 10).
// Locators without a numeric suffix sort lexicographically by raw ID after
// all numeric ones. The sort is stable and total.
func SortLocators(locs []PageLocator) {
	sort.SliceStable(locs, func(i, j int) bool {
		ni, iNum := numericSuffix(locs[i].ID)
		nj, jNum := numericSuffix(locs[j].ID)
		switch {
		case iNum && jNum:
			return ni < nj
		case iNum != jNum:
			return iNum
		default:
			return locs[i].ID < locs[j].ID
		}
	})
}

// numericSuffix parses the portion of id after the last underscore as an
// integer. When id contains no underscore the whole id is tried.
func numericSuffix(id string) (int, bool) {
	suffix := id
	if i := strings.LastIndex(id, "_"); i >= 0 {
		suffix = id[i+1:]
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return n, true
}
