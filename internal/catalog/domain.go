// Package catalog owns the item-type names that classify units.
package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ItemType is a named category of units, stored under its canonical name.
type ItemType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NameMaxLen bounds the canonical name length.
const NameMaxLen = 120

var upper = cases.Upper(language.Und)

// Normalize canonicalises a raw type name: trim, collapse internal
// whitespace, upper-case, spaces to underscores. Pure function.
func Normalize(raw string) string {
	return strings.Join(strings.Fields(upper.String(raw)), "_")
}
