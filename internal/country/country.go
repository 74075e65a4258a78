// Package country validates ISO 3166-1 alpha-2 country codes.
package country

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Valid reports whether code names a country (not a continent or other
// grouping) in ISO 3166-1 alpha-2 form. Case is ignored.
func Valid(code string) bool {
	if len(code) != 2 {
		return false
	}
	r, err := language.ParseRegion(code)
	if err != nil {
		return false
	}
	return r.IsCountry() && strings.EqualFold(r.String(), code)
}

// Name returns the English name of the country, or "" for an invalid code.
func Name(code string) string {
	if !Valid(code) {
		return ""
	}
	r := language.MustParseRegion(code)
	return display.English.Regions().Name(r)
}
