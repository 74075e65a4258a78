// Package forms holds the field error type shared by every form the
// storefront validates.
package forms

import (
	"sort"
	"strings"
)

// Errors maps form field names to messages.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Required is the message for an empty mandatory field.
const Required = "This field is required."
