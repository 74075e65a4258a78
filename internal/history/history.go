// Package history encodes the recently viewed items kept in the
// viewed_products cookie.
package history

import (
	"strconv"
	"strings"
)

const CookieName = "viewed_products"

// Parse decodes a cookie value into item ids, most recent first. Anything
// that does not parse yields an empty list.
func Parse(value string, limit int) []int64 {
	fields := strings.Fields(value)
	ids := make([]int64, 0, len(fields))
	seen := make(map[int64]bool, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil || id <= 0 {
			return nil
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

// Push moves id to the front of ids, dropping any earlier occurrence and
// everything past limit.
func Push(ids []int64, id int64, limit int) []int64 {
	out := make([]int64, 0, len(ids)+1)
	out = append(out, id)
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Encode is the inverse of Parse.
func Encode(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, " ")
}
