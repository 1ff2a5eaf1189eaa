package provider

import (
	"fmt"
	"strings"
)

// MakeID derives a URL/HTML-safe slug from a provider display name:
// lowercase, with spaces, underscores and dots replaced by dashes.
func MakeID(name string) string {
	id := strings.ToLower(name)
	id = strings.NewReplacer(" ", "-", "_", "-", ".", "-").Replace(id)
	return id
}

// UniqueID returns an ID derived from name that does not collide with any
// entry in taken, suffixing a numeric disambiguator when needed. The chosen
// ID is recorded in taken.
func UniqueID(name string, taken map[string]bool) string {
	id := MakeID(name)
	if !taken[id] {
		taken[id] = true
		return id
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", id, n)
		if !taken[candidate] {
			taken[candidate] = true
			return candidate
		}
	}
}
