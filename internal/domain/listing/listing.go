// Package listing implements the search and filter rules of the list screens.
package listing

import "strings"

// All is the filter value that matches every row.
const All = "all"

// Search keeps the items for which any field contains query, ignoring case.
// An empty query keeps everything.
func Search[T any](items []T, query string, fields func(T) []string) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		for _, f := range fields(it) {
			if strings.Contains(strings.ToLower(f), q) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// Filter keeps the items whose field equals want. "" and All keep everything.
func Filter[T any](items []T, want string, field func(T) string) []T {
	if want == "" || want == All {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if field(it) == want {
			out = append(out, it)
		}
	}
	return out
}

// Query is the search box plus the single category filter every list screen has.
type Query struct {
	Search string `json:"search"`
	Filter string `json:"filter"`
}

// Apply runs search then filter.
func Apply[T any](items []T, q Query, fields func(T) []string, category func(T) string) []T {
	return Filter(Search(items, q.Search, fields), q.Filter, category)
}
