// Package types defines the data structures shared across codecat.
package types

import "sort"

type (
	// Set is a string set with constant-time membership.
	Set map[string]struct{}

	// FilterConfig holds the four rule sets consulted by the filter policy.
	// It must not be mutated while a walk is in progress.
	FilterConfig struct {
		AllowedNames      Set
		AllowedExtensions Set
		IgnoredNames      Set
		IgnoredExtensions Set
	}

	// FilterConfigFile is the list form of a FilterConfig as it appears in
	// config files and tool requests.
	FilterConfigFile struct {
		AllowedNames      []string `json:"allowed_names,omitempty" yaml:"allowed_names" toml:"allowed_names"`
		AllowedExtensions []string `json:"allowed_extensions,omitempty" yaml:"allowed_extensions" toml:"allowed_extensions"`
		IgnoredNames      []string `json:"ignored_names,omitempty" yaml:"ignored_names" toml:"ignored_names"`
		IgnoredExtensions []string `json:"ignored_extensions,omitempty" yaml:"ignored_extensions" toml:"ignored_extensions"`
	}
)

// NewSet builds a set from items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Has reports whether item is in the set. A nil set contains nothing.
func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Len returns the number of items in the set.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the items in lexical order.
func (s Set) Sorted() []string {
	items := make([]string, 0, len(s))
	for item := range s {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

// Sets converts the list form into membership sets.
func (f FilterConfigFile) Sets() FilterConfig {
	return FilterConfig{
		AllowedNames:      NewSet(f.AllowedNames...),
		AllowedExtensions: NewSet(f.AllowedExtensions...),
		IgnoredNames:      NewSet(f.IgnoredNames...),
		IgnoredExtensions: NewSet(f.IgnoredExtensions...),
	}
}

// File converts the sets back into their sorted list form.
func (c FilterConfig) File() FilterConfigFile {
	return FilterConfigFile{
		AllowedNames:      c.AllowedNames.Sorted(),
		AllowedExtensions: c.AllowedExtensions.Sorted(),
		IgnoredNames:      c.IgnoredNames.Sorted(),
		IgnoredExtensions: c.IgnoredExtensions.Sorted(),
	}
}
