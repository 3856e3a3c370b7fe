// Package pathfilter decides which files and folders make it into a snapshot.
package pathfilter

import (
	"path/filepath"
	"strings"

	"github.com/taigrr/codecat/internal/types"
)

// Kind identifies what a decision was made for.
type Kind int

const (
	// File is a regular file decision.
	File Kind = iota
	// Folder is a directory decision.
	Folder
)

func (k Kind) String() string {
	if k == Folder {
		return "folder"
	}
	return "file"
}

// Observer is called after every decision the filter makes.
type Observer func(kind Kind, name string, allowed bool)

// PathFilter applies a FilterConfig to file and folder names.
type PathFilter struct {
	config   types.FilterConfig
	observer Observer
}

// New creates a new PathFilter with the given configuration. A nil config
// allows every folder and no file.
func New(config *types.FilterConfig) *PathFilter {
	pf := &PathFilter{}
	if config != nil {
		pf.config = *config
	}
	return pf
}

// WithObserver returns a copy of the filter that reports each decision to o.
func (pf *PathFilter) WithObserver(o Observer) *PathFilter {
	return &PathFilter{config: pf.config, observer: o}
}

// Config returns the rule sets the filter was built with.
func (pf *PathFilter) Config() types.FilterConfig {
	return pf.config
}

// IsFileAllowed checks a file name against the rules, deriving its extension.
func (pf *PathFilter) IsFileAllowed(name string) bool {
	allowed := IsFileAllowed(name, Ext(name), pf.config)
	pf.notify(File, name, allowed)
	return allowed
}

// IsFolderAllowed checks a folder name against the rules.
func (pf *PathFilter) IsFolderAllowed(name string) bool {
	allowed := IsFolderAllowed(name, pf.config)
	pf.notify(Folder, name, allowed)
	return allowed
}

// Allows checks an entry against the folder or file rules. File entries are
// matched on their recorded Ext.
func (pf *PathFilter) Allows(e types.Entry) bool {
	if e.IsDir {
		return pf.IsFolderAllowed(e.Name)
	}
	allowed := IsFileAllowed(e.Name, e.Ext, pf.config)
	pf.notify(File, e.Name, allowed)
	return allowed
}

// FilterNames filters a slice of file names to only include allowed ones,
// keeping their order.
func (pf *PathFilter) FilterNames(names []string) []string {
	var allowed []string
	for _, name := range names {
		if pf.IsFileAllowed(name) {
			allowed = append(allowed, name)
		}
	}
	return allowed
}

func (pf *PathFilter) notify(kind Kind, name string, allowed bool) {
	if pf.observer != nil {
		pf.observer(kind, name, allowed)
	}
}

// IsFileAllowed reports whether a file is included. Ignore rules win over
// allow rules; a file matching no allow rule is excluded.
func IsFileAllowed(name, ext string, cfg types.FilterConfig) bool {
	if cfg.IgnoredNames.Has(name) || cfg.IgnoredExtensions.Has(ext) {
		return false
	}
	return cfg.AllowedNames.Has(name) || cfg.AllowedExtensions.Has(ext)
}

// IsFolderAllowed reports whether a folder is descended into. Unlike files,
// an empty AllowedNames set admits every folder that is not ignored.
func IsFolderAllowed(name string, cfg types.FilterConfig) bool {
	if cfg.IgnoredNames.Has(name) {
		return false
	}
	return cfg.AllowedNames.Has(name) || cfg.AllowedNames.Len() == 0
}

// Ext returns the extension of a file name including its leading dot.
// Leading dots do not start an extension, so ".bashrc" has none.
func Ext(name string) string {
	base := strings.TrimLeft(name, ".")
	if base == "" {
		return ""
	}
	return filepath.Ext(base)
}
