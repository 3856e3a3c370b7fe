package types

type (
	// Entry is a filesystem node seen during a walk. Entries are never
	// persisted.
	Entry struct {
		Name  string `json:"name"`
		Path  string `json:"path"`
		Ext   string `json:"ext,omitempty"`
		IsDir bool   `json:"isDir"`
	}

	// CollectedFiles is the ordered list of included file paths. Order is
	// pre-order traversal with siblings in filesystem listing order, which is
	// not guaranteed to be stable across platforms.
	CollectedFiles []string

	// SkippedEntry records a path that was dropped because of a recoverable
	// error.
	SkippedEntry struct {
		Path   string `json:"path"`
		Reason string `json:"reason"`
		Err    string `json:"error,omitempty"`
		IsDir  bool   `json:"isDir,omitempty"`
	}
)

// Skip reasons.
const (
	ReasonAccess   = "access"
	ReasonRead     = "read"
	ReasonNotText  = "not-text"
	ReasonNotFile  = "not-regular"
	ReasonTooLarge = "too-large"
	ReasonCycle    = "symlink-cycle"
	ReasonRevisit  = "already-visited"
	ReasonOutput   = "output-file"
)
