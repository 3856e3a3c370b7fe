package types

type (
	// SearchParams contains parameters for searching collected file contents.
	SearchParams struct {
		Query         string `json:"query"`
		UseRegex      bool   `json:"useRegex,omitempty"`
		CaseSensitive bool   `json:"caseSensitive,omitempty"`
		ContextLines  int    `json:"contextLines,omitempty"`
		Limit         int    `json:"limit,omitempty"`
		Offset        int    `json:"offset,omitempty"`
	}

	// SearchMatch is one matching line and the lines around it.
	SearchMatch struct {
		Line    int    `json:"line"`
		Context string `json:"context"`
	}

	// SearchResult holds every match within a single file.
	SearchResult struct {
		Path    string        `json:"path"`
		Matches []SearchMatch `json:"matches"`
	}
)
