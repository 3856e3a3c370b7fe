package types

// ExportResult summarizes a write of collected files to an artifact.
type ExportResult struct {
	Output  string         `json:"output,omitempty"`
	Written int            `json:"written"`
	Bytes   int64          `json:"bytes"`
	Skipped []SkippedEntry `json:"skipped,omitempty"`
}
