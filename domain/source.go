package domain

// FixKind identifies a source rewriting pass
type FixKind string

const (
	FixUnicode FixKind = "unicode"
	FixNaming  FixKind = "naming"
	FixMagic   FixKind = "magic"
	FixSyntax  FixKind = "syntax"
)

// FixStatus is the per-file outcome of a rewriting pass
type FixStatus string

const (
	// FixStatusFixed means the file was rewritten
	FixStatusFixed FixStatus = "fixed"
	// FixStatusUnchanged means the pass had nothing to do
	FixStatusUnchanged FixStatus = "unchanged"
	// FixStatusUnfixed means a candidate rewrite did not parse and was discarded
	FixStatusUnfixed FixStatus = "unfixed"
	// FixStatusError means the file could not be read or written
	FixStatusError FixStatus = "error"
)

// FileChange describes what a pass did to one file
type FileChange struct {
	Path          string    `json:"path" yaml:"path"`
	Status        FixStatus `json:"status" yaml:"status"`
	Substitutions int       `json:"substitutions" yaml:"substitutions"`
	Heuristics    []string  `json:"heuristics,omitempty" yaml:"heuristics,omitempty"`
	Reason        string    `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Finding is a detected but not rewritten issue (detect-only passes)
type Finding struct {
	Path    string `json:"path" yaml:"path"`
	Line    int    `json:"line" yaml:"line"`
	Column  int    `json:"column" yaml:"column"`
	Rule    string `json:"rule" yaml:"rule"`
	Message string `json:"message" yaml:"message"`
}

// FixRequest configures a rewriting pass over a source tree
type FixRequest struct {
	Kind            FixKind
	Paths           []string
	DryRun          bool
	DetectOnly      bool
	IncludePatterns []string
	ExcludePatterns []string
}

// FixResponse summarizes a rewriting pass
type FixResponse struct {
	Kind          FixKind      `json:"kind" yaml:"kind"`
	DryRun        bool         `json:"dry_run" yaml:"dry_run"`
	FilesScanned  int          `json:"files_scanned" yaml:"files_scanned"`
	FilesChanged  int          `json:"files_changed" yaml:"files_changed"`
	FilesUnfixed  int          `json:"files_unfixed" yaml:"files_unfixed"`
	Substitutions int          `json:"substitutions" yaml:"substitutions"`
	Changes       []FileChange `json:"changes" yaml:"changes"`
	Findings      []Finding    `json:"findings,omitempty" yaml:"findings,omitempty"`
}
