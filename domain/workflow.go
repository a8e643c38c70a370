package domain

// WorkflowProblem is a single validation failure in a workflow file
type WorkflowProblem struct {
	Line    int    `json:"line" yaml:"line"`
	Path    string `json:"path" yaml:"path"`
	Message string `json:"message" yaml:"message"`
}

// WorkflowValidation is the validation result for one workflow file
type WorkflowValidation struct {
	File     string            `json:"file" yaml:"file"`
	Valid    bool              `json:"valid" yaml:"valid"`
	Jobs     int               `json:"jobs" yaml:"jobs"`
	Problems []WorkflowProblem `json:"problems,omitempty" yaml:"problems,omitempty"`
}
