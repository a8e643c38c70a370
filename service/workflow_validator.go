package service

import (
	"fmt"
	"sort"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// WorkflowValidator checks GitHub Actions workflow files for the keys the
// runner needs
type WorkflowValidator struct {
	fs afero.Fs
}

// NewWorkflowValidator creates a validator reading from fsys
func NewWorkflowValidator(fsys afero.Fs) *WorkflowValidator {
	return &WorkflowValidator{fs: fsys}
}

// ValidateFile reads and validates one workflow. Read errors are returned;
// YAML and structural problems are reported in the result.
func (w *WorkflowValidator) ValidateFile(path string) (domain.WorkflowValidation, error) {
	content, err := afero.ReadFile(w.fs, path)
	if err != nil {
		return domain.WorkflowValidation{}, domain.NewFileNotFoundError(path, err)
	}
	result := ValidateWorkflow(content)
	result.File = path
	return result, nil
}

// ValidateWorkflow validates workflow YAML and collects every problem
func ValidateWorkflow(content []byte) domain.WorkflowValidation {
	result := domain.WorkflowValidation{Problems: []domain.WorkflowProblem{}}

	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		result.Problems = append(result.Problems, domain.WorkflowProblem{
			Line:    yamlErrorLine(err),
			Message: fmt.Sprintf("invalid YAML: %v", err),
		})
		return result
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		result.Problems = append(result.Problems, domain.WorkflowProblem{Line: 1, Message: "empty workflow"})
		return result
	}

	root := doc.Content[0]
	v := &workflowCheck{}
	if root.Kind != yaml.MappingNode {
		v.add(root.Line, "", "workflow must be a mapping")
	} else {
		result.Jobs = v.checkRoot(root)
	}

	sort.SliceStable(v.problems, func(i, j int) bool {
		return v.problems[i].Line < v.problems[j].Line
	})
	result.Problems = append(result.Problems, v.problems...)
	result.Valid = len(result.Problems) == 0
	return result
}

type workflowCheck struct {
	problems []domain.WorkflowProblem
}

func (v *workflowCheck) add(line int, path, msg string) {
	v.problems = append(v.problems, domain.WorkflowProblem{Line: line, Path: path, Message: msg})
}

func (v *workflowCheck) checkRoot(root *yaml.Node) int {
	for _, key := range []string{"name", "on", "jobs"} {
		if mappingValue(root, key) == nil {
			v.add(root.Line, key, fmt.Sprintf("missing required key '%s'", key))
		}
	}

	jobs := mappingValue(root, "jobs")
	if jobs == nil {
		return 0
	}
	if jobs.Kind != yaml.MappingNode || len(jobs.Content) == 0 {
		v.add(jobs.Line, "jobs", "jobs must be a non-empty mapping")
		return 0
	}

	count := 0
	for i := 0; i+1 < len(jobs.Content); i += 2 {
		count++
		v.checkJob(jobs.Content[i].Value, jobs.Content[i+1])
	}
	return count
}

func (v *workflowCheck) checkJob(id string, job *yaml.Node) {
	path := "jobs." + id
	if job.Kind != yaml.MappingNode {
		v.add(job.Line, path, "job must be a mapping")
		return
	}

	// reusable workflow calls carry neither runs-on nor steps
	if mappingValue(job, "uses") != nil {
		return
	}
	if mappingValue(job, "runs-on") == nil {
		v.add(job.Line, path, "job requires 'runs-on' or 'uses'")
	}

	steps := mappingValue(job, "steps")
	if steps == nil {
		v.add(job.Line, path, "job requires 'steps'")
		return
	}
	if steps.Kind != yaml.SequenceNode || len(steps.Content) == 0 {
		v.add(steps.Line, path+".steps", "steps must be a non-empty list")
		return
	}

	for i, step := range steps.Content {
		stepPath := fmt.Sprintf("%s.steps[%d]", path, i)
		if step.Kind != yaml.MappingNode {
			v.add(step.Line, stepPath, "step must be a mapping")
			continue
		}
		if mappingValue(step, "run") == nil && mappingValue(step, "uses") == nil {
			v.add(step.Line, stepPath, "step requires 'run' or 'uses'")
		}
	}
}

// mappingValue returns the value node for key in a mapping node
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func yamlErrorLine(err error) int {
	var line int
	if _, scanErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &line); scanErr == nil {
		return line
	}
	return 0
}
