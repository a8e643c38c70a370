package app

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/config"
	"github.com/ludo-technologies/qgate/internal/fixer"
	"github.com/ludo-technologies/qgate/internal/logging"
	"github.com/ludo-technologies/qgate/internal/parser"
	"github.com/ludo-technologies/qgate/service"
	"go.uber.org/zap"
)

// FixUseCase runs one source rewriting pass over a tree of Python files.
// A file is written only when the rewrite differs and still parses.
type FixUseCase struct {
	cfg        *config.Config
	fileHelper *FileHelper
	formatter  *service.OutputFormatterImpl
	progress   domain.ProgressManager
	logger     *zap.Logger
}

// NewFixUseCase creates a fix use case
func NewFixUseCase(cfg *config.Config, fileHelper *FileHelper, formatter *service.OutputFormatterImpl, progress domain.ProgressManager, logger *zap.Logger) *FixUseCase {
	if fileHelper == nil {
		fileHelper = NewFileHelper()
	}
	if progress == nil {
		progress = service.NewProgressManager(false)
	}
	return &FixUseCase{
		cfg:        cfg,
		fileHelper: fileHelper,
		formatter:  formatter,
		progress:   progress,
		logger:     logging.OrNop(logger),
	}
}

// rewrite is the per-file result of a pass before it is written
type rewrite struct {
	content       []byte
	substitutions int
	heuristics    []string
	findings      []domain.Finding
	// reason explains why a file needing changes was left alone
	reason string
}

// Execute runs req.Kind over the collected files
func (uc *FixUseCase) Execute(ctx context.Context, req domain.FixRequest, writer io.Writer, format domain.OutputFormat) (*domain.FixResponse, error) {
	if len(req.Paths) == 0 {
		return nil, domain.NewInvalidInputError("no input paths specified", nil)
	}
	switch req.Kind {
	case domain.FixUnicode, domain.FixNaming, domain.FixMagic, domain.FixSyntax:
	default:
		return nil, domain.NewInvalidInputError(fmt.Sprintf("unknown fix kind '%s'", req.Kind), nil)
	}

	opts := CollectOptions{
		Recursive:        uc.cfg.Analysis.Recursive,
		IncludePatterns:  uc.cfg.Analysis.IncludePatterns,
		ExcludePatterns:  uc.cfg.Analysis.ExcludePatterns,
		RespectGitignore: uc.cfg.Analysis.RespectGitignore,
	}
	if len(req.IncludePatterns) > 0 {
		opts.IncludePatterns = req.IncludePatterns
	}
	if len(req.ExcludePatterns) > 0 {
		opts.ExcludePatterns = req.ExcludePatterns
	}

	files, err := ResolveFilePaths(uc.fileHelper, req.Paths, opts)
	if err != nil {
		return nil, domain.NewFileNotFoundError("failed to collect files", err)
	}

	p := parser.NewParser()
	defer p.Close()
	syntax := fixer.NewSyntaxFixer()
	defer syntax.Close()

	response := &domain.FixResponse{
		Kind:    req.Kind,
		DryRun:  req.DryRun || req.DetectOnly,
		Changes: make([]domain.FileChange, 0, len(files)),
	}

	task := uc.progress.StartTask(fmt.Sprintf("Fixing %s", req.Kind), len(files))
	defer task.Complete()

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		task.Increment(1)
		response.FilesScanned++

		change := domain.FileChange{Path: file, Status: domain.FixStatusUnchanged}
		src, err := uc.fileHelper.ReadFile(file)
		if err != nil {
			change.Status = domain.FixStatusError
			change.Reason = err.Error()
			response.Changes = append(response.Changes, change)
			continue
		}

		rw := uc.apply(req, p, syntax, file, src)
		response.Findings = append(response.Findings, rw.findings...)

		switch {
		case rw.reason != "":
			change.Status = domain.FixStatusUnfixed
			change.Reason = rw.reason
			response.FilesUnfixed++
		case rw.content == nil || bytes.Equal(rw.content, src):
			// nothing to do
		case !p.Valid(rw.content):
			change.Status = domain.FixStatusUnfixed
			change.Reason = "rewritten source does not parse"
			response.FilesUnfixed++
		default:
			change.Status = domain.FixStatusFixed
			change.Substitutions = rw.substitutions
			change.Heuristics = rw.heuristics
			if !response.DryRun {
				if err := uc.fileHelper.WriteFile(file, rw.content); err != nil {
					change.Status = domain.FixStatusError
					change.Reason = err.Error()
					break
				}
			}
			response.FilesChanged++
			response.Substitutions += rw.substitutions
		}

		uc.logger.Debug("file processed",
			zap.String("file", file),
			zap.String("status", string(change.Status)),
			zap.Int("substitutions", change.Substitutions))
		response.Changes = append(response.Changes, change)
	}

	if writer != nil {
		if err := uc.formatter.WriteFix(response, format, writer); err != nil {
			return nil, err
		}
	}
	return response, nil
}

func (uc *FixUseCase) apply(req domain.FixRequest, p *parser.Parser, syntax *fixer.SyntaxFixer, file string, src []byte) rewrite {
	switch req.Kind {
	case domain.FixUnicode:
		if req.DetectOnly {
			var findings []domain.Finding
			for _, pos := range fixer.FindUnicode(src) {
				findings = append(findings, domain.Finding{
					Path: file, Line: pos.Line, Column: pos.Column,
					Rule: "unicode", Message: fmt.Sprintf("non-ASCII symbol %q", pos.Text),
				})
			}
			return rewrite{findings: findings}
		}
		res := fixer.RemoveUnicode(src)
		return rewrite{content: res.Content, substitutions: res.Substitutions + res.Stripped}

	case domain.FixSyntax:
		res := syntax.Fix(src)
		if res.AlreadyValid {
			return rewrite{}
		}
		if !res.Fixed {
			return rewrite{reason: fmt.Sprintf("syntax error at line %d could not be repaired", res.ErrorLine)}
		}
		if req.DetectOnly {
			return rewrite{findings: []domain.Finding{{
				Path: file, Line: res.ErrorLine, Column: 1,
				Rule: "syntax", Message: "syntax error",
			}}}
		}
		return rewrite{content: res.Content, substitutions: len(res.Applied), heuristics: res.Applied}
	}

	mod, err := p.ParseFile(file, src)
	if err != nil {
		return rewrite{reason: err.Error()}
	}
	if mod.HasErrors {
		return rewrite{reason: fmt.Sprintf("syntax error at line %d", mod.ErrorLine)}
	}

	if req.Kind == domain.FixNaming {
		res := fixer.StandardizeNames(mod, src, uc.cfg.Fix.KeepNames)
		if req.DetectOnly {
			var findings []domain.Finding
			for _, r := range res.Renames {
				findings = append(findings, domain.Finding{
					Path: file, Line: r.Line, Column: 1,
					Rule: "naming", Message: fmt.Sprintf("%s should be %s", r.From, r.To),
				})
			}
			return rewrite{findings: findings}
		}
		return rewrite{content: res.Content, substitutions: res.Substitutions}
	}

	if req.DetectOnly {
		var findings []domain.Finding
		for _, n := range fixer.DetectMagicNumbers(mod, uc.cfg.Analyzer.AllowedNumbers) {
			findings = append(findings, domain.Finding{
				Path: file, Line: n.Line, Column: n.Column,
				Rule: "magic-number", Message: fmt.Sprintf("magic number %s in %s", n.Text, n.Function),
			})
		}
		return rewrite{findings: findings}
	}
	res := fixer.ReplaceMagicNumbers(mod, src, uc.cfg.Fix.MagicNumbers)
	return rewrite{content: res.Content, substitutions: res.Substitutions}
}
