package app

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/github"
	"github.com/ludo-technologies/qgate/internal/logging"
	"github.com/ludo-technologies/qgate/service"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// PublishRequest selects where a consolidated report is published
type PublishRequest struct {
	ReportPath string
	// PullRequest receives the summary comment when > 0
	PullRequest int
	// SHA receives the commit status when set
	SHA           string
	StatusContext string
	// IssueOnFailure opens an issue when a gate blocked the run
	IssueOnFailure bool
}

// PublishResult records what was created on GitHub
type PublishResult struct {
	CommentID   int64  `json:"comment_id,omitempty"`
	StatusState string `json:"status_state,omitempty"`
	IssueNumber int    `json:"issue_number,omitempty"`
}

// PublishUseCase posts a consolidated report to GitHub
type PublishUseCase struct {
	client    *github.Client
	fs        afero.Fs
	formatter *service.OutputFormatterImpl
	logger    *zap.Logger
}

// NewPublishUseCase creates a publish use case
func NewPublishUseCase(client *github.Client, fsys afero.Fs, formatter *service.OutputFormatterImpl, logger *zap.Logger) *PublishUseCase {
	return &PublishUseCase{client: client, fs: fsys, formatter: formatter, logger: logging.OrNop(logger)}
}

// Execute reads the report and publishes it
func (uc *PublishUseCase) Execute(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if req.PullRequest <= 0 && req.SHA == "" {
		return nil, domain.NewInvalidInputError("nothing to publish: set a pull request number or a commit SHA", nil)
	}

	report, err := service.ReadReport(uc.fs, req.ReportPath)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if err := uc.formatter.WriteMarkdown(report, &body); err != nil {
		return nil, domain.NewOutputError("failed to render comment", err)
	}

	// the status follows the exit policy, so non-blocking gates never fail a commit
	blocking := report.ExitCode != domain.ExitPass

	result := &PublishResult{}
	if req.PullRequest > 0 {
		comment, err := uc.client.CreateComment(ctx, req.PullRequest, body.String())
		if err != nil {
			return nil, domain.NewToolError("github", err)
		}
		result.CommentID = comment.ID
		uc.logger.Info("comment posted", zap.Int("pr", req.PullRequest), zap.Int64("id", comment.ID))
	}

	if req.SHA != "" {
		state := github.StateSuccess
		if blocking {
			state = github.StateFailure
		}
		status := github.Status{
			State:       state,
			Description: fmt.Sprintf("Average quality %.2f, %d critical issues", report.OverallScores.AverageQuality, len(report.CriticalIssues)),
			Context:     req.StatusContext,
		}
		if err := uc.client.SetStatus(ctx, req.SHA, status); err != nil {
			return nil, domain.NewToolError("github", err)
		}
		result.StatusState = state
		uc.logger.Info("status set", zap.String("sha", req.SHA), zap.String("state", state))
	}

	if req.IssueOnFailure && blocking {
		issue, err := uc.client.CreateIssue(ctx, github.Issue{
			Title:  fmt.Sprintf("Quality gates failed (run %s)", report.RunID),
			Body:   body.String(),
			Labels: []string{"quality-gates"},
		})
		if err != nil {
			return nil, domain.NewToolError("github", err)
		}
		result.IssueNumber = issue.Number
	}
	return result, nil
}
