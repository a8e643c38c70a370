package main

import (
	"os"

	"github.com/ludo-technologies/qgate/app"
	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/github"
	"github.com/ludo-technologies/qgate/service"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

type publishOptions struct {
	report         string
	pr             int
	sha            string
	issueOnFailure bool
}

func publishCmd(root *rootOptions) *cobra.Command {
	opts := &publishOptions{}

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish the consolidated report to GitHub",
		Long: `Post the consolidated report as a pull request comment and set a
commit status. Transient API failures are retried with backoff.

Environment:
  GITHUB_TOKEN       API token (required)
  GITHUB_REPOSITORY  owner/repo
  GITHUB_SHA         commit to set the status on (default for --sha)
  TEST_PR_NUMBER     pull request number (default for --pr)
  GITHUB_API_URL     API base URL (default https://api.github.com)

Examples:
  qgate publish --pr 42
  GITHUB_API_URL=http://localhost:8089 qgate publish --sha $GITHUB_SHA`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root, ".")
			if err != nil {
				return err
			}

			pr := opts.pr
			if !cmd.Flags().Changed("pr") {
				pr = cast.ToInt(os.Getenv("TEST_PR_NUMBER"))
			}
			sha := opts.sha
			if !cmd.Flags().Changed("sha") {
				sha = os.Getenv("GITHUB_SHA")
			}
			report := opts.report
			if report == "" {
				report = cfg.ReportPath()
			}

			policy := github.DefaultRetryPolicy()
			policy.MaxRetries = cfg.GitHub.MaxRetries
			client, err := github.NewClient(cfg.GitHub.APIURL, os.Getenv("GITHUB_TOKEN"), cfg.GitHub.Repository,
				github.WithRetryPolicy(policy),
				github.WithLogger(root.log()))
			if err != nil {
				return exitWith(domain.ExitError, "%v", err)
			}

			uc := app.NewPublishUseCase(client, afero.NewOsFs(), service.NewOutputFormatter(false), root.log())
			result, err := uc.Execute(cmd.Context(), app.PublishRequest{
				ReportPath:     report,
				PullRequest:    pr,
				SHA:            sha,
				StatusContext:  cfg.GitHub.Context,
				IssueOnFailure: opts.issueOnFailure,
			})
			if err != nil {
				return toolError(err)
			}
			return toolError(service.WriteJSON(cmd.OutOrStdout(), result))
		},
	}

	cmd.Flags().StringVar(&opts.report, "report", "", "Consolidated report (default: the artifacts report)")
	cmd.Flags().IntVar(&opts.pr, "pr", 0, "Pull request to comment on")
	cmd.Flags().StringVar(&opts.sha, "sha", "", "Commit to set the status on")
	cmd.Flags().BoolVar(&opts.issueOnFailure, "issue-on-failure", false, "Open an issue when the gates failed")

	return cmd
}
