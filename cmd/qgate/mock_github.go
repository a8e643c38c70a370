package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/githubmock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func mockGitHubCmd(root *rootOptions) *cobra.Command {
	var (
		addr  string
		token string
	)

	cmd := &cobra.Command{
		Use:   "mock-github",
		Short: "Serve an in-memory mock of the GitHub API",
		Long: `Serve the subset of the GitHub REST API that publish uses, for local
and CI testing. Requests are logged at /_requests and counted at /metrics.

Examples:
  qgate mock-github --addr :8089
  GITHUB_API_URL=http://localhost:8089 GITHUB_TOKEN=t qgate publish --pr 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return exitWith(domain.ExitError, "cannot listen on %s: %v", addr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mock GitHub API listening on http://%s\n", ln.Addr())
			return toolError(serveMock(cmd.Context(), ln, githubmock.NewServer(token, root.log()), root.log()))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8089", "Listen address")
	cmd.Flags().StringVar(&token, "token", "", "Token to require (default: accept any)")

	return cmd
}

// serveMock serves handler on ln until ctx is done
func serveMock(ctx context.Context, ln net.Listener, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down mock server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
