package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/qgate/internal/githubmock"
)

var fastRetry = RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

func newTestClient(t *testing.T, url, token string) *Client {
	t.Helper()
	c, err := NewClient(url, token, "acme/app", WithRetryPolicy(fastRetry))
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("", "t", "acme")
	assert.Error(t, err)
	_, err = NewClient("", "t", "acme/app/extra")
	assert.Error(t, err)
	_, err = NewClient("", "", "acme/app")
	assert.Error(t, err)

	c, err := NewClient("", "t", "acme/app")
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, c.baseURL)
}

func TestClient_AgainstMock(t *testing.T) {
	mock := githubmock.NewServer("secret", nil)
	srv := httptest.NewServer(mock)
	defer srv.Close()

	c := newTestClient(t, srv.URL, "secret")
	ctx := context.Background()

	created, err := c.CreateComment(ctx, 12, "## Quality gates\nPASS")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	comments, err := c.ListComments(ctx, 12)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "## Quality gates\nPASS", comments[0].Body)

	require.NoError(t, c.SetStatus(ctx, "deadbeef", Status{State: StateSuccess, Context: "qgate"}))

	issue, err := c.CreateIssue(ctx, Issue{Title: "Quality regression", Labels: []string{"quality"}})
	require.NoError(t, err)
	assert.Equal(t, 1, issue.Number)

	files, err := c.ListPullFiles(ctx, 12)
	require.NoError(t, err)
	assert.Len(t, files, 3)

	for _, rec := range mock.Requests() {
		assert.True(t, rec.AuthOK, rec.Path)
	}
}

func TestClient_WrongTokenIsNotRetried(t *testing.T) {
	mock := githubmock.NewServer("secret", nil)
	srv := httptest.NewServer(mock)
	defer srv.Close()

	c := newTestClient(t, srv.URL, "wrong")
	err := c.SetStatus(context.Background(), "abc", Status{State: StateFailure})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Len(t, mock.Requests(), 1)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 5, "body": "ok"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "t")
	comment, err := c.CreateComment(context.Background(), 1, "ok")
	require.NoError(t, err)
	assert.Equal(t, int64(5), comment.ID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "t")
	err := c.SetStatus(context.Background(), "abc", Status{State: StateSuccess})
	require.Error(t, err)
	assert.Equal(t, int32(fastRetry.MaxRetries+1), atomic.LoadInt32(&calls))
}

func TestRetryPolicy_BackOff(t *testing.T) {
	b := RetryPolicy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}.backOff()
	var got []time.Duration
	for i := 0; i < 6; i++ {
		got = append(got, b.NextBackOff())
	}
	want := []time.Duration{
		100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond,
		800 * time.Millisecond, time.Second, time.Second,
	}
	assert.Equal(t, want, got)
}

func TestClient_DoesNotResendAfterUndecodableSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": `))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "t")
	_, err := c.CreateIssue(context.Background(), Issue{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "a created issue must not be posted twice")
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "t")
	err := c.SetStatus(context.Background(), "abc", Status{State: StateSuccess})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := retry(ctx, fastRetry, func() error { called = true; return nil }, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
