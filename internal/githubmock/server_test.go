package githubmock

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, srv *httptest.Server, method, path, auth, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestServer_RejectsMissingToken(t *testing.T) {
	mock := NewServer("", nil)
	srv := httptest.NewServer(mock)
	defer srv.Close()

	resp, body := do(t, srv, http.MethodPost, "/repos/acme/app/issues/1/comments", "", `{"body":"hi"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Bad credentials")

	resp, _ = do(t, srv, http.MethodPost, "/repos/acme/app/issues/1/comments", "Bearer abc", `{"body":"hi"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	assert.False(t, reqs[0].AuthOK)
	assert.Equal(t, `{"body":"hi"}`, reqs[0].Body)
}

func TestServer_ConfiguredToken(t *testing.T) {
	srv := httptest.NewServer(NewServer("secret", nil))
	defer srv.Close()

	resp, _ := do(t, srv, http.MethodGet, "/repos/acme/app/pulls/3/files", "token wrong", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodGet, "/repos/acme/app/pulls/3/files", "token secret", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Comments(t *testing.T) {
	srv := httptest.NewServer(NewServer("", nil))
	defer srv.Close()

	resp, body := do(t, srv, http.MethodPost, "/repos/acme/app/issues/7/comments", "token t", `{"body":"quality report"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	assert.Equal(t, "quality report", created["body"])

	resp, body = do(t, srv, http.MethodGet, "/repos/acme/app/issues/7/comments", "token t", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "quality report", list[0]["body"])

	resp, _ = do(t, srv, http.MethodPost, "/repos/acme/app/issues/7/comments", "token t", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestServer_StatusAndIssue(t *testing.T) {
	srv := httptest.NewServer(NewServer("", nil))
	defer srv.Close()

	resp, _ := do(t, srv, http.MethodPost, "/repos/acme/app/statuses/abc123", "token t",
		`{"state":"success","context":"qgate","description":"All quality gates passed"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, "/repos/acme/app/statuses/abc123", "token t", `{"state":"green"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body := do(t, srv, http.MethodPost, "/repos/acme/app/issues", "token t", `{"title":"Quality regression"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, body, `"number":1`)
}

func TestServer_MetricsAndRequestLog(t *testing.T) {
	mock := NewServer("", nil)
	srv := httptest.NewServer(mock)
	defer srv.Close()

	do(t, srv, http.MethodGet, "/repos/acme/app/pulls/1/files", "token t", "")

	resp, body := do(t, srv, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "qgate_mock_github_requests_total")

	resp, body = do(t, srv, http.MethodGet, "/_requests", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "/repos/acme/app/pulls/1/files")

	mock.Reset()
	assert.Empty(t, mock.Requests())
}
