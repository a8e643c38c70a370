// Package githubmock serves a small in-memory imitation of the GitHub REST
// endpoints that qgate publishes to.
package githubmock

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ludo-technologies/qgate/internal/logging"
)

// RequestRecord is one entry of the request log
type RequestRecord struct {
	Method string    `json:"method"`
	Path   string    `json:"path"`
	AuthOK bool      `json:"auth_ok"`
	Body   string    `json:"body,omitempty"`
	At     time.Time `json:"at"`
}

type comment struct {
	ID        int64  `json:"id"`
	Body      string `json:"body"`
	User      user   `json:"user"`
	CreatedAt string `json:"created_at"`
}

type user struct {
	Login string `json:"login"`
}

type errorBody struct {
	Message string `json:"message"`
}

// Server is the mock. Comments, statuses and issues are kept in memory
// for the life of the process.
type Server struct {
	token  string
	logger *zap.Logger

	mu       sync.Mutex
	requests []RequestRecord
	comments map[string][]comment
	statuses map[string][]map[string]interface{}
	issues   int
	nextID   int64

	registry *prometheus.Registry
	hits     *prometheus.CounterVec
	router   chi.Router
}

// NewServer creates a mock. An empty token accepts any "token <t>" header.
func NewServer(token string, logger *zap.Logger) *Server {
	s := &Server{
		token:    token,
		logger:   logging.OrNop(logger),
		comments: make(map[string][]comment),
		statuses: make(map[string][]map[string]interface{}),
		nextID:   1000,
		registry: prometheus.NewRegistry(),
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qgate_mock_github_requests_total",
			Help: "Requests received by the mock GitHub server.",
		}, []string{"method", "route", "code"}),
	}
	s.registry.MustRegister(s.hits)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Get("/_requests", s.handleRequestLog)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Route("/repos/{owner}/{repo}", func(r chi.Router) {
			r.Post("/issues/{number}/comments", s.handleCreateComment)
			r.Get("/issues/{number}/comments", s.handleListComments)
			r.Post("/statuses/{sha}", s.handleCreateStatus)
			r.Post("/issues", s.handleCreateIssue)
			r.Get("/pulls/{number}/files", s.handleListFiles)
		})
	})
	return r
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Requests returns a copy of the request log
func (s *Server) Requests() []RequestRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RequestRecord, len(s.requests))
	copy(out, s.requests)
	return out
}

// Reset clears the request log and stored state
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
	s.comments = make(map[string][]comment)
	s.statuses = make(map[string][]map[string]interface{})
	s.issues = 0
}

// authenticate logs every request and rejects those without a valid
// "Authorization: token <t>" header
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		ok := s.authorized(r.Header.Get("Authorization"))
		s.record(RequestRecord{Method: r.Method, Path: r.URL.Path, AuthOK: ok, Body: string(body), At: time.Now().UTC()})
		s.logger.Debug("mock github request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Bool("auth_ok", ok))

		if !ok {
			s.respond(w, r, http.StatusUnauthorized, errorBody{Message: "Bad credentials"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authorized(header string) bool {
	t, found := strings.CutPrefix(header, "token ")
	if !found || strings.TrimSpace(t) == "" {
		return false
	}
	return s.token == "" || t == s.token
}

func (s *Server) record(rec RequestRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, rec)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, code int, v interface{}) {
	route := chi.RouteContext(r.Context())
	pattern := r.URL.Path
	if route != nil && route.RoutePattern() != "" {
		pattern = route.RoutePattern()
	}
	s.hits.WithLabelValues(r.Method, pattern, strconv.Itoa(code)).Inc()
	render.Status(r, code)
	render.JSON(w, r, v)
}

func repoKey(r *http.Request) string {
	return chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "repo")
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		s.respond(w, r, http.StatusNotFound, errorBody{Message: "Not Found"})
		return
	}
	var req struct {
		Body string `json:"body"`
	}
	if err := render.DecodeJSON(r.Body, &req); err != nil || req.Body == "" {
		s.respond(w, r, http.StatusUnprocessableEntity, errorBody{Message: "body is required"})
		return
	}

	s.mu.Lock()
	s.nextID++
	c := comment{ID: s.nextID, Body: req.Body, User: user{Login: "qgate-bot"}, CreatedAt: time.Now().UTC().Format(time.RFC3339)}
	key := repoKey(r) + "#" + strconv.Itoa(number)
	s.comments[key] = append(s.comments[key], c)
	s.mu.Unlock()

	s.respond(w, r, http.StatusCreated, c)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	key := repoKey(r) + "#" + chi.URLParam(r, "number")
	s.mu.Lock()
	list := append([]comment{}, s.comments[key]...)
	s.mu.Unlock()
	s.respond(w, r, http.StatusOK, list)
}

var validStates = map[string]bool{"pending": true, "success": true, "failure": true, "error": true}

func (s *Server) handleCreateStatus(w http.ResponseWriter, r *http.Request) {
	var req map[string]interface{}
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.respond(w, r, http.StatusUnprocessableEntity, errorBody{Message: "invalid JSON"})
		return
	}
	state, _ := req["state"].(string)
	if !validStates[state] {
		s.respond(w, r, http.StatusUnprocessableEntity, errorBody{Message: "state is not included in the list"})
		return
	}

	sha := chi.URLParam(r, "sha")
	s.mu.Lock()
	s.nextID++
	req["id"] = s.nextID
	s.statuses[repoKey(r)+"@"+sha] = append(s.statuses[repoKey(r)+"@"+sha], req)
	s.mu.Unlock()

	s.respond(w, r, http.StatusCreated, req)
}

func (s *Server) handleCreateIssue(w http.ResponseWriter, r *http.Request) {
	var req map[string]interface{}
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.respond(w, r, http.StatusUnprocessableEntity, errorBody{Message: "invalid JSON"})
		return
	}
	if title, _ := req["title"].(string); title == "" {
		s.respond(w, r, http.StatusUnprocessableEntity, errorBody{Message: "title is required"})
		return
	}

	s.mu.Lock()
	s.issues++
	req["number"] = s.issues
	req["state"] = "open"
	s.mu.Unlock()

	s.respond(w, r, http.StatusCreated, req)
}

// pullFiles is the canned file list returned for every pull request
var pullFiles = json.RawMessage(`[
  {"filename": "src/app/main.py", "status": "modified", "additions": 12, "deletions": 3},
  {"filename": "src/app/utils.py", "status": "added", "additions": 40, "deletions": 0},
  {"filename": "tests/test_main.py", "status": "modified", "additions": 5, "deletions": 1}
]`)

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	if _, err := strconv.Atoi(chi.URLParam(r, "number")); err != nil {
		s.respond(w, r, http.StatusNotFound, errorBody{Message: "Not Found"})
		return
	}
	s.respond(w, r, http.StatusOK, pullFiles)
}

func (s *Server) handleRequestLog(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.Requests())
}
