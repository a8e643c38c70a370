package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/logging"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// Reasons reported for non-ok artifacts
const (
	ReasonNotFound        = "file not found"
	ReasonFallback        = "fallback artifact"
	ReasonReducedCoverage = "reduced tool coverage"
)

// ArtifactStore reads and writes JSON artifacts under a root directory
type ArtifactStore struct {
	fs     afero.Fs
	root   string
	logger *zap.Logger
}

// NewArtifactStore creates a store rooted at dir on the OS filesystem
func NewArtifactStore(dir string, logger *zap.Logger) *ArtifactStore {
	return NewArtifactStoreFs(afero.NewOsFs(), dir, logger)
}

// NewArtifactStoreFs creates a store on an arbitrary filesystem
func NewArtifactStoreFs(fsys afero.Fs, dir string, logger *zap.Logger) *ArtifactStore {
	return &ArtifactStore{
		fs:     fsys,
		root:   dir,
		logger: logging.OrNop(logger),
	}
}

// Path resolves an artifact name against the root
func (s *ArtifactStore) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Load reads the named artifact. It never fails: missing or malformed
// files come back as OutcomeUnavailable with a reason.
func (s *ArtifactStore) Load(name string) domain.ArtifactResult {
	path := s.Path(name)
	result := LoadArtifactFs(s.fs, path)
	if result.Status != domain.OutcomeOK {
		s.logger.Warn("artifact not usable",
			zap.String("artifact", name),
			zap.String("status", string(result.Status)),
			zap.String("reason", result.Reason))
	}
	return result
}

// Exists reports whether the named artifact exists
func (s *ArtifactStore) Exists(name string) bool {
	ok, err := afero.Exists(s.fs, s.Path(name))
	return err == nil && ok
}

// WriteJSON writes v as indented JSON to the named artifact, replacing
// any previous content atomically.
func (s *ArtifactStore) WriteJSON(name string, v interface{}) (string, error) {
	path := s.Path(name)
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", domain.NewArtifactError(path, err)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, v); err != nil {
		return "", domain.NewArtifactError(path, err)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, buf.Bytes(), 0o644); err != nil {
		return "", domain.NewArtifactError(path, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return "", domain.NewArtifactError(path, err)
	}

	s.logger.Debug("artifact written", zap.String("path", path), zap.Int("bytes", buf.Len()))
	return path, nil
}

// WriteRaw stores raw tool output under the named artifact
func (s *ArtifactStore) WriteRaw(name string, data []byte) (string, error) {
	path := s.Path(name)
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", domain.NewArtifactError(path, err)
	}
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return "", domain.NewArtifactError(path, err)
	}
	return path, nil
}

// LoadArtifact loads a JSON artifact from the OS filesystem
func LoadArtifact(path string) domain.ArtifactResult {
	return LoadArtifactFs(afero.NewOsFs(), path)
}

// LoadArtifactFs loads a JSON artifact and classifies it.
// Only a JSON object is accepted as data.
func LoadArtifactFs(fsys afero.Fs, path string) domain.ArtifactResult {
	result := domain.ArtifactResult{Path: path, Status: domain.OutcomeUnavailable}

	content, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			result.Reason = ReasonNotFound
		} else {
			result.Reason = fmt.Sprintf("unreadable: %v", err)
		}
		return result
	}

	var raw interface{}
	if err := json.Unmarshal(content, &raw); err != nil {
		result.Reason = fmt.Sprintf("malformed JSON: %v", err)
		return result
	}

	data, ok := raw.(map[string]interface{})
	if !ok {
		result.Reason = fmt.Sprintf("malformed JSON: expected object, got %s", jsonKind(raw))
		return result
	}

	result.Data = data
	result.Status = domain.OutcomeOK

	switch {
	case cast.ToBool(data["fallback"]):
		result.Status = domain.OutcomeDegraded
		result.Reason = ReasonFallback
	case cast.ToBool(data["reduced_coverage"]):
		result.Status = domain.OutcomeDegraded
		result.Reason = ReasonReducedCoverage
	}

	return result
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
