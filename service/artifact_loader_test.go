package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/qgate/domain"
)

func memStore(t *testing.T, files map[string]string) (*ArtifactStore, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	store := NewArtifactStoreFs(fsys, "/artifacts", nil)
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, store.Path(name), []byte(content), 0o644))
	}
	return store, fsys
}

func TestLoadArtifact_Classification(t *testing.T) {
	store, _ := memStore(t, map[string]string{
		"ok.json":       `{"mece_score": 0.8}`,
		"bad.json":      `{"mece_score": `,
		"list.json":     `[1, 2]`,
		"fallback.json": `{"fallback": true, "mece_score": 0.75}`,
		"reduced.json":  `{"reduced_coverage": true, "summary": {}}`,
	})

	tests := []struct {
		name       string
		status     domain.Outcome
		reason     string
		wantData   bool
		reasonPart string
	}{
		{name: "ok.json", status: domain.OutcomeOK, wantData: true},
		{name: "missing.json", status: domain.OutcomeUnavailable, reason: ReasonNotFound},
		{name: "bad.json", status: domain.OutcomeUnavailable, reasonPart: "malformed JSON"},
		{name: "list.json", status: domain.OutcomeUnavailable, reasonPart: "expected object, got array"},
		{name: "fallback.json", status: domain.OutcomeDegraded, reason: ReasonFallback, wantData: true},
		{name: "reduced.json", status: domain.OutcomeDegraded, reason: ReasonReducedCoverage, wantData: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := store.Load(tt.name)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.wantData, got.Data != nil)
			assert.Equal(t, tt.wantData, got.Available())
			if tt.reason != "" {
				assert.Equal(t, tt.reason, got.Reason)
			}
			if tt.reasonPart != "" {
				assert.Contains(t, got.Reason, tt.reasonPart)
			}
		})
	}
}

func TestLoadArtifact_Idempotent(t *testing.T) {
	store, _ := memStore(t, map[string]string{
		"a.json": `{"summary": {"critical_violations": 2}, "list": [1, "x"]}`,
	})

	first := store.Load("a.json")
	second := store.Load("a.json")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("loading twice differs (-first +second):\n%s", diff)
	}
}

func TestLoadArtifact_OSFilesystem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mece_analysis.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mece_score": 0.9}`), 0o644))

	got := LoadArtifact(path)
	assert.Equal(t, domain.OutcomeOK, got.Status)
	assert.Equal(t, path, got.Path)
	assert.Equal(t, 0.9, got.Data["mece_score"])

	missing := LoadArtifact(filepath.Join(dir, "absent.json"))
	assert.Equal(t, domain.OutcomeUnavailable, missing.Status)
	assert.Equal(t, ReasonNotFound, missing.Reason)
}

func TestArtifactStore_WriteJSON(t *testing.T) {
	store, fsys := memStore(t, nil)

	path, err := store.WriteJSON("security/sast_analysis.json", map[string]int{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, "/artifacts/security/sast_analysis.json", path)

	content, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)
	var got map[string]int
	require.NoError(t, json.Unmarshal(content, &got))
	assert.Equal(t, 1, got["x"])

	exists, _ := afero.Exists(fsys, path+".tmp")
	assert.False(t, exists, "temporary file must be renamed away")

	_, err = store.WriteJSON("security/sast_analysis.json", map[string]int{"x": 2})
	require.NoError(t, err)
	assert.Equal(t, float64(2), store.Load("security/sast_analysis.json").Data["x"])
	assert.True(t, store.Exists("security/sast_analysis.json"))
}

func TestArtifactStore_WriteJSON_ReadOnly(t *testing.T) {
	store := NewArtifactStoreFs(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/artifacts", nil)

	_, err := store.WriteJSON(domain.ArtifactReport, map[string]int{})
	require.Error(t, err)
	var domErr domain.DomainError
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, domain.ErrCodeArtifactError, domErr.Code)
}

func TestArtifactStore_Path(t *testing.T) {
	store := NewArtifactStore(".claude/.artifacts", nil)
	assert.Equal(t, ".claude/.artifacts/performance/cache_health.json", store.Path(domain.ArtifactCacheHealth))
	assert.Equal(t, "/abs/x.json", store.Path("/abs/x.json"))
}

func TestLookup(t *testing.T) {
	data := map[string]interface{}{
		"summary": map[string]interface{}{
			"count": float64(3),
			"text":  "4",
			"bad":   "many",
			"null":  nil,
		},
		"items": []interface{}{1, 2},
	}

	v, ok := Lookup(data, "summary.count")
	assert.True(t, ok)
	assert.Equal(t, float64(3), v)

	_, ok = Lookup(data, "summary.missing")
	assert.False(t, ok)
	_, ok = Lookup(data, "items.count")
	assert.False(t, ok)
	_, ok = Lookup(data, "summary.null")
	assert.False(t, ok)

	assert.Equal(t, float64(4), LookupFloat(data, "summary.text", -1))
	assert.Equal(t, float64(-1), LookupFloat(data, "summary.bad", -1))
	assert.Equal(t, 2, LookupLen(data, "items"))
	assert.Equal(t, 0, LookupLen(data, "summary.count"))
}

func TestExtractors(t *testing.T) {
	data := map[string]interface{}{
		"cache_health": map[string]interface{}{"hit_rate": 0.9},
		"duplications": []interface{}{"a", "b", "c"},
	}

	_, err := PathExtractor{Path: "cache_health.health_score"}.Extract(data)
	assert.Error(t, err)

	first := NewExtractor([]string{"cache_health.health_score", "cache_health.hit_rate"})
	v, err := first.Extract(data)
	require.NoError(t, err)
	assert.Equal(t, 0.9, v)
	assert.Equal(t, "cache_health.health_score | cache_health.hit_rate", first.Describe())

	n, err := CountExtractor{Path: "duplications"}.Extract(data)
	require.NoError(t, err)
	assert.Equal(t, float64(3), n)

	_, err = FirstOfExtractor{Paths: []string{"x", "y"}}.Extract(data)
	assert.EqualError(t, err, "missing x | y")
}
