package service

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// MetricExtractor reads one numeric metric out of an analyzer document.
// Implementations isolate the output shape of a particular analyzer.
type MetricExtractor interface {
	Extract(data map[string]interface{}) (float64, error)
	Describe() string
}

// PathExtractor reads a number at a dotted path ("summary.critical_violations")
type PathExtractor struct {
	Path string
}

// Extract implements MetricExtractor
func (e PathExtractor) Extract(data map[string]interface{}) (float64, error) {
	v, ok := Lookup(data, e.Path)
	if !ok {
		return 0, fmt.Errorf("missing %s", e.Path)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%s is not numeric", e.Path)
	}
	return f, nil
}

// Describe implements MetricExtractor
func (e PathExtractor) Describe() string {
	return e.Path
}

// FirstOfExtractor tries several paths and returns the first numeric hit
type FirstOfExtractor struct {
	Paths []string
}

// Extract implements MetricExtractor
func (e FirstOfExtractor) Extract(data map[string]interface{}) (float64, error) {
	for _, p := range e.Paths {
		if f, err := (PathExtractor{Path: p}).Extract(data); err == nil {
			return f, nil
		}
	}
	return 0, fmt.Errorf("missing %s", strings.Join(e.Paths, " | "))
}

// Describe implements MetricExtractor
func (e FirstOfExtractor) Describe() string {
	return strings.Join(e.Paths, " | ")
}

// CountExtractor counts the entries of a list (or object) at a dotted path
type CountExtractor struct {
	Path string
}

// Extract implements MetricExtractor
func (e CountExtractor) Extract(data map[string]interface{}) (float64, error) {
	v, ok := Lookup(data, e.Path)
	if !ok {
		return 0, fmt.Errorf("missing %s", e.Path)
	}
	switch t := v.(type) {
	case []interface{}:
		return float64(len(t)), nil
	case map[string]interface{}:
		return float64(len(t)), nil
	}
	return 0, fmt.Errorf("%s is not a list", e.Path)
}

// Describe implements MetricExtractor
func (e CountExtractor) Describe() string {
	return "len(" + e.Path + ")"
}

// NewExtractor picks the extractor for a list of candidate paths
func NewExtractor(paths []string) MetricExtractor {
	if len(paths) == 1 {
		return PathExtractor{Path: paths[0]}
	}
	return FirstOfExtractor{Paths: paths}
}

// Lookup walks a dotted path through nested JSON objects
func Lookup(data map[string]interface{}, path string) (interface{}, bool) {
	var cur interface{} = data
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// LookupFloat is Lookup with the loose "get(key, default)" semantics of
// the analyzers: anything missing or non-numeric reads as def.
func LookupFloat(data map[string]interface{}, path string, def float64) float64 {
	v, ok := Lookup(data, path)
	if !ok {
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return def
	}
	return f
}

// LookupLen returns the length of a list at path, or 0
func LookupLen(data map[string]interface{}, path string) int {
	n, err := CountExtractor{Path: path}.Extract(data)
	if err != nil {
		return 0
	}
	return int(n)
}
