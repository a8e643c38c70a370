package app

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/afero"
)

// CollectOptions selects the files a source pass visits
type CollectOptions struct {
	Recursive        bool
	IncludePatterns  []string
	ExcludePatterns  []string
	RespectGitignore bool
}

// FileHelper provides file operation utilities over an afero filesystem
type FileHelper struct {
	fs afero.Fs
}

// NewFileHelper creates a FileHelper on the OS filesystem
func NewFileHelper() *FileHelper {
	return NewFileHelperFs(afero.NewOsFs())
}

// NewFileHelperFs creates a FileHelper on fsys
func NewFileHelperFs(fsys afero.Fs) *FileHelper {
	return &FileHelper{fs: fsys}
}

// CollectPythonFiles collects Python sources under paths, sorted and
// deduplicated
func (h *FileHelper) CollectPythonFiles(paths []string, opts CollectOptions) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, path := range paths {
		info, err := h.fs.Stat(path)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if h.IsPythonFile(path) && !h.isExcluded(path, opts.ExcludePatterns) {
				add(path)
			}
			continue
		}

		var gitignore *ignore.GitIgnore
		if opts.RespectGitignore {
			gitignore = h.loadGitignore(path)
		}

		if !opts.Recursive {
			entries, err := afero.ReadDir(h.fs, path)
			if err != nil {
				return nil, err
			}
			for _, entry := range entries {
				filePath := filepath.Join(path, entry.Name())
				if !entry.IsDir() && h.selected(path, filePath, opts, gitignore) {
					add(filePath)
				}
			}
			continue
		}

		err = afero.Walk(h.fs, path, func(filePath string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() {
				if filePath == path {
					return nil
				}
				// Skip excluded and ignored directories early
				dirName := filepath.Base(filePath)
				for _, pattern := range opts.ExcludePatterns {
					if pattern == dirName {
						return filepath.SkipDir
					}
					if matched, _ := filepath.Match(pattern, dirName); matched {
						return filepath.SkipDir
					}
				}
				if gitignore != nil && gitignore.MatchesPath(relSlash(path, filePath)+"/") {
					return filepath.SkipDir
				}
				return nil
			}

			if h.selected(path, filePath, opts, gitignore) {
				add(filePath)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

func (h *FileHelper) selected(root, filePath string, opts CollectOptions, gitignore *ignore.GitIgnore) bool {
	if !h.IsPythonFile(filePath) || h.isExcluded(filePath, opts.ExcludePatterns) {
		return false
	}
	if !h.isIncluded(filePath, opts.IncludePatterns) {
		return false
	}
	if gitignore != nil && gitignore.MatchesPath(relSlash(root, filePath)) {
		return false
	}
	return true
}

// loadGitignore compiles root/.gitignore, or returns nil when there is none
func (h *FileHelper) loadGitignore(root string) *ignore.GitIgnore {
	content, err := afero.ReadFile(h.fs, filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return ignore.CompileIgnoreLines(strings.Split(string(content), "\n")...)
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// IsPythonFile checks if a file is a Python source based on extension
func (h *FileHelper) IsPythonFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".py" || ext == ".pyi"
}

// FileExists checks if a regular file exists
func (h *FileHelper) FileExists(path string) (bool, error) {
	info, err := h.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// ReadFile reads file content
func (h *FileHelper) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(h.fs, path)
}

// WriteFile replaces path with content, keeping its permissions
func (h *FileHelper) WriteFile(path string, content []byte) error {
	mode := os.FileMode(0o644)
	if info, err := h.fs.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	tmp := path + ".qgate.tmp"
	if err := afero.WriteFile(h.fs, tmp, content, mode); err != nil {
		return err
	}
	if err := h.fs.Rename(tmp, path); err != nil {
		_ = h.fs.Remove(tmp)
		return err
	}
	return nil
}

// isIncluded checks the base name against include patterns; no patterns means all
func (h *FileHelper) isIncluded(path string, includePatterns []string) bool {
	if len(includePatterns) == 0 {
		return true
	}
	for _, pattern := range includePatterns {
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
			return true
		}
	}
	return false
}

// isExcluded checks the base name against exclude patterns. Excluded
// directories are pruned during the walk.
func (h *FileHelper) isExcluded(path string, excludePatterns []string) bool {
	for _, pattern := range excludePatterns {
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
			return true
		}
	}
	return false
}

// ResolveFilePaths returns paths unchanged when every entry is an existing
// Python file, and otherwise collects files from them
func ResolveFilePaths(fileHelper *FileHelper, paths []string, opts CollectOptions) ([]string, error) {
	allFiles := true
	for _, path := range paths {
		exists, err := fileHelper.FileExists(path)
		if err != nil || !exists || !fileHelper.IsPythonFile(path) {
			allFiles = false
			break
		}
	}

	if allFiles {
		return paths, nil
	}

	return fileHelper.CollectPythonFiles(paths, opts)
}
