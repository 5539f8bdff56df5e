// Package search implements the bounded recursive file name search used by
// the file_search tool.
//
// The walk is depth-first in directory-listing order. Both caps are checked
// before descending, so cost stays bounded on very large trees.
package search

import (
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/deskai/deskai/internal/errors"
)

// Result is a single matching directory entry.
type Result struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
	Size  *int64 `json:"size,omitempty"` // regular files only
}

// Options tunes traversal.
type Options struct {
	// FollowSymlinks descends into symlinked directories. Cycles are cut
	// by remembering the resolved path of every directory entered.
	FollowSymlinks bool
}

// Engine runs searches. The zero value is ready to use.
type Engine struct {
	opts Options
}

// NewEngine creates a search engine.
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Search returns entries under root whose name contains query,
// case-insensitively. Entries directly in root are at depth 0; a
// subdirectory is entered only while its depth is below maxDepth. At most
// maxResults entries are returned.
func (e *Engine) Search(query, root string, maxDepth, maxResults int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.InvalidInput("search query must not be empty")
	}
	results := []Result{}
	if maxResults <= 0 {
		return results, nil
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, apperrors.IO(apperrors.CodeFileReadFailed, root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.IO(apperrors.CodeFileNotFound, absRoot, err)
		}
		return nil, apperrors.IO(apperrors.CodeFileReadFailed, absRoot, err)
	}
	if !info.IsDir() {
		return nil, apperrors.InvalidInput("search root is not a directory: " + absRoot)
	}

	w := &walker{
		needle:     strings.ToLower(query),
		maxDepth:   maxDepth,
		maxResults: maxResults,
		follow:     e.opts.FollowSymlinks,
		results:    results,
	}
	if w.follow {
		w.visited = make(map[string]bool)
		if real, err := filepath.EvalSymlinks(absRoot); err == nil {
			w.visited[real] = true
		}
	}

	entries, err := os.ReadDir(absRoot)
	if err != nil {
		return nil, apperrors.IO(apperrors.CodeFileReadFailed, absRoot, err)
	}
	w.walkEntries(absRoot, entries, 0)
	return w.results, nil
}

type walker struct {
	needle     string
	maxDepth   int
	maxResults int
	follow     bool
	visited    map[string]bool
	results    []Result
}

func (w *walker) full() bool {
	return len(w.results) >= w.maxResults
}

func (w *walker) walkEntries(dir string, entries []os.DirEntry, depth int) {
	for _, entry := range entries {
		if w.full() {
			return
		}

		path := filepath.Join(dir, entry.Name())
		isDir, isLink := entry.IsDir(), entry.Type()&os.ModeSymlink != 0
		if isLink {
			if target, err := os.Stat(path); err == nil {
				isDir = target.IsDir()
			}
		}

		if strings.Contains(strings.ToLower(entry.Name()), w.needle) {
			w.results = append(w.results, w.result(entry, path, isDir, isLink))
			if w.full() {
				return
			}
		}

		if !isDir || depth >= w.maxDepth {
			continue
		}
		if !w.enter(path, isLink) {
			continue
		}

		children, err := os.ReadDir(path)
		if err != nil {
			// unreadable subdirectories are skipped
			continue
		}
		w.walkEntries(path, children, depth+1)
	}
}

// enter reports whether a directory may be descended. Without
// FollowSymlinks, symlinked directories are never entered; with it, every
// directory is entered at most once by resolved path.
func (w *walker) enter(path string, isLink bool) bool {
	if !w.follow {
		return !isLink
	}
	real, err := filepath.EvalSymlinks(path)
	if err != nil || w.visited[real] {
		return false
	}
	w.visited[real] = true
	return true
}

func (w *walker) result(entry os.DirEntry, path string, isDir, isLink bool) Result {
	r := Result{Name: entry.Name(), Path: path, IsDir: isDir}
	if isDir {
		return r
	}
	var info os.FileInfo
	var err error
	if isLink {
		info, err = os.Stat(path)
	} else {
		info, err = entry.Info()
	}
	if err == nil && info.Mode().IsRegular() {
		size := info.Size()
		r.Size = &size
	}
	return r
}
