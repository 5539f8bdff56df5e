package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	apperrors "github.com/deskai/deskai/internal/errors"
	"github.com/deskai/deskai/internal/search"
)

// DefaultMaxReadBytes caps file_read when no limit is configured.
const DefaultMaxReadBytes int64 = 10 << 20

// FileRead reads file contents. HTML files come back as Markdown.
type FileRead struct {
	MaxBytes int64
}

func (t *FileRead) Name() string        { return "file_read" }
func (t *FileRead) Description() string { return "Read a text file; HTML is converted to Markdown" }

func (t *FileRead) Execute(ctx context.Context, params map[string]string) (*Result, error) {
	start := time.Now()

	path, err := required(t.Name(), params, "path")
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, apperrors.IO(apperrors.CodeFileReadFailed, path, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.IO(apperrors.CodeFileNotFound, absPath, err)
		}
		return nil, apperrors.IO(apperrors.CodeFileReadFailed, absPath, err)
	}
	if info.IsDir() {
		return nil, apperrors.IO(apperrors.CodeFileReadFailed, absPath, fmt.Errorf("is a directory"))
	}

	limit := t.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxReadBytes
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, apperrors.IO(apperrors.CodeFileReadFailed, absPath, err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, apperrors.IO(apperrors.CodeFileReadFailed, absPath, err)
	}
	truncated := int64(len(content)) > limit
	if truncated {
		content = content[:limit]
	}

	data := map[string]any{
		"path":      absPath,
		"size":      info.Size(),
		"truncated": truncated,
	}

	text := string(content)
	switch strings.ToLower(filepath.Ext(absPath)) {
	case ".html", ".htm":
		if title := htmlTitle(text); title != "" {
			data["title"] = title
		}
		converted, err := md.NewConverter("", true, nil).ConvertString(text)
		if err != nil {
			return nil, apperrors.IO(apperrors.CodeFileReadFailed, absPath, fmt.Errorf("convert html: %w", err))
		}
		text = converted
		data["format"] = "markdown"
	}
	data["lines"] = strings.Count(text, "\n") + 1

	return TimedResult(NewResult(text, data), start), nil
}

func htmlTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// FileWrite writes content to a file inside the output directory. The
// directory is created on first use.
type FileWrite struct {
	OutputDir string
}

func (t *FileWrite) Name() string { return "file_write" }
func (t *FileWrite) Description() string {
	return "Write content to a file in the application output directory"
}

func (t *FileWrite) Execute(ctx context.Context, params map[string]string) (*Result, error) {
	start := time.Now()

	name, err := required(t.Name(), params, "filename")
	if err != nil {
		return nil, err
	}
	content := params["content"]

	target, err := t.resolve(name)
	if err != nil {
		return nil, err
	}

	// Links can change after resolve; the write itself stays in OutputDir.
	if err := writeInRoot(t.OutputDir, filepath.Clean(name), []byte(content)); err != nil {
		return nil, apperrors.IO(apperrors.CodeFileWriteFailed, target, err)
	}

	return TimedResult(NewResult(
		fmt.Sprintf("Wrote %d bytes to %s", len(content), target),
		map[string]any{"path": target, "size": len(content)},
	), start), nil
}

// resolve maps a relative file name to a path under OutputDir, rejecting
// anything that would land outside it.
func (t *FileWrite) resolve(name string) (string, error) {
	if t.OutputDir == "" {
		return "", apperrors.IO(apperrors.CodeFileWriteFailed, name, fmt.Errorf("no output directory configured"))
	}
	if filepath.IsAbs(name) || filepath.VolumeName(name) != "" || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return "", denied(name, "absolute paths are not allowed")
	}
	clean := filepath.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", denied(name, "path escapes the output directory")
	}

	if err := os.MkdirAll(t.OutputDir, 0o755); err != nil {
		return "", apperrors.IO(apperrors.CodeFileWriteFailed, t.OutputDir, err)
	}
	root, err := filepath.EvalSymlinks(t.OutputDir)
	if err != nil {
		return "", apperrors.IO(apperrors.CodeFileWriteFailed, t.OutputDir, err)
	}

	target := filepath.Join(t.OutputDir, clean)

	// The deepest existing component decides where the write really lands.
	existing := target
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		existing = filepath.Dir(existing)
	}
	real, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return "", denied(name, "unresolvable link")
	}
	if !within(root, real) {
		return "", denied(name, "link points outside the output directory")
	}
	return target, nil
}

// writeInRoot creates rel and its parent directories under dir. Every path
// step is resolved inside dir, so links pointing outside it fail.
func writeInRoot(dir, rel string, data []byte) error {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return err
	}
	defer root.Close()

	parts := strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/")
	for i := range parts {
		if parts[i] == "." || parts[i] == "" {
			continue
		}
		sub := filepath.Join(parts[:i+1]...)
		if err := root.Mkdir(sub, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
			return err
		}
	}

	f, err := root.OpenFile(rel, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func denied(path, reason string) error {
	return apperrors.IO(apperrors.CodeFileAccessDenied, path, errors.New(reason))
}

// FileSearch finds files and directories by name.
type FileSearch struct {
	Engine      *search.Engine
	DefaultRoot string
	MaxDepth    int
	MaxResults  int
}

func (t *FileSearch) Name() string { return "file_search" }
func (t *FileSearch) Description() string {
	return "Find files and folders whose name contains the query"
}

func (t *FileSearch) Execute(ctx context.Context, params map[string]string) (*Result, error) {
	start := time.Now()

	query, err := required(t.Name(), params, "query")
	if err != nil {
		return nil, err
	}

	root := strings.TrimSpace(params["search_path"])
	if root == "" {
		root = t.DefaultRoot
	}
	if root == "" {
		if root, err = os.UserHomeDir(); err != nil {
			return nil, apperrors.IO(apperrors.CodeFileReadFailed, "~", err)
		}
	}

	maxDepth, err := intParam(t.Name(), params, "max_depth", t.MaxDepth)
	if err != nil {
		return nil, err
	}
	if t.MaxDepth > 0 && maxDepth > t.MaxDepth {
		maxDepth = t.MaxDepth
	}
	maxResults, err := intParam(t.Name(), params, "max_results", t.MaxResults)
	if err != nil {
		return nil, err
	}
	if t.MaxResults > 0 && maxResults > t.MaxResults {
		maxResults = t.MaxResults
	}

	engine := t.Engine
	if engine == nil {
		engine = search.NewEngine(search.Options{})
	}
	results, err := engine.Search(query, root, maxDepth, maxResults)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	if len(results) == 0 {
		fmt.Fprintf(&sb, "No files matching %q found in %s", query, root)
	} else {
		fmt.Fprintf(&sb, "Found %d matches for %q:", len(results), query)
		for _, r := range results {
			sb.WriteString("\n")
			sb.WriteString(r.Path)
			if r.IsDir {
				sb.WriteString(string(filepath.Separator))
			}
		}
	}

	return TimedResult(NewResult(sb.String(), map[string]any{
		"query":   query,
		"root":    root,
		"count":   len(results),
		"results": results,
	}), start), nil
}
