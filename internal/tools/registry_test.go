package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	apperrors "github.com/deskai/deskai/internal/errors"
	"github.com/deskai/deskai/internal/search"
	"github.com/deskai/deskai/internal/tools/executor"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type staticExtractor string

func (s staticExtractor) ExtractText(ctx context.Context, imagePath string) (string, error) {
	return string(s), nil
}

func newTestRegistry(t *testing.T, placeholder bool) (*Registry, string) {
	t.Helper()
	dir := t.TempDir()
	r := NewRegistry(zerolog.Nop())
	r.Initialize(Options{
		PlaceholderCalculator: placeholder,
		OutputDir:             filepath.Join(dir, "out"),
		Search:                search.NewEngine(search.Options{}),
		SearchRoot:            dir,
		SearchMaxDepth:        5,
		SearchMaxResults:      100,
		OCR:                   staticExtractor("scanned text"),
	})
	return r, dir
}

func TestEveryToolReportsItsName(t *testing.T) {
	r, dir := newTestRegistry(t, false)

	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("remember the milk"), 0o644))

	params := map[string]map[string]string{
		"file_read":   {"path": notes},
		"read_file":   {"path": notes},
		"file_write":  {"filename": "todo.txt", "content": "buy milk"},
		"file_search": {"query": "notes"},
		"system_info": {},
		"calculator":  {"expression": "1 + 2"},
		"ocr":         {"image_path": "scan.png"},
		"calendar":    {},
		"email":       {},
	}

	list := r.List()
	require.Len(t, list, len(params))
	for _, d := range list {
		t.Run(d.Name, func(t *testing.T) {
			p, ok := params[d.Name]
			require.True(t, ok, "no parameters for %s", d.Name)
			res, err := r.Execute(context.Background(), d.Name, p)
			require.NoError(t, err)
			assert.Equal(t, d.Name, res.Tool)
			assert.NotEmpty(t, res.Output)
		})
	}
}

func TestListIsSorted(t *testing.T) {
	r, _ := newTestRegistry(t, false)
	var names []string
	for _, d := range r.List() {
		names = append(names, d.Name)
	}
	assert.IsNonDecreasing(t, names)

	for _, d := range r.List() {
		if d.Name == "file_search" {
			assert.True(t, d.Parameters["query"].Required)
			assert.False(t, d.Parameters["search_path"].Required)
		}
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	r, _ := newTestRegistry(t, false)
	for _, name := range []string{"teleport", "", "tool:calculator"} {
		_, err := r.Execute(context.Background(), name, nil)
		assert.ErrorIs(t, err, apperrors.ErrUnknownTool, name)
	}
}

func TestExecuteMissingParameter(t *testing.T) {
	r, _ := newTestRegistry(t, false)
	_, err := r.Execute(context.Background(), "file_write", map[string]string{"content": "x"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeToolInvalidParams, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "filename")
}

func TestPrepareFillsPrimaryParameter(t *testing.T) {
	r, _ := newTestRegistry(t, false)

	p := r.Prepare("calculator", " 2 + 2 ", nil)
	assert.Equal(t, map[string]string{"expression": "2 + 2"}, p)

	p = r.Prepare("calculator", "ignored", map[string]string{"expression": "3 * 3"})
	assert.Equal(t, "3 * 3", p["expression"])

	p = r.Prepare("system_info", "what system is this", nil)
	assert.Empty(t, p)

	in := map[string]string{"query": "x"}
	p = r.Prepare("file_search", "y", in)
	p["query"] = "changed"
	assert.Equal(t, "x", in["query"])
}

func TestCalculatorModes(t *testing.T) {
	r, _ := newTestRegistry(t, false)
	res, err := r.Execute(context.Background(), "calculator", map[string]string{"expression": "2 * 3"})
	require.NoError(t, err)
	assert.Equal(t, "Calculation result: 6", res.Output)

	r, _ = newTestRegistry(t, true)
	res, err = r.Execute(context.Background(), "calculator", map[string]string{"expression": "2 * 3"})
	require.NoError(t, err)
	assert.Equal(t, executor.PlaceholderCalculation, res.Output)
}

func TestOCROmittedWithoutExtractor(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	r.Initialize(Options{OutputDir: t.TempDir()})
	assert.False(t, r.Has("ocr"))
	assert.True(t, r.Has("read_file"))
}
