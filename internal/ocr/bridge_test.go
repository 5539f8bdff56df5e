package ocr

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	apperrors "github.com/deskai/deskai/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeTool writes an executable shell script named tesseract into dir.
func fakeTool(t *testing.T, dir, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake OCR tools are shell scripts")
	}
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "tesseract")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func fakeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(path, []byte("not really a png"), 0o644))
	return path
}

type fixture struct {
	bridge  *Bridge
	tempDir string
}

func newFixture(t *testing.T, script string) fixture {
	t.Helper()
	bundled := t.TempDir()
	fakeTool(t, bundled, script)
	tmp := t.TempDir()
	return fixture{
		bridge: NewBridge(Config{
			Command:    "tesseract",
			BundledDir: bundled,
			FixedPaths: []string{},
			Timeout:    5 * time.Second,
			TempDir:    tmp,
		}, zerolog.Nop()),
		tempDir: tmp,
	}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtractText(t *testing.T) {
	f := newFixture(t, `printf 'Invoice #42\nTotal: 10.00\n' > "$2.txt"`)

	text, err := f.bridge.ExtractText(context.Background(), fakeImage(t))
	require.NoError(t, err)
	assert.Equal(t, "Invoice #42\nTotal: 10.00", text)
	assertEmptyDir(t, f.tempDir)
}

func TestExtractTextPassesImageAndBase(t *testing.T) {
	f := newFixture(t, `printf '%s|%s' "$1" "$(basename "$2")" > "$2.txt"`)
	image := fakeImage(t)

	text, err := f.bridge.ExtractText(context.Background(), image)
	require.NoError(t, err)
	assert.Contains(t, text, image+"|deskai-ocr-")
}

func TestExtractTextWhitespaceOnly(t *testing.T) {
	f := newFixture(t, `printf '  \n\t \n' > "$2.txt"`)

	text, err := f.bridge.ExtractText(context.Background(), fakeImage(t))
	require.NoError(t, err)
	assert.Equal(t, NoTextMessage, text)
	assertEmptyDir(t, f.tempDir)
}

func TestExtractTextFailureCleansUp(t *testing.T) {
	f := newFixture(t, `printf 'partial' > "$2.txt"
echo 'Error in pixReadStream' >&2
exit 1`)

	_, err := f.bridge.ExtractText(context.Background(), fakeImage(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrOcrExecution)
	assert.Contains(t, err.Error(), "pixReadStream")
	assertEmptyDir(t, f.tempDir)
}

func TestExtractTextNoOutputFile(t *testing.T) {
	f := newFixture(t, `exit 0`)

	_, err := f.bridge.ExtractText(context.Background(), fakeImage(t))
	assert.ErrorIs(t, err, apperrors.ErrOcrExecution)
	assertEmptyDir(t, f.tempDir)
}

func TestExtractTextTimeout(t *testing.T) {
	f := newFixture(t, `printf 'partial' > "$2.txt"
exec sleep 10`)
	f.bridge.cfg.Timeout = 100 * time.Millisecond

	start := time.Now()
	_, err := f.bridge.ExtractText(context.Background(), fakeImage(t))
	assert.ErrorIs(t, err, apperrors.ErrOcrExecution)
	assert.Less(t, time.Since(start), 5*time.Second)
	assertEmptyDir(t, f.tempDir)
}

func TestExtractTextMissingImage(t *testing.T) {
	f := newFixture(t, `exit 0`)

	_, err := f.bridge.ExtractText(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	assert.ErrorIs(t, err, apperrors.ErrIO)
	assertEmptyDir(t, f.tempDir)
}

func TestToolMissing(t *testing.T) {
	tmp := t.TempDir()
	b := NewBridge(Config{
		Command:    "deskai-no-such-ocr-tool",
		BundledDir: filepath.Join(t.TempDir(), "bin"),
		FixedPaths: []string{filepath.Join(t.TempDir(), "tesseract")},
		TempDir:    tmp,
	}, zerolog.Nop())

	_, err := b.ExtractText(context.Background(), fakeImage(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrOcrToolMissing)
	assertEmptyDir(t, tmp)
}

func TestResolveOrder(t *testing.T) {
	bundled := t.TempDir()
	fixedDir := t.TempDir()
	fixed := fakeTool(t, fixedDir, "exit 0")

	b := NewBridge(Config{
		Command:    "tesseract",
		BundledDir: bundled,
		FixedPaths: []string{fixed},
	}, zerolog.Nop())

	exe, err := b.Resolve()
	require.NoError(t, err)
	assert.Equal(t, fixed, exe)

	inBundle := fakeTool(t, bundled, "exit 0")
	exe, err = b.Resolve()
	require.NoError(t, err)
	assert.Equal(t, inBundle, exe)
}

func TestResolveIgnoresNonExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no exec bit on windows")
	}
	bundled := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bundled, "deskai-no-such-ocr-tool"), []byte("data"), 0o644))

	b := NewBridge(Config{
		Command:    "deskai-no-such-ocr-tool",
		BundledDir: bundled,
		FixedPaths: []string{},
	}, zerolog.Nop())

	_, err := b.Resolve()
	assert.ErrorIs(t, err, apperrors.ErrOcrToolMissing)
}
