// Package ocr runs an external Tesseract-compatible executable to pull text
// out of images.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "github.com/deskai/deskai/internal/errors"
)

// NoTextMessage is returned when the tool finds nothing but whitespace.
const NoTextMessage = "No text detected in image"

// Config configures the bridge.
type Config struct {
	Command    string        // bare name resolved on PATH, or an absolute path
	BundledDir string        // directory shipped with the application
	FixedPaths []string      // well-known install locations; nil uses DefaultFixedPaths
	Timeout    time.Duration // per-invocation limit
	TempDir    string        // where <base>.txt is written; empty uses os.TempDir
}

// DefaultFixedPaths returns the install locations probed after the bundled
// binary.
func DefaultFixedPaths() []string {
	if runtime.GOOS == "windows" {
		return []string{
			`C:\Program Files\Tesseract-OCR\tesseract.exe`,
			`C:\Program Files (x86)\Tesseract-OCR\tesseract.exe`,
		}
	}
	return []string{
		"/usr/bin/tesseract",
		"/usr/local/bin/tesseract",
		"/opt/homebrew/bin/tesseract",
	}
}

// Bridge locates and invokes the OCR executable.
type Bridge struct {
	cfg    Config
	logger zerolog.Logger
}

// NewBridge creates a bridge.
func NewBridge(cfg Config, logger zerolog.Logger) *Bridge {
	if cfg.Command == "" {
		cfg.Command = "tesseract"
	}
	if cfg.FixedPaths == nil {
		cfg.FixedPaths = DefaultFixedPaths()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Bridge{
		cfg:    cfg,
		logger: logger.With().Str("component", "ocr").Logger(),
	}
}

// Resolve returns the executable to run, trying the bundled binary, then
// the fixed install paths, then the command on PATH.
func (b *Bridge) Resolve() (string, error) {
	var searched []string

	if b.cfg.BundledDir != "" {
		name := filepath.Base(b.cfg.Command)
		if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
			name += ".exe"
		}
		p := filepath.Join(b.cfg.BundledDir, name)
		searched = append(searched, p)
		if isExecutable(p) {
			return p, nil
		}
	}

	for _, p := range b.cfg.FixedPaths {
		searched = append(searched, p)
		if isExecutable(p) {
			return p, nil
		}
	}

	searched = append(searched, b.cfg.Command)
	if p, err := exec.LookPath(b.cfg.Command); err == nil {
		return p, nil
	}

	return "", apperrors.OcrToolMissing(searched)
}

// ExtractText runs OCR on imagePath. The temporary output file is removed
// on every exit path.
func (b *Bridge) ExtractText(ctx context.Context, imagePath string) (string, error) {
	exe, err := b.Resolve()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(imagePath); err != nil {
		if os.IsNotExist(err) {
			return "", apperrors.IO(apperrors.CodeFileNotFound, imagePath, err)
		}
		return "", apperrors.IO(apperrors.CodeFileReadFailed, imagePath, err)
	}

	tmp := b.cfg.TempDir
	if tmp == "" {
		tmp = os.TempDir()
	}
	base := filepath.Join(tmp, "deskai-ocr-"+uuid.NewString())
	outFile := base + ".txt"
	defer func() {
		if err := os.Remove(outFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			b.logger.Warn().Err(err).Str("file", outFile).Msg("failed to remove OCR output")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, exe, imagePath, base)
	cmd.Stderr = &stderr
	cmd.WaitDelay = 2 * time.Second

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		b.logger.Warn().Err(err).Str("exe", exe).Msg("OCR failed")
		return "", apperrors.OcrExecution(stderr.String(), err)
	}
	b.logger.Debug().Str("exe", exe).Dur("duration", time.Since(start)).Msg("OCR completed")

	data, err := os.ReadFile(outFile)
	if err != nil {
		return "", apperrors.OcrExecution("no output file produced", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return NoTextMessage, nil
	}
	return text, nil
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
