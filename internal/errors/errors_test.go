package errors

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelsMatchByKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"backend unavailable", BackendUnavailable(io.EOF), ErrBackendUnavailable},
		{"backend protocol", BackendProtocol("bad json", nil), ErrBackendProtocol},
		{"unknown tool", UnknownTool("nope"), ErrUnknownTool},
		{"file not found", IO(CodeFileNotFound, "/x", nil), ErrIO},
		{"access denied", IO(CodeFileAccessDenied, "/x", nil), ErrIO},
		{"ocr missing", OcrToolMissing(nil), ErrOcrToolMissing},
		{"ocr failed", OcrExecution("boom", io.EOF), ErrOcrExecution},
		{"invalid params", InvalidParams("calculator", "bad"), ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, Is(tt.err, tt.sentinel))
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, Is(wrapped, tt.sentinel))
		})
	}

	assert.False(t, Is(UnknownTool("x"), ErrIO))
}

func TestWrapKeepsInnerChain(t *testing.T) {
	inner := BackendUnavailable(io.ErrUnexpectedEOF)
	outer := NewBuilder(CodeRoutingFailed, "route failed").Wrap(inner).Build()

	assert.True(t, Is(outer, ErrRouting))
	assert.True(t, Is(outer, ErrBackendUnavailable))
	assert.True(t, Is(outer, io.ErrUnexpectedEOF))
	assert.Equal(t, CodeRoutingFailed, GetCode(outer))
}

func TestFormatUserMessage(t *testing.T) {
	msg := FormatUserMessage(OcrToolMissing([]string{"/usr/bin/tesseract"}))
	assert.Contains(t, msg, "No OCR executable found")
	assert.Contains(t, msg, "Suggestions:")
	assert.Contains(t, msg, "Install Tesseract OCR")

	assert.Equal(t, "plain", FormatUserMessage(fmt.Errorf("plain")))
	assert.Empty(t, FormatUserMessage(nil))
}

func TestDoWithResultRetriesOnlyMatchingErrors(t *testing.T) {
	policy := ProbePolicy()
	policy.InitialDelay = time.Millisecond
	policy.Jitter = false

	calls := 0
	_, err := DoWithResult(context.Background(), policy, func() (int, error) {
		calls++
		return 0, BackendUnavailable(io.EOF)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, Is(err, ErrBackendUnavailable))

	calls = 0
	_, err = DoWithResult(context.Background(), policy, func() (int, error) {
		calls++
		return 0, BackendProtocol("bad", nil)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoWithResultSucceedsAfterRetry(t *testing.T) {
	policy := &Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1, RetryIf: IsRetryable}

	calls := 0
	got, err := DoWithResult(context.Background(), policy, func() (string, error) {
		calls++
		if calls < 2 {
			return "", BackendUnavailable(io.EOF)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, calls)
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := &Policy{MaxAttempts: 5, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 1, RetryIf: IsRetryable}
	err := Do(ctx, policy, func() error { return BackendUnavailable(io.EOF) })
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
