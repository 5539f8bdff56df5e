package history

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour).Truncate(time.Millisecond)

	first, err := s.Record(ctx, Interaction{
		Query:         "6 * 7",
		ModelHint:     "calculator",
		Route:         "tool:calculator",
		ToolsUsed:     []string{"calculator"},
		Deterministic: true,
		Result:        "Calculation result: 42",
		DurationMs:    3,
		CreatedAt:     base,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	_, err = s.Record(ctx, Interaction{
		Query:      "hello",
		Route:      "llama3",
		Result:     "Error: unreachable",
		Error:      "MODEL_UNAVAILABLE",
		DurationMs: 12,
		CreatedAt:  base.Add(time.Minute),
	})
	require.NoError(t, err)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "hello", got[0].Query)
	assert.Equal(t, "", got[0].ModelHint)
	assert.Equal(t, []string{}, got[0].ToolsUsed)
	assert.Equal(t, "MODEL_UNAVAILABLE", got[0].Error)
	assert.False(t, got[0].Deterministic)

	assert.Equal(t, first.ID, got[1].ID)
	assert.Equal(t, []string{"calculator"}, got[1].ToolsUsed)
	assert.True(t, got[1].Deterministic)
	assert.Equal(t, "calculator", got[1].ModelHint)
	assert.True(t, base.Equal(got[1].CreatedAt))

	got, err = s.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Record(context.Background(), Interaction{Query: "q", Route: "llama3"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Positive(t, s.Size())
	assert.Equal(t, path, s.Path())
}

func TestConcurrentRecord(t *testing.T) {
	s := openTestStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Record(context.Background(), Interaction{Query: "q", Route: "llama3"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(20), n)
}

func TestNilStore(t *testing.T) {
	var s *Store
	_, err := s.Record(context.Background(), Interaction{})
	assert.Error(t, err)
	assert.NoError(t, s.Close())
}
