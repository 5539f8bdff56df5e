package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()
	c.RecordRequest("llama3", false, false, false, 30*time.Millisecond)
	c.RecordRequest("tool:calculator", true, true, false, 10*time.Millisecond)
	c.RecordRequest("llama3", false, true, true, 20*time.Millisecond)

	s := c.Collect(2048, "/tmp/history.db")
	assert.Equal(t, int64(3), s.RequestCount)
	assert.Equal(t, int64(1), s.ErrorCount)
	assert.Equal(t, int64(1), s.ToolRequests)
	assert.Equal(t, int64(2), s.DeterministicCount)
	assert.InDelta(t, 20.0, s.AvgLatencyMs, 0.001)
	assert.Equal(t, map[string]int64{"llama3": 2, "tool:calculator": 1}, s.Routes)
	assert.Equal(t, int64(2048), s.DBSize)
	assert.Equal(t, "/tmp/history.db", s.DBPath)
	assert.Positive(t, s.Goroutines)
}

func TestCollectReturnsSnapshot(t *testing.T) {
	c := NewCollector()
	c.RecordRequest("llama3", false, false, false, time.Millisecond)
	s := c.Collect(0, "")
	s.Routes["llama3"] = 100

	assert.Equal(t, int64(1), c.Collect(0, "").Routes["llama3"])
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				c.RecordRequest("mistral", false, false, j%2 == 0, time.Millisecond)
			}
		}()
	}
	wg.Wait()

	requests, errs, total := c.GetMetrics()
	require.Equal(t, int64(1000), requests)
	assert.Equal(t, int64(500), errs)
	assert.Equal(t, 1000*time.Millisecond, total)
	assert.InDelta(t, 1.0, c.Collect(0, "").AvgLatencyMs, 0.001)
}
