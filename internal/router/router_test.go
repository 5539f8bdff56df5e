package router

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/deskai/deskai/internal/classifier"
	apperrors "github.com/deskai/deskai/internal/errors"
	"github.com/deskai/deskai/internal/model"
	"github.com/deskai/deskai/internal/search"
	"github.com/deskai/deskai/internal/tools"
	"github.com/deskai/deskai/pkg/protocol"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type generateCall struct {
	prompt, model string
	timeout       time.Duration
}

type fakeGenerator struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []generateCall
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt, model string, timeout time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, generateCall{prompt, model, timeout})
	return f.reply, f.err
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type routerFixture struct {
	router *Router
	gen    *fakeGenerator
}

func newRouter(t *testing.T, cfg Config, gen *fakeGenerator) routerFixture {
	t.Helper()
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "llama3"
	}
	reg := tools.NewRegistry(zerolog.Nop())
	reg.Initialize(tools.Options{
		OutputDir:        t.TempDir(),
		Search:           search.NewEngine(search.Options{}),
		SearchMaxDepth:   2,
		SearchMaxResults: 10,
	})
	return routerFixture{
		router: New(cfg, gen, reg, model.DefaultCatalog(), classifier.NewClassifier(nil), zerolog.Nop()),
		gen:    gen,
	}
}

func TestDecide(t *testing.T) {
	f := newRouter(t, Config{}, &fakeGenerator{})

	tests := []struct {
		name   string
		query  protocol.Query
		kind   TargetKind
		target string
	}{
		{"no hint uses default", protocol.Query{Text: "hi"}, TargetModel, "llama3"},
		{"model hint", protocol.Query{Text: "hi", ModelHint: "mistral"}, TargetModel, "mistral"},
		{"latest tag", protocol.Query{Text: "hi", ModelHint: "mistral:latest"}, TargetModel, "mistral"},
		{"bare tool hint", protocol.Query{Text: "2+2", ModelHint: "calculator"}, TargetTool, "calculator"},
		{"prefixed tool hint", protocol.Query{Text: "2+2", ModelHint: "tool:calculator"}, TargetTool, "calculator"},
		{"alias", protocol.Query{Text: "/x", ModelHint: "read_file"}, TargetTool, "read_file"},
		{"whitespace hint", protocol.Query{Text: "hi", ModelHint: "  "}, TargetModel, "llama3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := f.router.Decide(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, d.Kind)
			assert.Equal(t, tt.target, d.Target)
		})
	}
}

func TestDecideUnknownHint(t *testing.T) {
	f := newRouter(t, Config{}, &fakeGenerator{})

	for _, hint := range []string{"gpt-4", "tool:teleport"} {
		t.Run(hint, func(t *testing.T) {
			d, err := f.router.Decide(context.Background(), protocol.Query{Text: "hi", ModelHint: hint})
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrRouting)

			var re *RoutingError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, apperrors.CodeUnknownRoute, re.Code())
			assert.Equal(t, "llama3", d.Route())
		})
	}

	_, err := f.router.Decide(context.Background(), protocol.Query{ModelHint: "tool:teleport"})
	assert.ErrorIs(t, err, apperrors.ErrUnknownTool)
}

func TestDecideClassifies(t *testing.T) {
	f := newRouter(t, Config{Classify: true}, &fakeGenerator{})

	d, err := f.router.Decide(context.Background(), protocol.Query{Text: "Write a function in Go that parses JSON"})
	require.NoError(t, err)
	assert.Equal(t, "dolphin-mixtral", d.Target)
	assert.Contains(t, d.Reason, "coding")

	d, err = f.router.Decide(context.Background(), protocol.Query{Text: "hello there"})
	require.NoError(t, err)
	assert.Equal(t, "llama3", d.Target)

	// An explicit hint wins over classification.
	d, err = f.router.Decide(context.Background(), protocol.Query{Text: "Write a function", ModelHint: "phi3:mini"})
	require.NoError(t, err)
	assert.Equal(t, "phi3:mini", d.Target)
}

func TestRouteModel(t *testing.T) {
	gen := &fakeGenerator{reply: "Paris"}
	f := newRouter(t, Config{Timeout: time.Minute}, gen)

	env, err := f.router.Route(context.Background(), protocol.Query{Text: "Capital of France?", ModelHint: "mistral"})
	require.NoError(t, err)
	assert.Equal(t, protocol.Envelope{Result: "Paris", Route: "mistral", ToolsUsed: []string{}, Deterministic: false}, env)
	require.Len(t, gen.calls, 1)
	assert.Equal(t, generateCall{"Capital of France?", "mistral", time.Minute}, gen.calls[0])
}

type fakeLister struct {
	list  model.ModelList
	calls int
}

func (l *fakeLister) ListModels(ctx context.Context) model.ModelList {
	l.calls++
	return l.list
}

func TestRouteInstalledModel(t *testing.T) {
	gen := &fakeGenerator{reply: "hi from 3.1"}
	f := newRouter(t, Config{}, gen)
	lister := &fakeLister{list: model.ModelList{
		Models: []string{"llama3.1:8b", "qwen2.5:latest"},
		Source: model.SourceLive,
	}}
	f.router.WithModelLister(lister)

	env := f.router.Handle(context.Background(), protocol.Query{Text: "hello", ModelHint: "llama3.1:8b"})
	assert.Equal(t, protocol.Envelope{Result: "hi from 3.1", Route: "llama3.1:8b", ToolsUsed: []string{}, Deterministic: false}, env)
	require.Len(t, gen.calls, 1)
	assert.Equal(t, "llama3.1:8b", gen.calls[0].model)

	d, err := f.router.Decide(context.Background(), protocol.Query{Text: "x", ModelHint: "qwen2.5"})
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5", d.Target)

	// Catalog hits never list.
	calls := lister.calls
	_, err = f.router.Decide(context.Background(), protocol.Query{Text: "x", ModelHint: "mistral"})
	require.NoError(t, err)
	assert.Equal(t, calls, lister.calls)

	_, err = f.router.Decide(context.Background(), protocol.Query{Text: "x", ModelHint: "gpt-4"})
	assert.ErrorIs(t, err, apperrors.ErrRouting)
}

func TestInstalledModelNeedsLiveListing(t *testing.T) {
	f := newRouter(t, Config{}, &fakeGenerator{})
	lister := &fakeLister{list: model.ModelList{Models: []string{"llama3.1:8b"}, Source: model.SourceFallback}}
	f.router.WithModelLister(lister)

	_, err := f.router.Decide(context.Background(), protocol.Query{Text: "x", ModelHint: "llama3.1:8b"})
	assert.ErrorIs(t, err, apperrors.ErrRouting)

	offline := newRouter(t, Config{Offline: true}, &fakeGenerator{})
	lister = &fakeLister{list: model.ModelList{Models: []string{"llama3.1:8b"}, Source: model.SourceLive}}
	offline.router.WithModelLister(lister)
	_, err = offline.router.Decide(context.Background(), protocol.Query{Text: "x", ModelHint: "llama3.1:8b"})
	assert.ErrorIs(t, err, apperrors.ErrRouting)
	assert.Zero(t, lister.calls)
}

func TestRouteTool(t *testing.T) {
	gen := &fakeGenerator{}
	f := newRouter(t, Config{}, gen)

	env, err := f.router.Route(context.Background(), protocol.Query{Text: "6 * 7", ModelHint: "calculator"})
	require.NoError(t, err)
	assert.Equal(t, "Calculation result: 42", env.Result)
	assert.Equal(t, "tool:calculator", env.Route)
	assert.Equal(t, []string{"calculator"}, env.ToolsUsed)
	assert.True(t, env.Deterministic)

	env, err = f.router.Route(context.Background(), protocol.Query{
		Text:       "ignored",
		ModelHint:  "tool:calculator",
		Parameters: map[string]string{"expression": "1 + 1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Calculation result: 2", env.Result)

	env, err = f.router.Route(context.Background(), protocol.Query{ModelHint: "system_info"})
	require.NoError(t, err)
	assert.Contains(t, env.Result, "System: ")

	assert.Zero(t, gen.callCount(), "tool routes never call the inference service")
}

func TestRouteDeterminism(t *testing.T) {
	t.Run("backend invoked", func(t *testing.T) {
		f := newRouter(t, Config{}, &fakeGenerator{reply: "ok"})
		env, err := f.router.Route(context.Background(), protocol.Query{Text: "hi"})
		require.NoError(t, err)
		assert.False(t, env.Deterministic)
	})

	t.Run("offline mode", func(t *testing.T) {
		gen := &fakeGenerator{reply: "ok"}
		f := newRouter(t, Config{Offline: true}, gen)
		env, err := f.router.Route(context.Background(), protocol.Query{Text: "hi"})
		require.NoError(t, err)
		assert.True(t, env.Deterministic)
		assert.Equal(t, "[offline:llama3] hi", env.Result)
		assert.Equal(t, "llama3", env.Route)
		assert.Empty(t, env.ToolsUsed)
		assert.Zero(t, gen.callCount())
	})

	t.Run("offline fallback on unreachable backend", func(t *testing.T) {
		gen := &fakeGenerator{err: apperrors.BackendUnavailable(io.EOF)}
		f := newRouter(t, Config{OfflineFallback: true}, gen)
		env, err := f.router.Route(context.Background(), protocol.Query{Text: "hi", ModelHint: "mistral"})
		require.NoError(t, err)
		assert.True(t, env.Deterministic)
		assert.Equal(t, "[offline:mistral] hi", env.Result)
		assert.Equal(t, 1, gen.callCount())
	})

	t.Run("no fallback for protocol errors", func(t *testing.T) {
		gen := &fakeGenerator{err: apperrors.BackendProtocol("bad json", nil)}
		f := newRouter(t, Config{OfflineFallback: true}, gen)
		_, err := f.router.Route(context.Background(), protocol.Query{Text: "hi"})
		assert.ErrorIs(t, err, apperrors.ErrBackendProtocol)
	})
}

func TestRouteErrors(t *testing.T) {
	gen := &fakeGenerator{err: apperrors.BackendUnavailable(errors.New("connection refused"))}
	f := newRouter(t, Config{}, gen)

	_, err := f.router.Route(context.Background(), protocol.Query{Text: "hi", ModelHint: "mistral"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRouting)
	assert.ErrorIs(t, err, apperrors.ErrBackendUnavailable)
	var re *RoutingError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "mistral", re.Decision.Route())
	assert.Equal(t, apperrors.CodeModelUnavailable, re.Code())

	_, err = f.router.Route(context.Background(), protocol.Query{Text: "1 / 0", ModelHint: "calculator"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "tool:calculator", re.Decision.Route())

	_, err = f.router.Route(context.Background(), protocol.Query{Text: "   "})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, 1, gen.callCount())
}

func TestHandleNeverFails(t *testing.T) {
	gen := &fakeGenerator{err: apperrors.BackendUnavailable(errors.New("connection refused"))}
	f := newRouter(t, Config{}, gen)

	env := f.router.Handle(context.Background(), protocol.Query{Text: "hi", ModelHint: "mistral"})
	assert.Equal(t, "mistral", env.Route)
	assert.Empty(t, env.ToolsUsed)
	assert.Contains(t, env.Result, "not reachable")
	assert.Contains(t, env.Result, "Suggestions:")

	env = f.router.Handle(context.Background(), protocol.Query{Text: "x", ModelHint: "file_read"})
	assert.Equal(t, "tool:file_read", env.Route)
	assert.Equal(t, []string{"file_read"}, env.ToolsUsed)
	assert.Contains(t, env.Result, "FILE_NOT_FOUND")

	env = f.router.Handle(context.Background(), protocol.Query{Text: "hi", ModelHint: "gpt-4"})
	assert.Equal(t, "llama3", env.Route)
	assert.Contains(t, env.Result, "UNKNOWN_ROUTE")

	env = f.router.Handle(context.Background(), protocol.Query{})
	assert.Equal(t, "llama3", env.Route)
	assert.Contains(t, env.Result, "must not be empty")
}

func TestRoutesAreRegistered(t *testing.T) {
	catalog := model.DefaultCatalog()
	gen := &fakeGenerator{reply: "ok"}
	f := newRouter(t, Config{Classify: true}, gen)

	queries := []protocol.Query{
		{Text: "hello"},
		{Text: "Tell me a story about a robot"},
		{Text: "hi", ModelHint: "unknown-model"},
		{Text: "2+2", ModelHint: "calculator"},
		{Text: "x", ModelHint: "tool:nope"},
		{ModelHint: "calendar"},
	}
	for _, q := range queries {
		env := f.router.Handle(context.Background(), q)
		if name, ok := protocol.ParseToolRoute(env.Route); ok {
			assert.True(t, f.router.tools.Has(name), env.Route)
			assert.NotEmpty(t, env.ToolsUsed)
		} else {
			assert.True(t, catalog.Has(env.Route), env.Route)
			assert.Empty(t, env.ToolsUsed)
		}
	}
}

func TestRouteConcurrent(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	f := newRouter(t, Config{}, gen)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q := protocol.Query{Text: "hi"}
			if i%2 == 0 {
				q = protocol.Query{Text: "1+1", ModelHint: "calculator"}
			}
			env := f.router.Handle(context.Background(), q)
			assert.NotEmpty(t, env.Result)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, gen.callCount())
}
