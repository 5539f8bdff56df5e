// Package router decides whether a query goes to a local model or a local
// tool, dispatches it, and builds the response envelope.
package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deskai/deskai/internal/classifier"
	apperrors "github.com/deskai/deskai/internal/errors"
	"github.com/deskai/deskai/internal/model"
	"github.com/deskai/deskai/internal/tools/executor"
	"github.com/deskai/deskai/pkg/protocol"
)

// Generator produces text from a local model.
type Generator interface {
	Generate(ctx context.Context, prompt, model string, timeout time.Duration) (string, error)
}

// ToolExecutor runs registered tools.
type ToolExecutor interface {
	Has(name string) bool
	Prepare(name, text string, params map[string]string) map[string]string
	Execute(ctx context.Context, name string, params map[string]string) (*executor.Result, error)
}

// Catalog is the read-only set of known models.
type Catalog interface {
	Has(id string) bool
	WithCapability(capability string) (protocol.ModelDescriptor, bool)
}

// ModelLister reports the models the inference service has installed.
type ModelLister interface {
	ListModels(ctx context.Context) model.ModelList
}

// Classifier maps free text to a model capability.
type Classifier interface {
	Classify(text string) classifier.Intent
}

// Config configures the router.
type Config struct {
	DefaultModel    string
	Classify        bool
	Offline         bool          // never call the inference service
	OfflineFallback bool          // echo when the inference service is unreachable
	Timeout         time.Duration // generation timeout; zero leaves it to the generator
}

// Router is stateless per call and safe for concurrent use.
type Router struct {
	cfg        Config
	gen        Generator
	tools      ToolExecutor
	catalog    Catalog
	classifier Classifier
	models     ModelLister
	logger     zerolog.Logger
}

// New creates a router. cls may be nil when classification is disabled.
func New(cfg Config, gen Generator, tools ToolExecutor, catalog Catalog, cls Classifier, logger zerolog.Logger) *Router {
	return &Router{
		cfg:        cfg,
		gen:        gen,
		tools:      tools,
		catalog:    catalog,
		classifier: cls,
		logger:     logger.With().Str("component", "router").Logger(),
	}
}

// WithModelLister lets model hints outside the catalog match the models
// the inference service reports as installed.
func (r *Router) WithModelLister(l ModelLister) *Router {
	r.models = l
	return r
}

// DefaultModel returns the configured fallback model id.
func (r *Router) DefaultModel() string {
	return r.cfg.DefaultModel
}

// Decide picks the target for q. The only backend call it may make is the
// model listing, for hints that are not in the catalog.
func (r *Router) Decide(ctx context.Context, q protocol.Query) (Decision, error) {
	hint := strings.TrimSpace(q.ModelHint)

	if hint != "" {
		name, prefixed := protocol.ParseToolRoute(hint)
		if !prefixed {
			name = hint
		}
		if r.tools.Has(name) {
			return Decision{Kind: TargetTool, Target: name, Reason: "tool hint"}, nil
		}
		if prefixed {
			return r.unknownRoute(hint, apperrors.UnknownTool(name))
		}

		if r.catalog.Has(hint) {
			return Decision{Kind: TargetModel, Target: hint, Reason: "model hint"}, nil
		}
		if base := strings.TrimSuffix(hint, ":latest"); base != hint && r.catalog.Has(base) {
			return Decision{Kind: TargetModel, Target: base, Reason: "model hint"}, nil
		}
		if r.installed(ctx, hint) {
			return Decision{Kind: TargetModel, Target: hint, Reason: "installed model"}, nil
		}
		return r.unknownRoute(hint, nil)
	}

	if r.cfg.Classify && r.classifier != nil {
		intent := r.classifier.Classify(q.Text)
		if m, ok := r.catalog.WithCapability(intent.Capability); ok {
			return Decision{Kind: TargetModel, Target: m.ID, Reason: "classified as " + intent.String()}, nil
		}
	}

	return Decision{Kind: TargetModel, Target: r.cfg.DefaultModel, Reason: "default model"}, nil
}

// installed reports whether the inference service lists id. Offline
// routers never ask.
func (r *Router) installed(ctx context.Context, id string) bool {
	if r.models == nil || r.cfg.Offline {
		return false
	}
	list := r.models.ListModels(ctx)
	if list.Source != model.SourceLive {
		return false
	}
	for _, name := range list.Models {
		if name == id || name == id+":latest" {
			return true
		}
	}
	return false
}

func (r *Router) unknownRoute(hint string, cause error) (Decision, error) {
	err := apperrors.NewBuilder(apperrors.CodeUnknownRoute, fmt.Sprintf("no model or tool named %q", hint)).
		User().
		Wrap(cause).
		WithContext("hint", hint).
		WithSuggestion("List models with `deskai models` and tools with `deskai tools`").
		Build()
	fallback := Decision{Kind: TargetModel, Target: r.cfg.DefaultModel, Reason: "unknown hint"}
	return fallback, &RoutingError{Decision: fallback, Err: err}
}

// Route decides and dispatches q. Failures are *RoutingError values that
// carry the decision.
func (r *Router) Route(ctx context.Context, q protocol.Query) (protocol.Envelope, error) {
	d, err := r.Decide(ctx, q)
	if err != nil {
		return protocol.Envelope{}, err
	}

	log := r.logger.With().Str("route", d.Route()).Str("reason", d.Reason).Logger()
	log.Debug().Msg("routing query")

	if d.Kind == TargetTool {
		params := r.tools.Prepare(d.Target, q.Text, q.Parameters)
		res, err := r.tools.Execute(ctx, d.Target, params)
		if err != nil {
			log.Info().Err(err).Msg("tool failed")
			return protocol.Envelope{}, &RoutingError{Decision: d, Err: err}
		}
		return protocol.Envelope{
			Result:        res.Output,
			Route:         d.Route(),
			ToolsUsed:     d.ToolsUsed(),
			Deterministic: true,
		}, nil
	}

	text := strings.TrimSpace(q.Text)
	if text == "" {
		return protocol.Envelope{}, &RoutingError{Decision: d, Err: apperrors.InvalidInput("query must not be empty")}
	}

	if r.cfg.Offline {
		return r.offline(d, text), nil
	}

	out, err := r.gen.Generate(ctx, text, d.Target, r.cfg.Timeout)
	if err != nil {
		if r.cfg.OfflineFallback && apperrors.Is(err, apperrors.ErrBackendUnavailable) {
			log.Warn().Err(err).Msg("inference service unavailable, answering offline")
			return r.offline(d, text), nil
		}
		log.Info().Err(err).Msg("generation failed")
		return protocol.Envelope{}, &RoutingError{Decision: d, Err: err}
	}

	return protocol.Envelope{
		Result:        out,
		Route:         d.Route(),
		ToolsUsed:     d.ToolsUsed(),
		Deterministic: false,
	}, nil
}

// offline returns the canned echo used when the inference service is not
// consulted.
func (r *Router) offline(d Decision, text string) protocol.Envelope {
	return protocol.Envelope{
		Result:        OfflineEcho(d.Target, text),
		Route:         d.Route(),
		ToolsUsed:     d.ToolsUsed(),
		Deterministic: true,
	}
}

// OfflineEcho is the canned reply for model routes that skip inference.
func OfflineEcho(model, text string) string {
	return fmt.Sprintf("[offline:%s] %s", model, text)
}

// Handle routes q and never fails: errors become a message in the envelope,
// routed where the query was headed.
func (r *Router) Handle(ctx context.Context, q protocol.Query) protocol.Envelope {
	env, err := r.Route(ctx, q)
	if err != nil {
		return r.ErrorEnvelope(err)
	}
	return env
}

// ErrorEnvelope converts a Route failure into a user-facing envelope.
func (r *Router) ErrorEnvelope(err error) protocol.Envelope {
	d := Decision{Kind: TargetModel, Target: r.cfg.DefaultModel}
	cause := err

	var re *RoutingError
	if apperrors.As(err, &re) {
		d = re.Decision
		cause = re.Err
	}

	return protocol.Envelope{
		Result:        "Error: " + apperrors.FormatUserMessage(cause),
		Route:         d.Route(),
		ToolsUsed:     d.ToolsUsed(),
		Deterministic: true,
	}
}
