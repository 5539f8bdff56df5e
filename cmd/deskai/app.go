package main

import (
	"fmt"

	"github.com/deskai/deskai/internal/classifier"
	"github.com/deskai/deskai/internal/config"
	apperrors "github.com/deskai/deskai/internal/errors"
	"github.com/deskai/deskai/internal/history"
	"github.com/deskai/deskai/internal/model"
	"github.com/deskai/deskai/internal/ocr"
	"github.com/deskai/deskai/internal/router"
	"github.com/deskai/deskai/internal/search"
	"github.com/deskai/deskai/internal/stats"
	"github.com/deskai/deskai/internal/tools"
	"github.com/deskai/deskai/pkg/protocol"
)

// app holds the wired components.
type app struct {
	catalog *model.Catalog
	backend *model.Client
	tools   *tools.Registry
	router  *router.Router
	stats   *stats.Collector
	history *history.Store
}

// newApp builds every component from cfg. withHistory opens the history
// database; callers must Close the app.
func newApp(cfg *config.Config, withHistory bool) (*app, error) {
	extra := make([]protocol.ModelDescriptor, 0, len(cfg.Models.Catalog))
	for _, m := range cfg.Models.Catalog {
		extra = append(extra, protocol.ModelDescriptor{
			ID:           m.ID,
			Name:         m.Name,
			Description:  m.Description,
			Capabilities: m.Capabilities,
		})
	}
	catalog := model.NewCatalog(extra...)
	if !catalog.Has(cfg.Router.DefaultModel) {
		return nil, apperrors.NewBuilder(apperrors.CodeConfigInvalid,
			fmt.Sprintf("router.default_model %q is not in the model catalog", cfg.Router.DefaultModel)).
			User().
			WithSuggestion("Add it under [[models.catalog]] or pick one from `deskai models`").
			Build()
	}

	backend := model.NewClient(&model.ClientConfig{
		BaseURL:        cfg.Inference.BaseURL,
		Timeout:        cfg.Inference.Timeout.Duration,
		StatusTimeout:  cfg.Inference.StatusTimeout.Duration,
		StrictResponse: cfg.Inference.StrictResponse,
	}, catalog, logger)

	opts := tools.Options{
		PlaceholderCalculator: config.CalculatorMode(cfg.Tools.Calculator) == config.CalculatorPlaceholder,
		OutputDir:             cfg.Paths.OutputDir,
		Search:                search.NewEngine(search.Options{FollowSymlinks: cfg.Tools.FollowSymlinks}),
		SearchMaxDepth:        cfg.Tools.SearchMaxDepth,
		SearchMaxResults:      cfg.Tools.SearchMaxResults,
		MaxReadBytes:          cfg.Tools.MaxReadBytes,
	}
	if cfg.OCR.Command != "" {
		opts.OCR = ocr.NewBridge(ocr.Config{
			Command:    cfg.OCR.Command,
			BundledDir: cfg.OCR.BundledDir,
			Timeout:    cfg.OCR.Timeout.Duration,
		}, logger)
	}
	registry := tools.NewRegistry(logger)
	registry.Initialize(opts)

	var cls router.Classifier
	if cfg.Router.Classify {
		cls = classifier.NewClassifier(nil)
	}

	rt := router.New(router.Config{
		DefaultModel:    cfg.Router.DefaultModel,
		Classify:        cfg.Router.Classify,
		Offline:         cfg.Router.Offline,
		OfflineFallback: cfg.Router.OfflineFallback,
		Timeout:         cfg.Inference.Timeout.Duration,
	}, backend, registry, catalog, cls, logger).WithModelLister(backend)

	a := &app{
		catalog: catalog,
		backend: backend,
		tools:   registry,
		router:  rt,
		stats:   stats.NewCollector(),
	}

	if withHistory {
		h, err := history.Open(cfg.Paths.HistoryDB)
		if err != nil {
			return nil, err
		}
		a.history = h
	}
	return a, nil
}

func (a *app) Close() error {
	return a.history.Close()
}
