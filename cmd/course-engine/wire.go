// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/course-engine/internal/agent"
	"github.com/pdiddy/course-engine/internal/container"
	"github.com/pdiddy/course-engine/internal/library"
	"github.com/pdiddy/course-engine/internal/llm"
	"github.com/pdiddy/course-engine/internal/logging"
	"github.com/pdiddy/course-engine/internal/modes"
	"github.com/pdiddy/course-engine/internal/pdf"
	"github.com/pdiddy/course-engine/internal/websearch"
	"github.com/pdiddy/course-engine/pkg/types"
)

// pipeline holds everything a generate or serve run needs. close releases
// the library database.
type pipeline struct {
	orchestrator *agent.CourseOrchestrator
	log          *logging.Logger
	close        func()
}

// channelSwitches turns channels off for the whole run.
type channelSwitches struct {
	noLibrary bool
	noWeb     bool
	noPDF     bool
	dryRun    bool
}

// buildPipeline wires the provider, catalog, agent and every enrichment
// channel from cfg. A channel that cannot be built is logged as a warning
// and left out; the outline is still generated without it.
func buildPipeline(ctx context.Context, cfg types.Config, sw channelSwitches, logger *logging.Logger) (*pipeline, error) {
	aiCfg := cfg.AI
	if sw.dryRun {
		aiCfg.Provider = types.ProviderTemplate
	}
	provider, err := llm.New(ctx, aiCfg)
	if err != nil {
		return nil, err
	}

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	a := agent.NewModuleCreationAgent(provider, catalog, logger,
		agent.WithGeneration(aiCfg.Temperature, aiCfg.MaxTokens),
		agent.WithPDFChunkSize(cfg.PDF.ChunkSize))
	orch := agent.NewCourseOrchestrator(a, logger)

	closeFn := func() {}
	if !sw.noLibrary {
		store, err := library.NewStore(cfg.Library)
		if err != nil {
			logger.Warn("library unavailable", "error", err)
		} else {
			orch.Retriever = store
			closeFn = func() { store.Close() }
		}
	}

	if !sw.noWeb && !sw.dryRun {
		searcher, err := buildSearcher(cfg.WebSearch, logger)
		if err != nil {
			logger.Warn("web search unavailable", "error", err)
		} else {
			orch.Web = searcher
		}
	}

	if !sw.noPDF {
		orch.PDF = buildExtractor(ctx, cfg.PDF, logger)
	}

	return &pipeline{
		orchestrator: orch,
		log:          logger,
		close: func() {
			closeFn()
			logger.Sync()
		},
	}, nil
}

// newLogger builds the run's logger from the log_mode setting.
func newLogger(cfg types.Config) (*logging.Logger, error) {
	return logging.New(cfg.LogMode)
}

func loadCatalog(path string) (*modes.Catalog, error) {
	if path == "" {
		return modes.DefaultCatalog(), nil
	}
	return modes.LoadCatalog(path)
}

// buildSearcher constructs the configured backends with a shared HTTP client.
// Backend warnings go to logger.
func buildSearcher(cfg types.WebSearchConfig, logger *logging.Logger) (*websearch.Searcher, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	backends, err := websearch.NewBackends(cfg, client)
	if err != nil {
		return nil, err
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("no web search backends configured")
	}

	s := &websearch.Searcher{
		Backends: backends,
		Config:   cfg,
		Log:      logger.With("component", "websearch").WarnWriter(),
	}
	if cfg.Enrich {
		s.Enricher = &websearch.Enricher{Client: client, UserAgent: cfg.UserAgent}
	}
	return s, nil
}

// buildExtractor returns an extractor that always handles text files and
// handles PDFs when a container runtime with the markitdown image is present.
func buildExtractor(ctx context.Context, cfg types.PDFConfig, logger *logging.Logger) *pdf.AutoExtractor {
	ex := &pdf.AutoExtractor{MaxChars: cfg.MaxChars}

	rt, err := container.DetectRuntime(ctx)
	if err != nil {
		logger.Warn("PDF extraction limited to text files", "error", err)
		return ex
	}
	md, err := pdf.NewMarkitdownExtractor(ctx, rt, cfg.Image)
	if err != nil {
		logger.Warn("PDF extraction limited to text files", "runtime", rt.Name(), "error", err)
		return ex
	}
	ex.PDF = md
	return ex
}
