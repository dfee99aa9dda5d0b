// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/course-engine/internal/logging"
	"github.com/pdiddy/course-engine/internal/outline"
	"github.com/pdiddy/course-engine/pkg/types"
)

// Retriever supplies reference-library documents for a request.
type Retriever interface {
	Search(ctx context.Context, req *types.CourseRequest) ([]types.RetrievedDocument, error)
}

// WebSearcher supplies web search results for a request.
type WebSearcher interface {
	Search(ctx context.Context, req *types.CourseRequest) (*types.WebSearchResults, error)
}

// PDFExtractor turns an uploaded document into text.
type PDFExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// GenerateOptions tunes a single Generate call.
type GenerateOptions struct {
	SessionID string

	// NoLibrary and NoWeb skip the corresponding channel for this call.
	NoLibrary bool
	NoWeb     bool
}

// CourseOrchestrator gathers enrichment for a request and hands the
// resulting execution context to the agent. Every channel is optional.
type CourseOrchestrator struct {
	Agent     *ModuleCreationAgent
	Retriever Retriever
	Web       WebSearcher
	PDF       PDFExtractor
	Log       *logging.Logger

	now   func() time.Time
	newID func() string
}

// NewCourseOrchestrator wires an orchestrator around agent. Channels are set
// on the returned value.
func NewCourseOrchestrator(agent *ModuleCreationAgent, logger *logging.Logger) *CourseOrchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CourseOrchestrator{
		Agent: agent,
		Log:   logger,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Generate validates req, collects context from the configured channels,
// and runs the agent. An invalid request fails before any channel is
// queried. Channel failures are logged and the channel is left empty.
func (o *CourseOrchestrator) Generate(ctx context.Context, req *types.CourseRequest, opts GenerateOptions) (*outline.Result, error) {
	if req == nil {
		return nil, &StageError{Stage: StageValidateContext, Err: ErrMissingRequest}
	}
	if err := req.Validate(); err != nil {
		return nil, &StageError{Stage: StageValidateContext, Err: err}
	}

	ec, err := o.BuildContext(ctx, req, opts)
	if err != nil {
		return nil, err
	}
	return o.Agent.Run(ctx, ec)
}

// BuildContext creates the execution context for req and fills it from the
// channels concurrently. It returns only the caller's context error.
func (o *CourseOrchestrator) BuildContext(ctx context.Context, req *types.CourseRequest, opts GenerateOptions) (*types.ExecutionContext, error) {
	ec := &types.ExecutionContext{
		ExecutionID: o.newID(),
		SessionID:   opts.SessionID,
		Request:     req,
		CreatedAt:   o.now(),
	}
	log := o.Log.With("execution_id", ec.ExecutionID, "session_id", ec.SessionID)

	// Goroutines never return an error, so one failing channel cannot
	// cancel the others.
	var g errgroup.Group
	g.SetLimit(3)

	if o.Retriever != nil && !opts.NoLibrary {
		g.Go(func() error {
			docs, err := o.Retriever.Search(ctx, req)
			if err != nil {
				log.Warn("library retrieval failed", "error", err)
				return nil
			}
			ec.RetrievedDocs = docs
			log.Debug("library retrieval", "documents", len(docs))
			return nil
		})
	}
	if o.Web != nil && !opts.NoWeb {
		g.Go(func() error {
			results, err := o.Web.Search(ctx, req)
			if err != nil {
				log.Warn("web search failed", "error", err)
				return nil
			}
			ec.WebResults = results
			if results != nil {
				log.Debug("web search", "results", len(results.Results))
			}
			return nil
		})
	}
	if o.PDF != nil && req.PDFPath != "" {
		g.Go(func() error {
			text, err := o.PDF.Extract(ctx, req.PDFPath)
			if err != nil {
				log.Warn("pdf extraction failed", "error", err)
				return nil
			}
			ec.PDFText = text
			log.Debug("pdf extraction", "chars", len(text))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ec, nil
}
