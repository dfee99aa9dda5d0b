// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent runs the outline synthesis pipeline: it turns an execution
// context into a structured, scored course outline with one model call.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/course-engine/internal/duration"
	"github.com/pdiddy/course-engine/internal/llm"
	"github.com/pdiddy/course-engine/internal/logging"
	"github.com/pdiddy/course-engine/internal/modes"
	"github.com/pdiddy/course-engine/internal/outline"
	"github.com/pdiddy/course-engine/internal/parse"
	"github.com/pdiddy/course-engine/internal/prompt"
	"github.com/pdiddy/course-engine/pkg/types"
)

// Stage names one step of the pipeline.
type Stage string

// Pipeline stages, in execution order.
const (
	StageValidateContext  Stage = "validate_context"
	StageAllocateDuration Stage = "allocate_duration"
	StageFetchTemplate    Stage = "fetch_template"
	StageAssemblePrompt   Stage = "assemble_prompt"
	StageInvokeLLM        Stage = "invoke_llm"
	StageParseResponse    Stage = "parse_response"
	StageStructureOutline Stage = "structure_outline"
	StageValidateSchema   Stage = "validate_schema"
)

// Stages lists every stage in execution order.
var Stages = []Stage{
	StageValidateContext,
	StageAllocateDuration,
	StageFetchTemplate,
	StageAssemblePrompt,
	StageInvokeLLM,
	StageParseResponse,
	StageStructureOutline,
	StageValidateSchema,
}

// ErrMissingRequest is returned when the execution context has no course request.
var ErrMissingRequest = errors.New("execution context has no course request")

// ErrNoProvider is returned when the agent was built without a model provider.
var ErrNoProvider = errors.New("no LLM provider configured")

// StageError reports the stage a pipeline run failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage recorded in err, or "" when err did not come
// from a pipeline run.
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// Option configures a ModuleCreationAgent.
type Option func(*ModuleCreationAgent)

// WithClock replaces the time source used to stamp outlines.
func WithClock(now func() time.Time) Option {
	return func(a *ModuleCreationAgent) { a.now = now }
}

// WithGeneration sets the sampling temperature and completion token cap.
func WithGeneration(temperature float64, maxTokens int) Option {
	return func(a *ModuleCreationAgent) {
		a.temperature = temperature
		a.maxTokens = maxTokens
	}
}

// WithPDFChunkSize sets the size of the reference document excerpts placed
// in the prompt.
func WithPDFChunkSize(n int) Option {
	return func(a *ModuleCreationAgent) { a.promptOpts.PDFChunkSize = n }
}

// Default sampling parameters.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 8192
)

// ModuleCreationAgent synthesizes a course outline. It holds no per-request
// state and is safe for concurrent use when its provider is.
type ModuleCreationAgent struct {
	provider    llm.Provider
	catalog     *modes.Catalog
	log         *logging.Logger
	now         func() time.Time
	temperature float64
	maxTokens   int
	promptOpts  prompt.Options
}

// NewModuleCreationAgent builds an agent. A nil catalog uses the built-in
// templates and a nil logger discards output.
func NewModuleCreationAgent(provider llm.Provider, catalog *modes.Catalog, logger *logging.Logger, opts ...Option) *ModuleCreationAgent {
	if catalog == nil {
		catalog = modes.DefaultCatalog()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	a := &ModuleCreationAgent{
		provider:    provider,
		catalog:     catalog,
		log:         logger,
		now:         func() time.Time { return time.Now().UTC() },
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes every stage once, in order. The model is called exactly once;
// there is no retry. Any failure is returned as a *StageError.
func (a *ModuleCreationAgent) Run(ctx context.Context, ec *types.ExecutionContext) (*outline.Result, error) {
	start := a.now()

	// validate_context
	if ec == nil || ec.Request == nil {
		return nil, a.fail(nil, StageValidateContext, ErrMissingRequest)
	}
	log := a.log.With("execution_id", ec.ExecutionID, "session_id", ec.SessionID)
	if err := ec.Request.Validate(); err != nil {
		return nil, a.fail(log, StageValidateContext, err)
	}
	if a.provider == nil {
		return nil, a.fail(log, StageValidateContext, ErrNoProvider)
	}
	req := ec.Request
	log.Info("generating outline",
		"course_title", req.CourseTitle,
		"duration_hours", req.DurationHours,
		"channels", ec.ChannelCount(),
	)

	// allocate_duration
	plan, err := duration.Allocate(req.DurationHours, req.DepthRequirement, req.LearningMode)
	if err != nil {
		return nil, a.fail(log, StageAllocateDuration, err)
	}
	log.Debug("allocated duration", "num_modules", plan.NumModules, "avg_hours", plan.AvgHoursPerModule)

	// fetch_template
	tmpl := a.catalog.Lookup(req.LearningMode)
	log.Debug("fetched template", "template", tmpl.Name, "capstone_required", tmpl.CapstoneRequired)

	// assemble_prompt
	p, err := prompt.AssembleWith(ec, plan, tmpl, a.promptOpts)
	if err != nil {
		return nil, a.fail(log, StageAssemblePrompt, err)
	}

	// invoke_llm
	resp, err := a.provider.Generate(ctx, llm.Request{
		System:      p.System,
		Prompt:      p.User,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
		Course:      req,
	})
	if err != nil {
		return nil, a.fail(log, StageInvokeLLM, err)
	}
	log.Debug("model responded", "provider", resp.Provider, "model", resp.Model, "usage", resp.TokensUsed)

	// parse_response
	parsed, strategy, err := parse.JSONWithStrategy(resp.Content)
	if err != nil {
		return nil, a.fail(log, StageParseResponse, err)
	}
	if strategy != parse.StrategyDirect {
		log.Info("completion needed fallback parsing", "strategy", string(strategy))
	}

	// structure_outline
	res, err := outline.Structure(outline.Input{
		Parsed:   parsed,
		Context:  ec,
		Plan:     plan,
		Template: tmpl,
		Now:      a.now(),
	})
	if err != nil {
		return nil, a.fail(log, StageStructureOutline, err)
	}
	res.Outline.Metadata.Provider = resp.Provider
	res.Outline.Metadata.Model = resp.Model
	res.Outline.Metadata.TokensUsed = resp.TokensUsed

	// validate_schema
	warnings, err := outline.Validate(res.Outline)
	if err != nil {
		return nil, a.fail(log, StageValidateSchema, err)
	}
	for _, w := range warnings {
		log.Warn("outline quality", "warning", w)
	}
	if !res.FullySpecified() {
		log.Info("outline fields defaulted", "count", len(res.Defaults), "fields", res.Defaults)
	}

	log.Info("outline generated",
		"modules", len(res.Outline.Modules),
		"references", len(res.Outline.References),
		"confidence", res.Outline.ConfidenceScore,
		"completeness", res.Outline.CompletenessScore,
		"elapsed", a.now().Sub(start).String(),
	)
	return res, nil
}

func (a *ModuleCreationAgent) fail(log *logging.Logger, stage Stage, err error) error {
	if log == nil {
		log = a.log
	}
	log.Error("outline generation failed", "stage", string(stage), "error", err)
	return &StageError{Stage: stage, Err: err}
}
