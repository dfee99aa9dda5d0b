// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pdiddy/course-engine/internal/duration"
	"github.com/pdiddy/course-engine/pkg/types"
)

// SampleProvider produces a deterministic outline completion from the course
// request without calling any model. It backs dry runs and the "template"
// provider.
type SampleProvider struct{}

func (SampleProvider) Name() string { return string(types.ProviderTemplate) }

// Generate renders the sample outline for req.Course as JSON.
func (s SampleProvider) Generate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if req.Course == nil {
		return Response{}, errors.New("template: request carries no course")
	}
	o, err := SampleOutline(req.Course)
	if err != nil {
		return Response{}, err
	}
	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return Response{}, fmt.Errorf("marshaling sample outline: %w", err)
	}
	return Response{
		Content:    string(data),
		TokensUsed: EstimateTokens(req.System+req.Prompt) + EstimateTokens(string(data)),
		Model:      "sample",
		Provider:   s.Name(),
	}.check()
}

var sampleTopics = []string{
	"Foundations & Core Concepts",
	"Practical Application",
	"Advanced Techniques",
	"Real-World Case Studies",
	"Integration & Best Practices",
	"Capstone Preparation",
}

var sampleStatements = map[types.BloomLevel]string{
	types.BloomRemember:   "Recall %s definitions and terminology",
	types.BloomUnderstand: "Explain the principles of %s",
	types.BloomApply:      "Apply %s techniques to solve problems",
	types.BloomAnalyze:    "Analyze %s structures and patterns",
	types.BloomEvaluate:   "Evaluate %s approaches and trade-offs",
	types.BloomCreate:     "Create a custom %s implementation",
}

// SampleOutline builds a complete outline shaped by the duration plan for c:
// the planned module count and hours, objectives at the depth's Bloom levels,
// and the mode's lesson count and activities.
func SampleOutline(c *types.CourseRequest) (*types.CourseOutline, error) {
	plan, err := duration.Allocate(c.DurationHours, c.DepthRequirement, c.LearningMode)
	if err != nil {
		return nil, err
	}

	o := &types.CourseOutline{
		CourseTitle:        c.CourseTitle,
		CourseSummary:      c.CourseDescription,
		AudienceLevel:      c.AudienceLevel,
		AudienceCategory:   c.AudienceCategory,
		LearningMode:       c.LearningMode,
		DepthRequirement:   c.DepthRequirement,
		TotalDurationHours: c.DurationHours,
		LearningOutcomes: []types.LearningObjective{
			{ID: "CO_1", Statement: "Understand the core concepts of " + c.CourseTitle, BloomLevel: types.BloomUnderstand, AssessmentMethod: "Quizzes and assignments"},
			{ID: "CO_2", Statement: "Apply knowledge from " + c.CourseTitle + " to real-world scenarios", BloomLevel: types.BloomApply, AssessmentMethod: "Projects and case studies"},
			{ID: "CO_3", Statement: "Critically evaluate topics in " + c.CourseTitle, BloomLevel: types.BloomEvaluate, AssessmentMethod: "Final exam or capstone"},
		},
		AssessmentStrategy: types.AssessmentStrategy{
			Formative: []string{"Quizzes", "Homework", "Peer review"},
			Summative: []string{"Final exam", "Capstone project"},
		},
	}

	hours := plan.ModuleHours()
	levels := plan.Depth.PrimaryBloomLevels
	for i := 1; i <= plan.NumModules; i++ {
		topic := fmt.Sprintf("Module %d", i)
		if i <= len(sampleTopics) {
			topic = sampleTopics[i-1]
		}
		lower := strings.ToLower(topic)

		m := types.Module{
			ID:             fmt.Sprintf("M_%d", i),
			Title:          fmt.Sprintf("Module %d: %s", i, topic),
			Description:    fmt.Sprintf("This module covers %s and related concepts.", lower),
			EstimatedHours: hours[i-1],
			AssessmentType: "quiz",
		}
		if i > 1 {
			m.Prerequisites = []string{fmt.Sprintf("M_%d", i-1)}
		}

		for j := 0; j < 3+(i-1)%3; j++ {
			level := levels[j%len(levels)]
			method := "Hands-on"
			if level.Rank() <= types.BloomUnderstand.Rank() {
				method = "Quiz"
			}
			m.LearningObjectives = append(m.LearningObjectives, types.LearningObjective{
				ID:               fmt.Sprintf("LO_%d_%d", i, j+1),
				Statement:        fmt.Sprintf(sampleStatements[level], lower),
				BloomLevel:       level,
				AssessmentMethod: method,
			})
		}

		n := plan.Mode.LessonsPerModule
		minutes := max(15, int(hours[i-1]*60)/n)
		for k := 1; k <= n; k++ {
			m.Lessons = append(m.Lessons, types.Lesson{
				ID:              fmt.Sprintf("L_%d_%d", i, k),
				Title:           fmt.Sprintf("%s - Part %d", topic, k),
				DurationMinutes: minutes,
				KeyConcepts:     strings.Fields(strings.ReplaceAll(lower, "&", "")),
				Activities:      append([]string(nil), plan.Mode.Activities...),
			})
		}
		o.Modules = append(o.Modules, m)
	}

	if plan.Mode.CapstoneRecommended && len(o.Modules) > 0 {
		last := &o.Modules[len(o.Modules)-1]
		last.IsCapstone = true
		last.AssessmentType = "project"
		o.Capstone = &types.Capstone{
			Title:        c.CourseTitle + " Capstone Project",
			Scope:        "Comprehensive project combining all course modules",
			Deliverables: []string{"Project proposal", "Implementation", "Documentation", "Presentation"},
		}
	}
	return o, nil
}

// FakeProvider replays canned completions in order, repeating the last one.
// It records every request it receives.
type FakeProvider struct {
	Completions []string
	Err         error

	mu       sync.Mutex
	requests []Request
}

func (f *FakeProvider) Name() string { return "fake" }

func (f *FakeProvider) Generate(ctx context.Context, req Request) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)

	if f.Err != nil {
		return Response{}, f.Err
	}
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	var content string
	if n := len(f.Completions); n > 0 {
		content = f.Completions[min(len(f.requests), n)-1]
	}
	return Response{
		Content:    content,
		TokensUsed: EstimateTokens(content),
		Model:      "fake",
		Provider:   f.Name(),
	}.check()
}

// Requests returns a copy of the requests received so far.
func (f *FakeProvider) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}
