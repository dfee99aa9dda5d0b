// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outline

import (
	"fmt"
	"math"
	"strings"

	"github.com/pdiddy/course-engine/pkg/types"
)

// Confidence weights per enrichment channel.
const (
	BaseConfidence      = 0.6
	DocsConfidenceBoost = 0.15
	WebConfidenceBoost  = 0.15
	PDFConfidenceBoost  = 0.10
)

// Objective-count bounds and hour drift tolerance checked by Validate.
const (
	MinObjectives      = 3
	MaxObjectives      = 5
	MaxHoursDrift      = 0.10
	completenessTarget = 3
)

// ConfidenceScore rates how well grounded an outline is by the channels that
// supplied context. The result is in [0.6, 1.0].
func ConfidenceScore(ec *types.ExecutionContext) float64 {
	score := BaseConfidence
	if ec.HasRetrievedDocs() {
		score += DocsConfidenceBoost
	}
	if ec.HasWebResults() {
		score += WebConfidenceBoost
	}
	if ec.HasPDFText() {
		score += PDFConfidenceBoost
	}
	return round2(math.Min(score, 1.0))
}

// CompletenessScore averages four quarter-weight signals: module count,
// objective coverage, reference count and assessment coverage.
func CompletenessScore(o *types.CourseOutline) float64 {
	n := len(o.Modules)
	if n == 0 {
		return round2(0.25 * math.Min(float64(len(o.References))/completenessTarget, 1))
	}

	var withObjectives, withAssessment int
	for _, m := range o.Modules {
		if len(m.LearningObjectives) > 0 {
			withObjectives++
		}
		if strings.TrimSpace(m.AssessmentType) != "" {
			withAssessment++
		}
	}

	score := 0.25*math.Min(float64(n)/completenessTarget, 1) +
		0.25*float64(withObjectives)/float64(n) +
		0.25*math.Min(float64(len(o.References))/completenessTarget, 1) +
		0.25*float64(withAssessment)/float64(n)
	return round2(math.Min(score, 1.0))
}

// Validate checks the structural contract of an assembled outline. Hard
// violations return a *SchemaError; soft ones are returned as warnings.
func Validate(o *types.CourseOutline) ([]string, error) {
	if o == nil {
		return nil, &SchemaError{Field: "(root)", Reason: "outline is nil"}
	}
	if strings.TrimSpace(o.CourseTitle) == "" {
		return nil, &SchemaError{Field: "course_title", Reason: "must not be empty"}
	}
	if len(o.Modules) == 0 {
		return nil, &SchemaError{Field: "modules", Reason: "at least one module is required"}
	}

	var warnings []string
	for i, m := range o.Modules {
		path := fmt.Sprintf("modules[%d]", i)
		if strings.TrimSpace(m.Title) == "" {
			return nil, &SchemaError{Field: path + ".title", Reason: "must not be empty"}
		}
		if m.EstimatedHours <= 0 {
			return nil, &SchemaError{Field: path + ".estimated_hours", Reason: "must be positive"}
		}
		for j, obj := range m.LearningObjectives {
			if !obj.BloomLevel.Valid() {
				return nil, &SchemaError{
					Field:  fmt.Sprintf("%s.learning_objectives[%d].bloom_level", path, j),
					Reason: fmt.Sprintf("unknown level %q", obj.BloomLevel),
				}
			}
		}
		if n := len(m.LearningObjectives); n < MinObjectives || n > MaxObjectives {
			warnings = append(warnings, fmt.Sprintf("%s has %d learning objectives, want %d-%d", path, n, MinObjectives, MaxObjectives))
		}
	}
	for i, obj := range o.LearningOutcomes {
		if !obj.BloomLevel.Valid() {
			return nil, &SchemaError{
				Field:  fmt.Sprintf("learning_outcomes[%d].bloom_level", i),
				Reason: fmt.Sprintf("unknown level %q", obj.BloomLevel),
			}
		}
	}
	if s := o.ConfidenceScore; s < 0 || s > 1 {
		return nil, &SchemaError{Field: "confidence_score", Reason: fmt.Sprintf("%.2f is outside [0, 1]", s)}
	}
	if s := o.CompletenessScore; s < 0 || s > 1 {
		return nil, &SchemaError{Field: "completeness_score", Reason: fmt.Sprintf("%.2f is outside [0, 1]", s)}
	}
	for i, r := range o.References {
		if r.Confidence < 0 || r.Confidence > 1 {
			return nil, &SchemaError{Field: fmt.Sprintf("references[%d].confidence", i), Reason: "outside [0, 1]"}
		}
	}

	if drift := o.HoursDrift(); drift > MaxHoursDrift {
		warnings = append(warnings, fmt.Sprintf("module hours sum to %.1f, requested %d (%.0f%% drift)", o.ModuleHours(), o.TotalDurationHours, drift*100))
	}
	return warnings, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
