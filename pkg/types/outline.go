// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"math"
	"strings"
	"time"
)

// BloomLevel is a tier of Bloom's taxonomy. Levels are ordered from
// remember (lowest) to create (highest).
type BloomLevel string

const (
	BloomRemember   BloomLevel = "remember"
	BloomUnderstand BloomLevel = "understand"
	BloomApply      BloomLevel = "apply"
	BloomAnalyze    BloomLevel = "analyze"
	BloomEvaluate   BloomLevel = "evaluate"
	BloomCreate     BloomLevel = "create"
)

// BloomLevels lists every level in ascending order.
var BloomLevels = []BloomLevel{
	BloomRemember, BloomUnderstand, BloomApply, BloomAnalyze, BloomEvaluate, BloomCreate,
}

// Rank returns the 1-based position of b in the taxonomy, or 0 if b is unknown.
func (b BloomLevel) Rank() int {
	for i, l := range BloomLevels {
		if l == b {
			return i + 1
		}
	}
	return 0
}

// Valid reports whether b is a known level.
func (b BloomLevel) Valid() bool { return b.Rank() > 0 }

// ParseBloomLevel maps free text onto a level, ignoring case and
// surrounding whitespace. Unknown text yields BloomUnderstand and ok=false.
func ParseBloomLevel(s string) (BloomLevel, bool) {
	l := BloomLevel(strings.ToLower(strings.TrimSpace(s)))
	if l.Valid() {
		return l, true
	}
	return BloomUnderstand, false
}

// SourceType tags which provenance channel a Reference came from.
type SourceType string

const (
	SourceRetrieved SourceType = "retrieved"
	SourceWeb       SourceType = "web"
	SourcePDF       SourceType = "pdf"
	SourceGenerated SourceType = "generated"
)

// Valid reports whether s is a known source type.
func (s SourceType) Valid() bool {
	switch s {
	case SourceRetrieved, SourceWeb, SourcePDF, SourceGenerated:
		return true
	}
	return false
}

// LearningObjective is a measurable outcome tagged with a Bloom level.
type LearningObjective struct {
	ID               string     `json:"id,omitempty" yaml:"id,omitempty"`
	Statement        string     `json:"statement" yaml:"statement"`
	BloomLevel       BloomLevel `json:"bloom_level" yaml:"bloom_level"`
	AssessmentMethod string     `json:"assessment_method,omitempty" yaml:"assessment_method,omitempty"`
}

// Lesson is one teaching session inside a module.
type Lesson struct {
	ID              string   `json:"id,omitempty" yaml:"id,omitempty"`
	Title           string   `json:"title" yaml:"title"`
	Description     string   `json:"description,omitempty" yaml:"description,omitempty"`
	DurationMinutes int      `json:"duration_minutes" yaml:"duration_minutes"`
	KeyConcepts     []string `json:"key_concepts,omitempty" yaml:"key_concepts,omitempty"`
	Activities      []string `json:"activities,omitempty" yaml:"activities,omitempty"`
	Resources       []string `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// Module is one curriculum unit.
type Module struct {
	ID                 string              `json:"id" yaml:"id"`
	Title              string              `json:"title" yaml:"title"`
	Description        string              `json:"description" yaml:"description"`
	EstimatedHours     float64             `json:"estimated_hours" yaml:"estimated_hours"`
	LearningObjectives []LearningObjective `json:"learning_objectives" yaml:"learning_objectives"`
	Lessons            []Lesson            `json:"lessons" yaml:"lessons"`
	AssessmentType     string              `json:"assessment_type" yaml:"assessment_type"`
	Prerequisites      []string            `json:"prerequisites,omitempty" yaml:"prerequisites,omitempty"`
	IsCapstone         bool                `json:"is_capstone" yaml:"is_capstone"`
}

// Reference is a provenance record attached to an outline.
type Reference struct {
	Title       string     `json:"title" yaml:"title"`
	SourceType  SourceType `json:"source_type" yaml:"source_type"`
	URL         string     `json:"url,omitempty" yaml:"url,omitempty"`
	Confidence  float64    `json:"confidence" yaml:"confidence"`
	Author      string     `json:"author,omitempty" yaml:"author,omitempty"`
	Institution string     `json:"institution,omitempty" yaml:"institution,omitempty"`
	AccessedAt  time.Time  `json:"accessed_at" yaml:"accessed_at"`
}

// AssessmentStrategy describes how learning is measured across the course.
type AssessmentStrategy struct {
	Formative   []string `json:"formative,omitempty" yaml:"formative,omitempty"`
	Summative   []string `json:"summative,omitempty" yaml:"summative,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// IsZero reports whether no strategy was given.
func (a AssessmentStrategy) IsZero() bool {
	return len(a.Formative) == 0 && len(a.Summative) == 0 && a.Description == ""
}

// Capstone is an end-of-course project.
type Capstone struct {
	Title        string   `json:"title" yaml:"title"`
	Scope        string   `json:"scope,omitempty" yaml:"scope,omitempty"`
	Deliverables []string `json:"deliverables,omitempty" yaml:"deliverables,omitempty"`
}

// GenerationMetadata records who produced an outline and how.
type GenerationMetadata struct {
	Agent       string    `json:"agent" yaml:"agent"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	ExecutionID string    `json:"execution_id,omitempty" yaml:"execution_id,omitempty"`
	Provider    string    `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model       string    `json:"model,omitempty" yaml:"model,omitempty"`
	TokensUsed  int       `json:"tokens_used,omitempty" yaml:"tokens_used,omitempty"`
}

// CourseOutline is the generated course structure returned to the educator.
type CourseOutline struct {
	CourseTitle        string           `json:"course_title" yaml:"course_title"`
	CourseSummary      string           `json:"course_summary" yaml:"course_summary"`
	AudienceLevel      AudienceLevel    `json:"audience_level" yaml:"audience_level"`
	AudienceCategory   AudienceCategory `json:"audience_category" yaml:"audience_category"`
	LearningMode       LearningMode     `json:"learning_mode" yaml:"learning_mode"`
	DepthRequirement   DepthRequirement `json:"depth_requirement" yaml:"depth_requirement"`
	TotalDurationHours int              `json:"total_duration_hours" yaml:"total_duration_hours"`

	Prerequisites      []string            `json:"prerequisites" yaml:"prerequisites"`
	LearningOutcomes   []LearningObjective `json:"learning_outcomes" yaml:"learning_outcomes"`
	Modules            []Module            `json:"modules" yaml:"modules"`
	AssessmentStrategy AssessmentStrategy  `json:"assessment_strategy" yaml:"assessment_strategy"`
	Capstone           *Capstone           `json:"capstone,omitempty" yaml:"capstone,omitempty"`
	RecommendedTools   []string            `json:"recommended_tools,omitempty" yaml:"recommended_tools,omitempty"`
	References         []Reference         `json:"references" yaml:"references"`

	// ConfidenceScore and CompletenessScore are heuristics in [0, 1].
	ConfidenceScore   float64 `json:"confidence_score" yaml:"confidence_score"`
	CompletenessScore float64 `json:"completeness_score" yaml:"completeness_score"`

	Metadata GenerationMetadata `json:"metadata" yaml:"metadata"`
}

// ModuleHours returns the sum of all modules' estimated hours.
func (o *CourseOutline) ModuleHours() float64 {
	var total float64
	for _, m := range o.Modules {
		total += m.EstimatedHours
	}
	return total
}

// HoursDrift returns the relative difference between the module hour sum and
// the requested total, e.g. 0.1 for a 10% gap. Zero totals report 0.
func (o *CourseOutline) HoursDrift() float64 {
	if o.TotalDurationHours <= 0 {
		return 0
	}
	total := float64(o.TotalDurationHours)
	return math.Abs(o.ModuleHours()-total) / total
}
