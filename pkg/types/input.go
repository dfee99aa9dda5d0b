// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the course-engine pipeline:
// the educator's course request, the per-request execution context, the
// generated course outline, and configuration.
package types

import (
	"fmt"
	"strings"
)

// AudienceLevel is the educational level of the intended learners.
type AudienceLevel string

const (
	LevelHighSchool    AudienceLevel = "high_school"
	LevelUndergraduate AudienceLevel = "undergraduate"
	LevelPostgraduate  AudienceLevel = "postgraduate"
	LevelProfessional  AudienceLevel = "professional"
)

// AudienceCategory describes the learners' background.
type AudienceCategory string

const (
	CategoryCSMajor              AudienceCategory = "cs_major"
	CategoryNonCSDomain          AudienceCategory = "non_cs_domain"
	CategoryIndustryProfessional AudienceCategory = "industry_professional"
	CategorySelfLearner          AudienceCategory = "self_learner"
)

// LearningMode is the delivery format of the course.
type LearningMode string

const (
	ModeSynchronous  LearningMode = "synchronous"
	ModeAsynchronous LearningMode = "asynchronous"
	ModeHybrid       LearningMode = "hybrid"
)

// DepthRequirement is how deep the course goes, from conceptual overview to research.
type DepthRequirement string

const (
	DepthConceptual     DepthRequirement = "conceptual"
	DepthApplied        DepthRequirement = "applied"
	DepthImplementation DepthRequirement = "implementation"
	DepthResearch       DepthRequirement = "research"
)

// Duration bounds accepted for a course request, in hours.
const (
	MinDurationHours = 1
	MaxDurationHours = 500
)

var (
	validLevels = map[AudienceLevel]bool{
		LevelHighSchool: true, LevelUndergraduate: true, LevelPostgraduate: true, LevelProfessional: true,
	}
	validCategories = map[AudienceCategory]bool{
		CategoryCSMajor: true, CategoryNonCSDomain: true, CategoryIndustryProfessional: true, CategorySelfLearner: true,
	}
	validModes = map[LearningMode]bool{
		ModeSynchronous: true, ModeAsynchronous: true, ModeHybrid: true,
	}
	validDepths = map[DepthRequirement]bool{
		DepthConceptual: true, DepthApplied: true, DepthImplementation: true, DepthResearch: true,
	}
)

// Valid reports whether m is one of the known learning modes.
func (m LearningMode) Valid() bool { return validModes[m] }

// Valid reports whether d is one of the known depth requirements.
func (d DepthRequirement) Valid() bool { return validDepths[d] }

// CourseRequest is the validated set of educator requirements that drives
// outline generation.
type CourseRequest struct {
	// CourseTitle is the course name, e.g. "Introduction to Machine Learning".
	CourseTitle string `json:"course_title" yaml:"course_title"`

	// CourseDescription is free text describing course goals and scope.
	CourseDescription string `json:"course_description" yaml:"course_description"`

	AudienceLevel    AudienceLevel    `json:"audience_level" yaml:"audience_level"`
	AudienceCategory AudienceCategory `json:"audience_category" yaml:"audience_category"`
	LearningMode     LearningMode     `json:"learning_mode" yaml:"learning_mode"`
	DepthRequirement DepthRequirement `json:"depth_requirement" yaml:"depth_requirement"`

	// DurationHours is the total course length in whole hours (1-500).
	DurationHours int `json:"duration_hours" yaml:"duration_hours"`

	// PDFPath optionally points at a syllabus or reference document.
	PDFPath string `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`

	// CustomConstraints is free-text guidance appended to the prompt.
	CustomConstraints string `json:"custom_constraints,omitempty" yaml:"custom_constraints,omitempty"`
}

// ValidationError reports an invalid field in caller-supplied input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks every field of the request and returns a *ValidationError
// for the first one that is out of range.
func (r *CourseRequest) Validate() error {
	if strings.TrimSpace(r.CourseTitle) == "" {
		return &ValidationError{Field: "course_title", Reason: "must not be empty"}
	}
	if strings.TrimSpace(r.CourseDescription) == "" {
		return &ValidationError{Field: "course_description", Reason: "must not be empty"}
	}

	if !validLevels[r.AudienceLevel] {
		return &ValidationError{Field: "audience_level", Reason: fmt.Sprintf("unknown value %q", r.AudienceLevel)}
	}
	if !validCategories[r.AudienceCategory] {
		return &ValidationError{Field: "audience_category", Reason: fmt.Sprintf("unknown value %q", r.AudienceCategory)}
	}
	if !r.LearningMode.Valid() {
		return &ValidationError{Field: "learning_mode", Reason: fmt.Sprintf("unknown value %q", r.LearningMode)}
	}
	if !r.DepthRequirement.Valid() {
		return &ValidationError{Field: "depth_requirement", Reason: fmt.Sprintf("unknown value %q", r.DepthRequirement)}
	}
	if r.DurationHours < MinDurationHours || r.DurationHours > MaxDurationHours {
		return &ValidationError{
			Field:  "duration_hours",
			Reason: fmt.Sprintf("must be between %d and %d, got %d", MinDurationHours, MaxDurationHours, r.DurationHours),
		}
	}
	return nil
}
