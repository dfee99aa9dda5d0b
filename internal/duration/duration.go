// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package duration turns a requested course length into a module plan.
package duration

import (
	"fmt"
	"math"

	"github.com/pdiddy/course-engine/pkg/types"
)

const (
	// HoursPerModule is the average module length used to derive the count.
	HoursPerModule = 5

	MinModules = 2
	MaxModules = 6
)

// DepthGuidance describes which Bloom levels the course should target.
type DepthGuidance struct {
	PrimaryBloomLevels []types.BloomLevel `json:"primary_bloom_levels" yaml:"primary_bloom_levels"`
	StartingLevel      types.BloomLevel   `json:"starting_level" yaml:"starting_level"`
	Description        string             `json:"description" yaml:"description"`
}

// ModeAdjustment describes how the delivery mode shapes each module.
type ModeAdjustment struct {
	LessonsPerModule    int      `json:"lessons_per_module" yaml:"lessons_per_module"`
	Activities          []string `json:"activities" yaml:"activities"`
	CapstoneRecommended bool     `json:"capstone_recommended" yaml:"capstone_recommended"`
}

// Plan is the derived module allocation for one request.
type Plan struct {
	TotalHours        int            `json:"total_hours" yaml:"total_hours"`
	NumModules        int            `json:"num_modules" yaml:"num_modules"`
	AvgHoursPerModule float64        `json:"avg_hours_per_module" yaml:"avg_hours_per_module"`
	Depth             DepthGuidance  `json:"depth" yaml:"depth"`
	Mode              ModeAdjustment `json:"mode" yaml:"mode"`
}

var depthGuidance = map[types.DepthRequirement]DepthGuidance{
	types.DepthConceptual: {
		PrimaryBloomLevels: []types.BloomLevel{types.BloomRemember, types.BloomUnderstand},
		StartingLevel:      types.BloomRemember,
		Description:        "Focus on terminology, core ideas and mental models; favour explanation over practice.",
	},
	types.DepthApplied: {
		PrimaryBloomLevels: []types.BloomLevel{types.BloomUnderstand, types.BloomApply},
		StartingLevel:      types.BloomUnderstand,
		Description:        "Balance theory with guided practice on realistic problems.",
	},
	types.DepthImplementation: {
		PrimaryBloomLevels: []types.BloomLevel{types.BloomApply, types.BloomCreate},
		StartingLevel:      types.BloomApply,
		Description:        "Hands-on building: learners implement, extend and ship working artifacts.",
	},
	types.DepthResearch: {
		PrimaryBloomLevels: []types.BloomLevel{types.BloomAnalyze, types.BloomEvaluate, types.BloomCreate},
		StartingLevel:      types.BloomAnalyze,
		Description:        "Critical reading of the literature, open problems and original investigation.",
	},
}

var modeAdjustments = map[types.LearningMode]ModeAdjustment{
	types.ModeSynchronous: {
		LessonsPerModule: 3,
		Activities:       []string{"Live lecture", "Q&A session", "Group discussion"},
	},
	types.ModeAsynchronous: {
		LessonsPerModule: 4,
		Activities:       []string{"Video watching", "Asynchronous discussion forum", "Self-paced practice"},
	},
	types.ModeHybrid: {
		LessonsPerModule:    3,
		Activities:          []string{"Live session", "Recorded content", "Self-paced exercises", "Group project"},
		CapstoneRecommended: true,
	},
}

// Allocate derives a module plan from the total hours. The count is
// ceil(hours/HoursPerModule) clamped to [MinModules, MaxModules]; depth and
// mode only shape the attached guidance. Unknown depth or mode values fall
// back to applied and synchronous guidance.
func Allocate(totalHours int, depth types.DepthRequirement, mode types.LearningMode) (Plan, error) {
	if totalHours <= 0 {
		return Plan{}, &types.ValidationError{
			Field:  "duration_hours",
			Reason: fmt.Sprintf("must be positive, got %d", totalHours),
		}
	}

	n := int(math.Ceil(float64(totalHours) / HoursPerModule))
	n = max(MinModules, min(MaxModules, n))

	g, ok := depthGuidance[depth]
	if !ok {
		g = depthGuidance[types.DepthApplied]
	}
	m, ok := modeAdjustments[mode]
	if !ok {
		m = modeAdjustments[types.ModeSynchronous]
	}

	return Plan{
		TotalHours:        totalHours,
		NumModules:        n,
		AvgHoursPerModule: float64(totalHours) / float64(n),
		Depth:             g,
		Mode:              m,
	}, nil
}

// ModuleHours splits the total into NumModules values rounded to 0.1 h.
// The last module absorbs the rounding remainder so the values sum to
// TotalHours.
func (p Plan) ModuleHours() []float64 {
	if p.NumModules <= 0 {
		return nil
	}
	hours := make([]float64, p.NumModules)
	each := math.Round(p.AvgHoursPerModule*10) / 10
	var assigned float64
	for i := 0; i < p.NumModules-1; i++ {
		hours[i] = each
		assigned += each
	}
	hours[p.NumModules-1] = math.Round((float64(p.TotalHours)-assigned)*10) / 10
	return hours
}
