// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package modes holds the learning-mode template catalog: a static
// structural descriptor per delivery mode.
package modes

import (
	"fmt"
	"os"
	"slices"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/course-engine/pkg/types"
)

// DefaultKey is the catalog key used when a mode has no template of its own.
const DefaultKey = "default"

// Template describes how a delivery mode structures a course.
type Template struct {
	Name               string   `json:"name" yaml:"name"`
	Description        string   `json:"description" yaml:"description"`
	AssessmentEmphasis []string `json:"assessment_emphasis" yaml:"assessment_emphasis"`
	CapstoneRequired   bool     `json:"capstone_required" yaml:"capstone_required"`
	Activities         []string `json:"activities,omitempty" yaml:"activities,omitempty"`
}

// Catalog maps mode keys to templates. It is read-only after construction.
type Catalog struct {
	templates map[string]Template
}

func builtins() map[string]Template {
	return map[string]Template{
		string(types.ModeSynchronous): {
			Name:               "live-instruction",
			Description:        "Scheduled, instructor-led sessions with real-time interaction.",
			AssessmentEmphasis: []string{"participation", "in-class quizzes", "presentations"},
			Activities:         []string{"Live lecture", "Q&A session", "Group discussion"},
		},
		string(types.ModeAsynchronous): {
			Name:               "self-paced",
			Description:        "Learners progress independently through recorded and written material.",
			AssessmentEmphasis: []string{"auto-graded quizzes", "discussion posts", "projects"},
			Activities:         []string{"Video watching", "Asynchronous discussion forum", "Self-paced practice"},
		},
		string(types.ModeHybrid): {
			Name:               "blended",
			Description:        "Live sessions combined with self-paced content and a culminating project.",
			AssessmentEmphasis: []string{"projects", "peer review", "quizzes"},
			CapstoneRequired:   true,
			Activities:         []string{"Live session", "Recorded content", "Self-paced exercises", "Group project"},
		},
		DefaultKey: {
			Name:               "standard",
			Description:        "General course structure.",
			AssessmentEmphasis: []string{"quizzes", "assignments"},
		},
	}
}

// DefaultCatalog returns the built-in templates.
func DefaultCatalog() *Catalog {
	return &Catalog{templates: builtins()}
}

// LoadCatalog reads YAML template overrides keyed by mode and layers them on
// top of the built-ins. Fields left empty in the file keep their built-in
// values. An empty path returns the built-ins.
func LoadCatalog(path string) (*Catalog, error) {
	c := DefaultCatalog()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	var overrides map[string]override
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}

	for key, o := range overrides {
		if key != DefaultKey && !types.LearningMode(key).Valid() {
			return nil, fmt.Errorf("catalog %s: unknown learning mode %q", path, key)
		}
		c.templates[key] = merge(c.templates[key], o)
	}
	return c, nil
}

// override mirrors Template with an optional capstone flag so a file can
// leave it unset.
type override struct {
	Name               string   `yaml:"name"`
	Description        string   `yaml:"description"`
	AssessmentEmphasis []string `yaml:"assessment_emphasis"`
	CapstoneRequired   *bool    `yaml:"capstone_required"`
	Activities         []string `yaml:"activities"`
}

func merge(base Template, o override) Template {
	if o.Name != "" {
		base.Name = o.Name
	}
	if o.Description != "" {
		base.Description = o.Description
	}
	if len(o.AssessmentEmphasis) > 0 {
		base.AssessmentEmphasis = o.AssessmentEmphasis
	}
	if len(o.Activities) > 0 {
		base.Activities = o.Activities
	}
	if o.CapstoneRequired != nil {
		base.CapstoneRequired = *o.CapstoneRequired
	}
	return base
}

// Lookup returns the template for mode, or the default template when the
// mode is unknown.
func (c *Catalog) Lookup(mode types.LearningMode) Template {
	if t, ok := c.templates[string(mode)]; ok {
		return clone(t)
	}
	return clone(c.templates[DefaultKey])
}

// Keys returns the catalog keys in sorted order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.templates))
	for k := range c.templates {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func clone(t Template) Template {
	t.AssessmentEmphasis = slices.Clone(t.AssessmentEmphasis)
	t.Activities = slices.Clone(t.Activities)
	return t
}
