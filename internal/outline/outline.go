// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outline maps a parsed LLM payload onto the course outline schema,
// attaches provenance references, and scores the result.
package outline

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/course-engine/internal/duration"
	"github.com/pdiddy/course-engine/internal/modes"
	"github.com/pdiddy/course-engine/pkg/types"
)

// AgentName is recorded in the metadata of every structured outline.
const AgentName = "module_creation_agent"

// Defaults applied to missing module fields.
const (
	DefaultModuleTitle     = "Untitled Module"
	DefaultAssessmentType  = "quiz"
	DefaultModuleHours     = 6.0
	DefaultLessonTitle     = "Untitled Lesson"
	DefaultLessonMinutes   = 60
	DefaultCitedConfidence = 0.7
)

// Per-channel reference caps and confidences.
const (
	MaxWebRefs       = 3
	MaxRetrievedRefs = 3
	WebConfidence    = 0.85
	DocConfidence    = 0.90
	PDFConfidence    = 0.80
)

// Input is everything Structure needs for one request.
type Input struct {
	Parsed   map[string]any
	Context  *types.ExecutionContext
	Plan     duration.Plan
	Template modes.Template

	// Now stamps references and metadata; zero uses time.Now().UTC().
	Now time.Time
}

// Result is a structured outline plus the paths of every field that was
// filled with a default rather than read from the payload.
type Result struct {
	Outline  *types.CourseOutline `json:"outline"`
	Defaults []string             `json:"defaults,omitempty"`
}

// FullySpecified reports whether the payload supplied every defaultable field.
func (r *Result) FullySpecified() bool { return len(r.Defaults) == 0 }

// Structure builds a CourseOutline from a parsed payload. Missing fields are
// defaulted and recorded in Result.Defaults; values of the wrong kind that
// cannot be coerced fail with a *SchemaError naming the field.
func Structure(in Input) (*Result, error) {
	if in.Context == nil || in.Context.Request == nil {
		return nil, &SchemaError{Field: "request", Reason: "execution context has no course request"}
	}
	if in.Parsed == nil {
		return nil, &SchemaError{Field: "(root)", Reason: "no parsed payload"}
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	req := in.Context.Request
	d := &decoder{}
	p := in.Parsed

	o := &types.CourseOutline{
		AudienceLevel:      req.AudienceLevel,
		AudienceCategory:   req.AudienceCategory,
		LearningMode:       req.LearningMode,
		DepthRequirement:   req.DepthRequirement,
		TotalDurationHours: req.DurationHours,
	}

	var err error
	if o.CourseTitle, err = d.optString(p, "course_title", req.CourseTitle, true, "course_title", "title"); err != nil {
		return nil, err
	}
	if o.CourseSummary, err = d.optString(p, "course_summary", req.CourseDescription, true, "course_summary", "summary", "description"); err != nil {
		return nil, err
	}

	if v, ok := lookup(p, "prerequisites"); ok {
		if o.Prerequisites, err = strList("prerequisites", v); err != nil {
			return nil, err
		}
	} else {
		o.Prerequisites = defaultPrerequisites(req.AudienceLevel)
		d.defaulted("prerequisites")
	}

	if v, ok := lookup(p, "learning_outcomes", "course_level_learning_outcomes"); ok {
		items, err := list("learning_outcomes", v)
		if err != nil {
			return nil, err
		}
		for i, item := range items {
			obj, err := d.objective(fmt.Sprintf("learning_outcomes[%d]", i), fmt.Sprintf("CO_%d", i+1), item)
			if err != nil {
				return nil, err
			}
			o.LearningOutcomes = append(o.LearningOutcomes, obj)
		}
	}

	if v, ok := lookup(p, "modules"); ok {
		items, err := list("modules", v)
		if err != nil {
			return nil, err
		}
		for i, item := range items {
			m, err := d.module(i+1, item)
			if err != nil {
				return nil, err
			}
			o.Modules = append(o.Modules, m)
		}
	}

	if o.AssessmentStrategy, err = d.assessment(p, in.Template); err != nil {
		return nil, err
	}
	if o.Capstone, err = d.capstone(p, req, in.Template); err != nil {
		return nil, err
	}

	if v, ok := lookup(p, "recommended_tools"); ok {
		if o.RecommendedTools, err = strList("recommended_tools", v); err != nil {
			return nil, err
		}
	} else {
		o.RecommendedTools = defaultTools(req.CourseTitle)
		d.defaulted("recommended_tools")
	}

	cited, err := d.citedReferences(p, now)
	if err != nil {
		return nil, err
	}
	o.References = append(cited, ChannelReferences(in.Context, now)...)

	o.ConfidenceScore = ConfidenceScore(in.Context)
	o.CompletenessScore = CompletenessScore(o)
	o.Metadata = types.GenerationMetadata{
		Agent:       AgentName,
		GeneratedAt: now,
		ExecutionID: in.Context.ExecutionID,
	}

	return &Result{Outline: o, Defaults: d.defaults}, nil
}

func (d *decoder) module(n int, v any) (types.Module, error) {
	path := fmt.Sprintf("modules[%d]", n-1)
	m, err := object(path, v)
	if err != nil {
		return types.Module{}, err
	}

	var mod types.Module
	if mod.ID, err = d.optString(m, path+".id", fmt.Sprintf("M_%d", n), true, "id", "module_id"); err != nil {
		return mod, err
	}
	if mod.Title, err = d.optString(m, path+".title", DefaultModuleTitle, true, "title"); err != nil {
		return mod, err
	}
	if mod.Description, err = d.optString(m, path+".description", "", true, "description", "synopsis", "summary"); err != nil {
		return mod, err
	}

	if hv, ok := lookup(m, "estimated_hours", "hours", "duration_hours"); ok {
		if mod.EstimatedHours, err = num(path+".estimated_hours", hv); err != nil {
			return mod, err
		}
		if mod.EstimatedHours <= 0 {
			mod.EstimatedHours = DefaultModuleHours
			d.defaulted(path + ".estimated_hours")
		}
	} else {
		mod.EstimatedHours = DefaultModuleHours
		d.defaulted(path + ".estimated_hours")
	}

	if mod.AssessmentType, err = d.assessmentType(m, path); err != nil {
		return mod, err
	}

	if cv, ok := lookup(m, "is_capstone", "capstone"); ok {
		if mod.IsCapstone, err = boolean(path+".is_capstone", cv); err != nil {
			return mod, err
		}
	}
	if mod.Prerequisites, err = d.optStrings(m, path+".prerequisites", "prerequisites"); err != nil {
		return mod, err
	}

	if ov, ok := lookup(m, "learning_objectives", "objectives"); ok {
		items, err := list(path+".learning_objectives", ov)
		if err != nil {
			return mod, err
		}
		for j, item := range items {
			obj, err := d.objective(fmt.Sprintf("%s.learning_objectives[%d]", path, j), fmt.Sprintf("LO_%d_%d", n, j+1), item)
			if err != nil {
				return mod, err
			}
			mod.LearningObjectives = append(mod.LearningObjectives, obj)
		}
	}

	if lv, ok := lookup(m, "lessons"); ok {
		items, err := list(path+".lessons", lv)
		if err != nil {
			return mod, err
		}
		for k, item := range items {
			l, err := d.lesson(fmt.Sprintf("%s.lessons[%d]", path, k), fmt.Sprintf("L_%d_%d", n, k+1), item)
			if err != nil {
				return mod, err
			}
			mod.Lessons = append(mod.Lessons, l)
		}
	}

	return mod, nil
}

// assessmentType reads "assessment_type", or the "type" of an "assessment" object.
func (d *decoder) assessmentType(m map[string]any, path string) (string, error) {
	if v, ok := lookup(m, "assessment_type"); ok {
		s, err := str(path+".assessment_type", v)
		if err != nil {
			return "", err
		}
		if s != "" {
			return s, nil
		}
	} else if v, ok := lookup(m, "assessment"); ok {
		switch t := v.(type) {
		case map[string]any:
			if s, err := d.optString(t, path+".assessment.type", "", false, "type"); err != nil {
				return "", err
			} else if s != "" {
				return s, nil
			}
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s, nil
			}
		default:
			return "", &SchemaError{Field: path + ".assessment", Reason: "expected object or string, got " + kindOf(v)}
		}
	}
	d.defaulted(path + ".assessment_type")
	return DefaultAssessmentType, nil
}

// objective accepts either an object or a bare statement string.
func (d *decoder) objective(path, id string, v any) (types.LearningObjective, error) {
	if s, ok := v.(string); ok {
		d.defaulted(path + ".bloom_level")
		return types.LearningObjective{ID: id, Statement: strings.TrimSpace(s), BloomLevel: types.BloomUnderstand}, nil
	}
	m, err := object(path, v)
	if err != nil {
		return types.LearningObjective{}, err
	}

	obj := types.LearningObjective{}
	if obj.ID, err = d.optString(m, path+".id", id, false, "id", "objective_id"); err != nil {
		return obj, err
	}
	if obj.Statement, err = d.optString(m, path+".statement", "", true, "statement", "objective", "text"); err != nil {
		return obj, err
	}
	if obj.AssessmentMethod, err = d.optString(m, path+".assessment_method", "", false, "assessment_method"); err != nil {
		return obj, err
	}

	raw, err := d.optString(m, path+".bloom_level", "", false, "bloom_level", "bloom")
	if err != nil {
		return obj, err
	}
	level, ok := types.ParseBloomLevel(raw)
	if !ok {
		d.defaulted(path + ".bloom_level")
	}
	obj.BloomLevel = level
	return obj, nil
}

func (d *decoder) lesson(path, id string, v any) (types.Lesson, error) {
	if s, ok := v.(string); ok {
		d.defaulted(path + ".duration_minutes")
		return types.Lesson{ID: id, Title: strings.TrimSpace(s), DurationMinutes: DefaultLessonMinutes}, nil
	}
	m, err := object(path, v)
	if err != nil {
		return types.Lesson{}, err
	}

	var l types.Lesson
	if l.ID, err = d.optString(m, path+".id", id, false, "id", "lesson_id"); err != nil {
		return l, err
	}
	if l.Title, err = d.optString(m, path+".title", DefaultLessonTitle, true, "title"); err != nil {
		return l, err
	}
	if l.Description, err = d.optString(m, path+".description", "", false, "description"); err != nil {
		return l, err
	}

	if mv, ok := lookup(m, "duration_minutes", "minutes"); ok {
		f, err := num(path+".duration_minutes", mv)
		if err != nil {
			return l, err
		}
		l.DurationMinutes = int(math.Round(f))
	}
	if l.DurationMinutes <= 0 {
		l.DurationMinutes = DefaultLessonMinutes
		d.defaulted(path + ".duration_minutes")
	}

	if l.KeyConcepts, err = d.optStrings(m, path+".key_concepts", "key_concepts"); err != nil {
		return l, err
	}
	if l.Activities, err = d.optStrings(m, path+".activities", "activities"); err != nil {
		return l, err
	}
	if l.Resources, err = d.optStrings(m, path+".resources", "resources"); err != nil {
		return l, err
	}
	return l, nil
}

func (d *decoder) assessment(p map[string]any, tmpl modes.Template) (types.AssessmentStrategy, error) {
	var a types.AssessmentStrategy
	v, ok := lookup(p, "assessment_strategy", "evaluation_strategy")
	if !ok {
		d.defaulted("assessment_strategy")
		a.Formative = append([]string(nil), tmpl.AssessmentEmphasis...)
		a.Description = fmt.Sprintf("Assessment follows the %s template.", tmpl.Name)
		return a, nil
	}

	if s, isStr := v.(string); isStr {
		a.Description = strings.TrimSpace(s)
		return a, nil
	}
	m, err := object("assessment_strategy", v)
	if err != nil {
		return a, err
	}
	if a.Formative, err = d.optStrings(m, "assessment_strategy.formative", "formative"); err != nil {
		return a, err
	}
	if a.Summative, err = d.optStrings(m, "assessment_strategy.summative", "summative"); err != nil {
		return a, err
	}
	if a.Description, err = d.optString(m, "assessment_strategy.description", "", false, "description"); err != nil {
		return a, err
	}
	return a, nil
}

func (d *decoder) capstone(p map[string]any, req *types.CourseRequest, tmpl modes.Template) (*types.Capstone, error) {
	v, ok := lookup(p, "capstone", "capstone_project")
	if !ok {
		if !tmpl.CapstoneRequired {
			return nil, nil
		}
		d.defaulted("capstone")
		return &types.Capstone{
			Title:        req.CourseTitle + " Capstone Project",
			Scope:        "Comprehensive project combining all course modules",
			Deliverables: []string{"Project proposal", "Implementation", "Documentation", "Presentation"},
		}, nil
	}

	m, err := object("capstone", v)
	if err != nil {
		return nil, err
	}
	c := &types.Capstone{}
	if c.Title, err = d.optString(m, "capstone.title", req.CourseTitle+" Capstone Project", true, "title"); err != nil {
		return nil, err
	}
	if c.Scope, err = d.optString(m, "capstone.scope", "", false, "scope", "description"); err != nil {
		return nil, err
	}
	if c.Deliverables, err = d.optStrings(m, "capstone.deliverables", "deliverables"); err != nil {
		return nil, err
	}
	return c, nil
}

func (d *decoder) citedReferences(p map[string]any, now time.Time) ([]types.Reference, error) {
	v, ok := lookup(p, "references", "citations_and_provenance")
	if !ok {
		return nil, nil
	}
	items, err := list("references", v)
	if err != nil {
		return nil, err
	}

	var refs []types.Reference
	for i, item := range items {
		path := fmt.Sprintf("references[%d]", i)
		if s, isStr := item.(string); isStr {
			if s = strings.TrimSpace(s); s != "" {
				refs = append(refs, types.Reference{Title: s, SourceType: types.SourceGenerated, Confidence: DefaultCitedConfidence, AccessedAt: now})
			}
			continue
		}
		m, err := object(path, item)
		if err != nil {
			return nil, err
		}

		ref := types.Reference{AccessedAt: now}
		if ref.Title, err = d.optString(m, path+".title", "", false, "title"); err != nil {
			return nil, err
		}
		if ref.Title == "" {
			continue
		}
		if ref.URL, err = d.optString(m, path+".url", "", false, "url"); err != nil {
			return nil, err
		}
		if ref.Author, err = d.optString(m, path+".author", "", false, "author"); err != nil {
			return nil, err
		}
		if ref.Institution, err = d.optString(m, path+".institution", "", false, "institution"); err != nil {
			return nil, err
		}

		st, err := d.optString(m, path+".source_type", "", false, "source_type")
		if err != nil {
			return nil, err
		}
		ref.SourceType = types.SourceType(strings.ToLower(st))
		if !ref.SourceType.Valid() {
			ref.SourceType = types.SourceGenerated
		}

		ref.Confidence = DefaultCitedConfidence
		if cv, ok := lookup(m, "confidence"); ok {
			f, err := num(path+".confidence", cv)
			if err != nil {
				return nil, err
			}
			ref.Confidence = clamp01(f)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// ChannelReferences returns provenance records for the enrichment channels in
// fixed order: up to MaxWebRefs web results, up to MaxRetrievedRefs library
// documents, then one record for the PDF when its text is present. Entries
// are not deduplicated across channels.
func ChannelReferences(ec *types.ExecutionContext, now time.Time) []types.Reference {
	var refs []types.Reference
	if ec.HasWebResults() {
		for i, r := range ec.WebResults.Results {
			if i == MaxWebRefs {
				break
			}
			refs = append(refs, types.Reference{
				Title:      nonEmpty(r.Title, r.URL),
				SourceType: types.SourceWeb,
				URL:        r.URL,
				Confidence: WebConfidence,
				AccessedAt: now,
			})
		}
	}
	for i, doc := range ec.RetrievedDocs {
		if i == MaxRetrievedRefs {
			break
		}
		refs = append(refs, types.Reference{
			Title:      nonEmpty(doc.Title, "Retrieved document"),
			SourceType: types.SourceRetrieved,
			URL:        doc.URL,
			Confidence: DocConfidence,
			AccessedAt: now,
		})
	}
	if ec.HasPDFText() {
		title := "Uploaded reference document"
		if ec.Request != nil && ec.Request.PDFPath != "" {
			title = filepath.Base(ec.Request.PDFPath)
		}
		refs = append(refs, types.Reference{
			Title:      title,
			SourceType: types.SourcePDF,
			Confidence: PDFConfidence,
			AccessedAt: now,
		})
	}
	return refs
}

func defaultPrerequisites(level types.AudienceLevel) []string {
	switch level {
	case types.LevelHighSchool:
		return []string{"Basic math", "Computer literacy"}
	case types.LevelUndergraduate:
		return []string{"Intro-level knowledge in related field"}
	case types.LevelPostgraduate:
		return []string{"Bachelor's degree in related field"}
	default:
		return []string{"2+ years professional experience"}
	}
}

func defaultTools(title string) []string {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "data"):
		return []string{"Python", "Jupyter Notebook", "Pandas", "PostgreSQL"}
	case strings.Contains(t, "machine learning"):
		return []string{"Python", "TensorFlow/PyTorch", "Scikit-learn", "Jupyter Notebook"}
	case strings.Contains(t, "web"):
		return []string{"VS Code", "Node.js", "React", "Chrome DevTools"}
	default:
		return []string{"IDE", "Version Control", "Documentation Tools"}
	}
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
