// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/course-engine/internal/duration"
	"github.com/pdiddy/course-engine/internal/modes"
	"github.com/pdiddy/course-engine/internal/parse"
	"github.com/pdiddy/course-engine/pkg/types"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testRequest() *types.CourseRequest {
	return &types.CourseRequest{
		CourseTitle:       "Web Engineering",
		CourseDescription: "Modern web application development.",
		AudienceLevel:     types.LevelUndergraduate,
		AudienceCategory:  types.CategoryCSMajor,
		LearningMode:      types.ModeSynchronous,
		DepthRequirement:  types.DepthApplied,
		DurationHours:     12,
	}
}

func testInput(t *testing.T, parsed map[string]any, ec *types.ExecutionContext) Input {
	t.Helper()
	if ec == nil {
		ec = &types.ExecutionContext{ExecutionID: "exec-1", Request: testRequest()}
	}
	plan, err := duration.Allocate(ec.Request.DurationHours, ec.Request.DepthRequirement, ec.Request.LearningMode)
	require.NoError(t, err)
	return Input{
		Parsed:   parsed,
		Context:  ec,
		Plan:     plan,
		Template: modes.DefaultCatalog().Lookup(ec.Request.LearningMode),
		Now:      fixedNow,
	}
}

func mustParse(t *testing.T, raw string) map[string]any {
	t.Helper()
	m, err := parse.JSON(raw)
	require.NoError(t, err)
	return m
}

func TestStructureMinimalPayloadDefaults(t *testing.T) {
	parsed := mustParse(t, `{"modules": [{}, {"title": "Routing", "estimated_hours": "4.5"}]}`)

	res, err := Structure(testInput(t, parsed, nil))
	require.NoError(t, err)
	o := res.Outline

	assert.Equal(t, "Web Engineering", o.CourseTitle)
	assert.Equal(t, "Modern web application development.", o.CourseSummary)
	require.Len(t, o.Modules, 2)

	m := o.Modules[0]
	assert.Equal(t, "M_1", m.ID)
	assert.Equal(t, DefaultModuleTitle, m.Title)
	assert.Equal(t, DefaultModuleHours, m.EstimatedHours)
	assert.Equal(t, DefaultAssessmentType, m.AssessmentType)
	assert.False(t, m.IsCapstone)
	assert.Empty(t, m.Lessons)
	assert.Empty(t, m.LearningObjectives)

	assert.Equal(t, "M_2", o.Modules[1].ID)
	assert.Equal(t, "Routing", o.Modules[1].Title)
	assert.Equal(t, 4.5, o.Modules[1].EstimatedHours)

	assert.Equal(t, []string{"Intro-level knowledge in related field"}, o.Prerequisites)
	assert.Equal(t, []string{"VS Code", "Node.js", "React", "Chrome DevTools"}, o.RecommendedTools)
	assert.Nil(t, o.Capstone, "synchronous template does not require a capstone")

	assert.False(t, res.FullySpecified())
	assert.Contains(t, res.Defaults, "modules[0].title")
	assert.Contains(t, res.Defaults, "modules[0].id")
	assert.Contains(t, res.Defaults, "modules[0].estimated_hours")
	assert.Contains(t, res.Defaults, "modules[1].assessment_type")
	assert.NotContains(t, res.Defaults, "modules[1].title")

	assert.Equal(t, AgentName, o.Metadata.Agent)
	assert.Equal(t, "exec-1", o.Metadata.ExecutionID)
	assert.Equal(t, fixedNow, o.Metadata.GeneratedAt)
}

func TestStructureAliases(t *testing.T) {
	parsed := mustParse(t, `{
		"course_level_learning_outcomes": ["Explain HTTP"],
		"modules": [{
			"module_id": "MOD-A",
			"title": "HTTP",
			"synopsis": "Requests and responses",
			"hours": 3,
			"assessment": {"type": "lab"},
			"objectives": [
				"Describe the request cycle",
				{"statement": "Build a handler", "bloom_level": " APPLY "},
				{"statement": "Judge caching", "bloom_level": "ponder"}
			]
		}],
		"evaluation_strategy": "Weekly labs and a final project.",
		"capstone_project": {"title": "Shop", "deliverables": "Deployed app"},
		"citations_and_provenance": ["RFC 9110"]
	}`)

	res, err := Structure(testInput(t, parsed, nil))
	require.NoError(t, err)
	o := res.Outline

	m := o.Modules[0]
	assert.Equal(t, "MOD-A", m.ID)
	assert.Equal(t, "Requests and responses", m.Description)
	assert.Equal(t, 3.0, m.EstimatedHours)
	assert.Equal(t, "lab", m.AssessmentType)
	require.Len(t, m.LearningObjectives, 3)
	assert.Equal(t, types.LearningObjective{ID: "LO_1_1", Statement: "Describe the request cycle", BloomLevel: types.BloomUnderstand}, m.LearningObjectives[0])
	assert.Equal(t, types.BloomApply, m.LearningObjectives[1].BloomLevel)
	assert.Equal(t, types.BloomUnderstand, m.LearningObjectives[2].BloomLevel)
	assert.Contains(t, res.Defaults, "modules[0].learning_objectives[2].bloom_level")
	assert.NotContains(t, res.Defaults, "modules[0].learning_objectives[1].bloom_level")

	require.Len(t, o.LearningOutcomes, 1)
	assert.Equal(t, "CO_1", o.LearningOutcomes[0].ID)
	assert.Equal(t, "Weekly labs and a final project.", o.AssessmentStrategy.Description)
	require.NotNil(t, o.Capstone)
	assert.Equal(t, []string{"Deployed app"}, o.Capstone.Deliverables)

	require.Len(t, o.References, 1)
	assert.Equal(t, types.Reference{Title: "RFC 9110", SourceType: types.SourceGenerated, Confidence: DefaultCitedConfidence, AccessedAt: fixedNow}, o.References[0])
}

func TestStructureLessons(t *testing.T) {
	parsed := mustParse(t, `{"modules": [{"title": "A", "lessons": [
		{"title": "Intro", "duration_minutes": 45, "key_concepts": ["x", "", "y"]},
		{"duration_minutes": "0"},
		"Wrap-up"
	]}]}`)

	res, err := Structure(testInput(t, parsed, nil))
	require.NoError(t, err)
	lessons := res.Outline.Modules[0].Lessons
	require.Len(t, lessons, 3)

	assert.Equal(t, types.Lesson{ID: "L_1_1", Title: "Intro", DurationMinutes: 45, KeyConcepts: []string{"x", "y"}}, lessons[0])
	assert.Equal(t, "L_1_2", lessons[1].ID)
	assert.Equal(t, DefaultLessonTitle, lessons[1].Title)
	assert.Equal(t, DefaultLessonMinutes, lessons[1].DurationMinutes)
	assert.Equal(t, "Wrap-up", lessons[2].Title)
	assert.Equal(t, DefaultLessonMinutes, lessons[2].DurationMinutes)
	assert.Contains(t, res.Defaults, "modules[0].lessons[1].duration_minutes")
}

func TestStructureCapstoneDefaultForHybrid(t *testing.T) {
	req := testRequest()
	req.LearningMode = types.ModeHybrid
	ec := &types.ExecutionContext{Request: req}

	res, err := Structure(testInput(t, map[string]any{"modules": []any{}}, ec))
	require.NoError(t, err)
	require.NotNil(t, res.Outline.Capstone)
	assert.Equal(t, "Web Engineering Capstone Project", res.Outline.Capstone.Title)
	assert.Len(t, res.Outline.Capstone.Deliverables, 4)
	assert.Contains(t, res.Defaults, "capstone")
	assert.Equal(t, []string{"projects", "peer review", "quizzes"}, res.Outline.AssessmentStrategy.Formative)
}

func TestStructureSchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"modules not a list", `{"modules": "three modules"}`, "modules"},
		{"module not an object", `{"modules": [42]}`, "modules[0]"},
		{"hours is an object", `{"modules": [{"estimated_hours": {"min": 2}}]}`, "modules[0].estimated_hours"},
		{"hours not numeric", `{"modules": [{"estimated_hours": "a few"}]}`, "modules[0].estimated_hours"},
		{"title is a list", `{"modules": [{"title": ["a"]}]}`, "modules[0].title"},
		{"bad capstone flag", `{"modules": [{"is_capstone": "maybe"}]}`, "modules[0].is_capstone"},
		{"objectives not a list", `{"modules": [{"objectives": {"a": 1}}]}`, "modules[0].learning_objectives"},
		{"references not a list", `{"references": "none"}`, "references"},
		{"bad reference confidence", `{"references": [{"title": "x", "confidence": "high"}]}`, "references[0].confidence"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Structure(testInput(t, mustParse(t, tt.raw), nil))
			var se *SchemaError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.field, se.Field)
		})
	}
}

func TestStructureRequiresRequest(t *testing.T) {
	_, err := Structure(Input{Parsed: map[string]any{}, Context: &types.ExecutionContext{}})
	var se *SchemaError
	assert.True(t, errors.As(err, &se))
}

func TestReferencesOrderAndCaps(t *testing.T) {
	req := testRequest()
	req.PDFPath = "/tmp/uploads/syllabus.pdf"
	ec := &types.ExecutionContext{Request: req, PDFText: "week one"}
	ec.WebResults = &types.WebSearchResults{Query: "web"}
	for i := 1; i <= 5; i++ {
		ec.WebResults.Results = append(ec.WebResults.Results, types.WebResult{Title: fmt.Sprintf("W%d", i), URL: fmt.Sprintf("https://w/%d", i)})
		ec.RetrievedDocs = append(ec.RetrievedDocs, types.RetrievedDocument{Title: fmt.Sprintf("D%d", i)})
	}
	parsed := mustParse(t, `{"references": [
		{"title": "Cited", "source_type": "WEB", "confidence": 1.7},
		{"title": ""},
		{"title": "Odd", "source_type": "rumor", "confidence": -1}
	]}`)

	res, err := Structure(testInput(t, parsed, ec))
	require.NoError(t, err)
	refs := res.Outline.References

	var got []string
	for _, r := range refs {
		got = append(got, fmt.Sprintf("%s:%s:%.2f", r.Title, r.SourceType, r.Confidence))
		assert.Equal(t, fixedNow, r.AccessedAt)
	}
	assert.Equal(t, []string{
		"Cited:web:1.00",
		"Odd:generated:0.00",
		"W1:web:0.85", "W2:web:0.85", "W3:web:0.85",
		"D1:retrieved:0.90", "D2:retrieved:0.90", "D3:retrieved:0.90",
		"syllabus.pdf:pdf:0.80",
	}, got)
}

func TestChannelReferencesPDFWithoutPath(t *testing.T) {
	ec := &types.ExecutionContext{Request: testRequest(), PDFText: "text"}
	refs := ChannelReferences(ec, fixedNow)
	require.Len(t, refs, 1)
	assert.Equal(t, "Uploaded reference document", refs[0].Title)

	ec.PDFText = "   "
	assert.Empty(t, ChannelReferences(ec, fixedNow))
}

func TestConfidenceScore(t *testing.T) {
	docs := []types.RetrievedDocument{{Title: "d"}}
	web := &types.WebSearchResults{Results: []types.WebResult{{Title: "w"}}}
	tests := []struct {
		name string
		ec   types.ExecutionContext
		want float64
	}{
		{"no channels", types.ExecutionContext{}, 0.6},
		{"docs", types.ExecutionContext{RetrievedDocs: docs}, 0.75},
		{"web", types.ExecutionContext{WebResults: web}, 0.75},
		{"empty web result set", types.ExecutionContext{WebResults: &types.WebSearchResults{}}, 0.6},
		{"pdf", types.ExecutionContext{PDFText: "x"}, 0.7},
		{"docs and web", types.ExecutionContext{RetrievedDocs: docs, WebResults: web}, 0.9},
		{"all", types.ExecutionContext{RetrievedDocs: docs, WebResults: web, PDFText: "x"}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ConfidenceScore(&tt.ec), 1e-9)
		})
	}
}

func sampleModule(i, objectives int, assessment string) types.Module {
	m := types.Module{ID: fmt.Sprintf("M_%d", i), Title: fmt.Sprintf("Module %d", i), EstimatedHours: 2, AssessmentType: assessment}
	for j := 0; j < objectives; j++ {
		m.LearningObjectives = append(m.LearningObjectives, types.LearningObjective{Statement: "s", BloomLevel: types.BloomApply})
	}
	return m
}

func TestCompletenessScore(t *testing.T) {
	o := &types.CourseOutline{}
	assert.Equal(t, 0.0, CompletenessScore(o))

	o.Modules = []types.Module{sampleModule(1, 0, "")}
	low := CompletenessScore(o)
	assert.InDelta(t, 0.08, low, 1e-9)

	o.Modules = append(o.Modules, sampleModule(2, 3, "quiz"), sampleModule(3, 3, "quiz"))
	mid := CompletenessScore(o)
	assert.Greater(t, mid, low)

	o.Modules[0] = sampleModule(1, 3, "quiz")
	o.References = make([]types.Reference, 10)
	full := CompletenessScore(o)
	assert.Greater(t, full, mid)
	assert.Equal(t, 1.0, full)

	o.Modules = append(o.Modules, sampleModule(4, 3, "quiz"), sampleModule(5, 3, "quiz"))
	assert.Equal(t, 1.0, CompletenessScore(o), "score is capped")
}

func validOutline() *types.CourseOutline {
	o := &types.CourseOutline{CourseTitle: "T", TotalDurationHours: 6}
	for i := 1; i <= 3; i++ {
		o.Modules = append(o.Modules, sampleModule(i, 3, "quiz"))
	}
	o.ConfidenceScore = 0.6
	o.CompletenessScore = 0.75
	return o
}

func TestValidate(t *testing.T) {
	warnings, err := Validate(validOutline())
	require.NoError(t, err)
	assert.Empty(t, warnings)

	tests := []struct {
		name   string
		mutate func(*types.CourseOutline)
		field  string
	}{
		{"empty title", func(o *types.CourseOutline) { o.CourseTitle = " " }, "course_title"},
		{"no modules", func(o *types.CourseOutline) { o.Modules = nil }, "modules"},
		{"module title", func(o *types.CourseOutline) { o.Modules[1].Title = "" }, "modules[1].title"},
		{"module hours", func(o *types.CourseOutline) { o.Modules[2].EstimatedHours = 0 }, "modules[2].estimated_hours"},
		{"bloom level", func(o *types.CourseOutline) { o.Modules[0].LearningObjectives[1].BloomLevel = "guess" }, "modules[0].learning_objectives[1].bloom_level"},
		{"score range", func(o *types.CourseOutline) { o.CompletenessScore = 1.2 }, "completeness_score"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOutline()
			tt.mutate(o)
			_, err := Validate(o)
			var se *SchemaError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.field, se.Field)
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	o := validOutline()
	o.Modules[0].LearningObjectives = o.Modules[0].LearningObjectives[:1]
	o.TotalDurationHours = 20

	warnings, err := Validate(o)
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "modules[0] has 1 learning objectives")
	assert.Contains(t, warnings[1], "drift")
}

// fullOutline returns an outline whose every defaultable field is set.
func fullOutline() *types.CourseOutline {
	return &types.CourseOutline{
		CourseTitle:        "Web Engineering",
		CourseSummary:      "Build and ship web apps.",
		AudienceLevel:      types.LevelUndergraduate,
		AudienceCategory:   types.CategoryCSMajor,
		LearningMode:       types.ModeSynchronous,
		DepthRequirement:   types.DepthApplied,
		TotalDurationHours: 12,
		Prerequisites:      []string{"HTML"},
		LearningOutcomes: []types.LearningObjective{
			{ID: "CO_1", Statement: "Ship an app", BloomLevel: types.BloomCreate, AssessmentMethod: "project"},
		},
		Modules: []types.Module{
			{
				ID: "M_1", Title: "HTTP", Description: "Protocol basics", EstimatedHours: 5.5, AssessmentType: "quiz",
				Prerequisites: []string{"Networking"},
				LearningObjectives: []types.LearningObjective{
					{ID: "LO_1_1", Statement: "Describe verbs", BloomLevel: types.BloomRemember},
					{ID: "LO_1_2", Statement: "Explain caching", BloomLevel: types.BloomUnderstand},
					{ID: "LO_1_3", Statement: "Use curl", BloomLevel: types.BloomApply, AssessmentMethod: "lab"},
				},
				Lessons: []types.Lesson{
					{ID: "L_1_1", Title: "Verbs", Description: "GET and POST", DurationMinutes: 50, KeyConcepts: []string{"idempotency"}, Activities: []string{"demo"}, Resources: []string{"RFC 9110"}},
				},
			},
			{
				ID: "M_2", Title: "Deploy", Description: "", EstimatedHours: 6.5, AssessmentType: "project", IsCapstone: true,
				LearningObjectives: []types.LearningObjective{
					{ID: "LO_2_1", Statement: "Deploy", BloomLevel: types.BloomCreate},
				},
				Lessons: []types.Lesson{{ID: "L_2_1", Title: "Containers", DurationMinutes: 90}},
			},
		},
		AssessmentStrategy: types.AssessmentStrategy{Formative: []string{"quizzes"}, Summative: []string{"final project"}, Description: "Mixed."},
		Capstone:           &types.Capstone{Title: "Shop", Scope: "A store", Deliverables: []string{"Code"}},
		RecommendedTools:   []string{"Go"},
		References: []types.Reference{
			{Title: "MDN", SourceType: types.SourceWeb, URL: "https://developer.mozilla.org", Confidence: 0.9, Author: "Mozilla", AccessedAt: fixedNow},
		},
	}
}

func TestStructureRoundTrip(t *testing.T) {
	want := fullOutline()
	data, err := json.Marshal(want)
	require.NoError(t, err)

	parsed, strategy, err := parse.JSONWithStrategy(string(data))
	require.NoError(t, err)
	assert.Equal(t, parse.StrategyDirect, strategy)

	res, err := Structure(testInput(t, parsed, nil))
	require.NoError(t, err)
	assert.True(t, res.FullySpecified(), "defaults applied: %v", res.Defaults)

	got := res.Outline
	got.ConfidenceScore, got.CompletenessScore = 0, 0
	got.Metadata = types.GenerationMetadata{}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(fullOutline())

	for _, want := range []string{
		"# Web Engineering\n",
		"## M_1: HTTP",
		"## M_2: Deploy (capstone)",
		"- **LO_1_3** [apply] Use curl (assessed by lab)",
		"1. **Verbs** (50 min) GET and POST",
		"## Capstone: Shop",
		"- [web] MDN <https://developer.mozilla.org> (confidence 0.90)",
	} {
		assert.Contains(t, md, want)
	}
	assert.True(t, strings.Index(md, "## M_1") < strings.Index(md, "## M_2"))
}

func TestFormats(t *testing.T) {
	f, err := ParseFormat("md")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)
	_, err = ParseFormat("pdf")
	assert.Error(t, err)

	assert.Equal(t, FormatYAML, FormatForPath("out/course.YML"))
	assert.Equal(t, FormatMarkdown, FormatForPath("course.md"))
	assert.Equal(t, FormatJSON, FormatForPath("course"))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	o := fullOutline()

	for _, name := range []string{"a.json", "b.yaml", "c.md"} {
		require.NoError(t, WriteFile(dir+"/nested/"+name, o))
	}
}
