// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt assembles the layered instruction sent to the LLM for
// course-outline synthesis.
package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/pdiddy/course-engine/internal/duration"
	"github.com/pdiddy/course-engine/internal/modes"
	"github.com/pdiddy/course-engine/internal/pdf"
	"github.com/pdiddy/course-engine/pkg/types"
)

// Per-channel limits for the context summary layer.
const (
	MaxItemsPerChannel = 3
	DocExcerptLen      = 300
	WebSnippetLen      = 200
	PDFExcerptLen      = 500
)

// ErrMissingRequest is returned when the execution context has no course request.
var ErrMissingRequest = errors.New("execution context has no course request")

// Persona is the fixed role statement that opens every prompt.
const Persona = `You are an expert instructional designer and curriculum architect. You design rigorous, well-sequenced university and professional courses whose learning objectives follow Bloom's taxonomy and whose assessments measure those objectives. You respond only with the JSON object requested.`

// Prompt is an assembled prompt. System carries the persona for providers
// with a separate system channel; User carries the remaining layers.
type Prompt struct {
	System string
	User   string
}

// Text returns both parts joined, for providers without a system channel.
func (p Prompt) Text() string {
	return p.System + "\n\n" + p.User
}

// userTmpl renders the schema, request, context and constraints layers.
var userTmpl = template.Must(template.New("outline").Funcs(template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"join": strings.Join,
}).Parse(`## Response format
Respond with a single JSON object and nothing else. Use exactly these fields:
{
  "course_title": string,
  "course_summary": string,
  "prerequisites": [string],
  "learning_outcomes": [{"statement": string, "bloom_level": string, "assessment_method": string}],
  "modules": [
    {
      "id": string,
      "title": string,
      "description": string,
      "estimated_hours": number,
      "assessment_type": string,
      "is_capstone": boolean,
      "prerequisites": [string],
      "learning_objectives": [{"id": string, "statement": string, "bloom_level": string, "assessment_method": string}],
      "lessons": [{"id": string, "title": string, "description": string, "duration_minutes": integer, "key_concepts": [string], "activities": [string], "resources": [string]}]
    }
  ],
  "assessment_strategy": {"formative": [string], "summative": [string], "description": string},
  "capstone": {"title": string, "scope": string, "deliverables": [string]},
  "recommended_tools": [string],
  "references": [{"title": string, "source_type": "retrieved" | "web" | "pdf" | "generated", "url": string, "author": string, "institution": string, "confidence": number}]
}
bloom_level must be one of: remember, understand, apply, analyze, evaluate, create.

## Course request
- Title: {{.Request.CourseTitle}}
- Description: {{.Request.CourseDescription}}
- Audience level: {{.Request.AudienceLevel}}
- Audience category: {{.Request.AudienceCategory}}
- Learning mode: {{.Request.LearningMode}}
- Depth requirement: {{.Request.DepthRequirement}}
- Total duration: {{.Request.DurationHours}} hours

## Available context
Retrieved documents:
{{- if .Docs}}
{{- range $i, $d := .Docs}}
{{inc $i}}. {{$d.Title}}{{if $d.URL}} ({{$d.URL}}){{end}}: {{$d.Excerpt}}
{{- end}}
{{- else}} none provided.{{end}}
Web results:
{{- if .Web}}
{{- range $i, $w := .Web}}
{{inc $i}}. {{$w.Title}}{{if $w.URL}} ({{$w.URL}}){{end}}: {{$w.Excerpt}}
{{- end}}
{{- else}} none provided.{{end}}
Reference document excerpts:
{{- if .PDF}}
{{- range $i, $p := .PDF}}
{{inc $i}}. {{$p}}
{{- end}}
{{- else}} none provided.{{end}}
Ground the outline in this context where it is relevant and cite what you use in "references".

## Constraints
- Produce exactly {{.Plan.NumModules}} modules.
- Target {{printf "%.1f" .Plan.AvgHoursPerModule}} hours per module; module hours must sum to {{.Plan.TotalHours}}.
- Each module has 3 to 5 learning objectives and about {{.Plan.Mode.LessonsPerModule}} lessons.
- Start at the "{{.Plan.Depth.StartingLevel}}" Bloom level and emphasize: {{join .BloomLevels ", "}}. {{.Plan.Depth.Description}}
- Delivery template "{{.Template.Name}}": {{.Template.Description}}
- Assessment emphasis: {{join .Template.AssessmentEmphasis ", "}}.
{{- if .Template.Activities}}
- Suggested activities: {{join .Template.Activities ", "}}.
{{- end}}
{{- if .Template.CapstoneRequired}}
- The final module must be a capstone project (is_capstone: true) and "capstone" must be filled in.
{{- else}}
- A capstone project is optional.
{{- end}}
{{- if .Request.CustomConstraints}}
- Additional requirements from the educator: {{.Request.CustomConstraints}}
{{- end}}
`))

type excerpt struct {
	Title   string
	URL     string
	Excerpt string
}

type templateData struct {
	Request     *types.CourseRequest
	Plan        duration.Plan
	Template    modes.Template
	BloomLevels []string
	Docs        []excerpt
	Web         []excerpt
	PDF         []string
}

// Options tunes the context summary. Zero fields use the package defaults.
type Options struct {
	// PDFChunkSize is the size of each reference document excerpt, in characters.
	PDFChunkSize int
}

// Assemble renders the five prompt layers: persona, response schema,
// verbatim request, context summary and constraints. Output is
// deterministic for identical inputs.
func Assemble(ec *types.ExecutionContext, plan duration.Plan, tmpl modes.Template) (Prompt, error) {
	return AssembleWith(ec, plan, tmpl, Options{})
}

// AssembleWith is Assemble with explicit options.
func AssembleWith(ec *types.ExecutionContext, plan duration.Plan, tmpl modes.Template, opts Options) (Prompt, error) {
	if ec == nil || ec.Request == nil {
		return Prompt{}, ErrMissingRequest
	}

	data := templateData{
		Request:  ec.Request,
		Plan:     plan,
		Template: tmpl,
	}
	for _, l := range plan.Depth.PrimaryBloomLevels {
		data.BloomLevels = append(data.BloomLevels, string(l))
	}

	for _, d := range ec.RetrievedDocs {
		if len(data.Docs) == MaxItemsPerChannel {
			break
		}
		data.Docs = append(data.Docs, excerpt{Title: oneLine(d.Title), URL: d.URL, Excerpt: Truncate(oneLine(d.Content), DocExcerptLen)})
	}
	if ec.WebResults != nil {
		for _, w := range ec.WebResults.Results {
			if len(data.Web) == MaxItemsPerChannel {
				break
			}
			data.Web = append(data.Web, excerpt{Title: oneLine(w.Title), URL: w.URL, Excerpt: Truncate(oneLine(w.Snippet), WebSnippetLen)})
		}
	}
	if ec.HasPDFText() {
		size := opts.PDFChunkSize
		if size <= 0 {
			size = PDFExcerptLen
		}
		for _, c := range pdf.Chunk(ec.PDFText, size) {
			if len(data.PDF) == MaxItemsPerChannel {
				break
			}
			data.PDF = append(data.PDF, oneLine(c))
		}
	}

	var buf bytes.Buffer
	if err := userTmpl.Execute(&buf, data); err != nil {
		return Prompt{}, fmt.Errorf("rendering prompt: %w", err)
	}
	return Prompt{System: Persona, User: buf.String()}, nil
}

// Truncate shortens s to at most n characters, ending with "..." when cut.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return string([]rune(s)[:n])
	}
	return string([]rune(s)[:n-3]) + "..."
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
