// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/course-engine/pkg/types"
)

// Format names an output encoding for an outline.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts the format names used by the CLI and API.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unsupported format %q (want json, yaml or markdown)", s)
}

// FormatForPath picks a format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".md", ".markdown":
		return FormatMarkdown
	}
	return FormatJSON
}

// Encode writes o to w in the given format.
func Encode(w io.Writer, o *types.CourseOutline, f Format) error {
	switch f {
	case FormatYAML:
		data, err := yaml.Marshal(o)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatMarkdown:
		_, err := io.WriteString(w, RenderMarkdown(o))
		return err
	default:
		data, err := json.MarshalIndent(o, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		_, err = w.Write(append(data, '\n'))
		return err
	}
}

// WriteFile writes o to path, choosing the encoding from the extension.
func WriteFile(path string, o *types.CourseOutline) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Encode(f, o, FormatForPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// RenderMarkdown renders an outline as a Markdown document for educators.
func RenderMarkdown(o *types.CourseOutline) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", o.CourseTitle)
	if o.CourseSummary != "" {
		fmt.Fprintf(&b, "%s\n\n", o.CourseSummary)
	}
	fmt.Fprintf(&b, "| Audience | Category | Mode | Depth | Duration |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %s | %s | %s | %s | %d hours |\n\n",
		o.AudienceLevel, o.AudienceCategory, o.LearningMode, o.DepthRequirement, o.TotalDurationHours)

	writeList(&b, "Prerequisites", o.Prerequisites)

	if len(o.LearningOutcomes) > 0 {
		b.WriteString("## Learning Outcomes\n\n")
		for _, lo := range o.LearningOutcomes {
			writeObjective(&b, lo)
		}
		b.WriteString("\n")
	}

	for _, m := range o.Modules {
		title := m.Title
		if m.IsCapstone {
			title += " (capstone)"
		}
		fmt.Fprintf(&b, "## %s: %s\n\n", m.ID, title)
		fmt.Fprintf(&b, "*%.1f hours · assessment: %s*\n\n", m.EstimatedHours, m.AssessmentType)
		if m.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", m.Description)
		}
		if len(m.Prerequisites) > 0 {
			fmt.Fprintf(&b, "Prerequisites: %s\n\n", strings.Join(m.Prerequisites, ", "))
		}
		if len(m.LearningObjectives) > 0 {
			b.WriteString("### Learning Objectives\n\n")
			for _, lo := range m.LearningObjectives {
				writeObjective(&b, lo)
			}
			b.WriteString("\n")
		}
		if len(m.Lessons) > 0 {
			b.WriteString("### Lessons\n\n")
			for i, l := range m.Lessons {
				fmt.Fprintf(&b, "%d. **%s** (%d min)", i+1, l.Title, l.DurationMinutes)
				if l.Description != "" {
					fmt.Fprintf(&b, " %s", l.Description)
				}
				b.WriteString("\n")
				if len(l.KeyConcepts) > 0 {
					fmt.Fprintf(&b, "   - Key concepts: %s\n", strings.Join(l.KeyConcepts, ", "))
				}
				if len(l.Activities) > 0 {
					fmt.Fprintf(&b, "   - Activities: %s\n", strings.Join(l.Activities, ", "))
				}
			}
			b.WriteString("\n")
		}
	}

	if !o.AssessmentStrategy.IsZero() {
		b.WriteString("## Assessment Strategy\n\n")
		if o.AssessmentStrategy.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", o.AssessmentStrategy.Description)
		}
		if len(o.AssessmentStrategy.Formative) > 0 {
			fmt.Fprintf(&b, "- Formative: %s\n", strings.Join(o.AssessmentStrategy.Formative, ", "))
		}
		if len(o.AssessmentStrategy.Summative) > 0 {
			fmt.Fprintf(&b, "- Summative: %s\n", strings.Join(o.AssessmentStrategy.Summative, ", "))
		}
		b.WriteString("\n")
	}

	if c := o.Capstone; c != nil {
		fmt.Fprintf(&b, "## Capstone: %s\n\n", c.Title)
		if c.Scope != "" {
			fmt.Fprintf(&b, "%s\n\n", c.Scope)
		}
		writeList(&b, "", c.Deliverables)
	}

	writeList(&b, "Recommended Tools", o.RecommendedTools)

	if len(o.References) > 0 {
		b.WriteString("## References\n\n")
		for _, r := range o.References {
			fmt.Fprintf(&b, "- [%s] %s", r.SourceType, r.Title)
			if r.URL != "" {
				fmt.Fprintf(&b, " <%s>", r.URL)
			}
			fmt.Fprintf(&b, " (confidence %.2f)\n", r.Confidence)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "---\nConfidence %.2f · Completeness %.2f\n", o.ConfidenceScore, o.CompletenessScore)
	return b.String()
}

func writeObjective(b *strings.Builder, lo types.LearningObjective) {
	fmt.Fprintf(b, "- ")
	if lo.ID != "" {
		fmt.Fprintf(b, "**%s** ", lo.ID)
	}
	fmt.Fprintf(b, "[%s] %s", lo.BloomLevel, lo.Statement)
	if lo.AssessmentMethod != "" {
		fmt.Fprintf(b, " (assessed by %s)", lo.AssessmentMethod)
	}
	b.WriteString("\n")
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	if heading != "" {
		fmt.Fprintf(b, "## %s\n\n", heading)
	}
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}
