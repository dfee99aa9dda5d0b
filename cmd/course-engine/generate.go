// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/course-engine/internal/agent"
	"github.com/pdiddy/course-engine/internal/outline"
	"github.com/pdiddy/course-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a course outline",
	Long: `Generate builds a course outline from educator requirements given as flags
or as a YAML/JSON request file (--request). Flags override fields from the
file.

Context is gathered from the reference library, web search and, when --pdf
is set, a syllabus document before a single LLM call produces the outline.
--dry-run skips web search and the LLM and fills the outline from built-in
templates, which is useful for checking a request and a config.`,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	req, err := requestFromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	formatFlag, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("output")
	format, err := outline.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	noLibrary, _ := cmd.Flags().GetBool("no-library")
	noWeb, _ := cmd.Flags().GetBool("no-web")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	p, err := buildPipeline(ctx, cfg, channelSwitches{
		noLibrary: noLibrary,
		noWeb:     noWeb,
		noPDF:     req.PDFPath == "",
		dryRun:    dryRun,
	}, logger)
	if err != nil {
		return err
	}
	defer p.close()

	res, err := p.orchestrator.Generate(ctx, req, agent.GenerateOptions{NoLibrary: noLibrary, NoWeb: noWeb})
	if err != nil {
		return err
	}

	if len(res.Defaults) > 0 {
		fmt.Fprintf(os.Stderr, "Defaults applied (%d): %s\n", len(res.Defaults), strings.Join(res.Defaults, ", "))
	}

	if outPath != "" {
		if cmd.Flags().Changed("format") {
			return writeOutline(outPath, res.Outline, format)
		}
		if err := outline.WriteFile(outPath, res.Outline); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s (%d modules, confidence %.2f, completeness %.2f)\n",
			outPath, len(res.Outline.Modules), res.Outline.ConfidenceScore, res.Outline.CompletenessScore)
		return nil
	}
	return outline.Encode(os.Stdout, res.Outline, format)
}

func writeOutline(path string, o *types.CourseOutline, format outline.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := outline.Encode(f, o, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// requestFromFlags loads --request when given and overlays every request
// flag the user set. Flag defaults fill fields the file left empty.
func requestFromFlags(flags *pflag.FlagSet) (*types.CourseRequest, error) {
	req := &types.CourseRequest{}
	if path, _ := flags.GetString("request"); path != "" {
		r, err := readRequestFile(path)
		if err != nil {
			return nil, err
		}
		req = r
	}

	setString := func(name string, dst *string) {
		if flags.Changed(name) || *dst == "" {
			*dst, _ = flags.GetString(name)
		}
	}
	setString("title", &req.CourseTitle)
	setString("description", &req.CourseDescription)
	setString("pdf", &req.PDFPath)
	setString("constraints", &req.CustomConstraints)

	for name, dst := range map[string]*string{
		"level":    (*string)(&req.AudienceLevel),
		"category": (*string)(&req.AudienceCategory),
		"mode":     (*string)(&req.LearningMode),
		"depth":    (*string)(&req.DepthRequirement),
	} {
		setString(name, dst)
	}

	if flags.Changed("hours") || req.DurationHours == 0 {
		req.DurationHours, _ = flags.GetInt("hours")
	}
	return req, nil
}

// readRequestFile decodes a CourseRequest from YAML or JSON. JSON is valid
// YAML, so one decoder serves both.
func readRequestFile(path string) (*types.CourseRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading request file: %w", err)
	}
	var req types.CourseRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parsing request file %s: %w", path, err)
	}
	return &req, nil
}

// addRequestFlags registers one flag per CourseRequest field.
func addRequestFlags(fs *pflag.FlagSet) {
	fs.String("request", "", "YAML or JSON file holding the course request")
	fs.String("title", "", "course title")
	fs.String("description", "", "course description")
	fs.String("level", "undergraduate", "audience level: high_school, undergraduate, postgraduate, professional")
	fs.String("category", "self_learner", "audience category: cs_major, non_cs_domain, industry_professional, self_learner")
	fs.String("mode", "synchronous", "learning mode: synchronous, asynchronous, hybrid")
	fs.String("depth", "applied", "depth: conceptual, applied, implementation, research")
	fs.Int("hours", 40, "total course duration in hours (1-500)")
	fs.String("pdf", "", "syllabus or reference document (.pdf, .md, .txt)")
	fs.String("constraints", "", "free-text constraints appended to the prompt")
}

func init() {
	addRequestFlags(generateCmd.Flags())

	generateCmd.Flags().String("format", "json", "output format: json, yaml or markdown")
	generateCmd.Flags().StringP("output", "o", "", "write the outline to a file (format from extension unless --format is set)")
	generateCmd.Flags().Bool("no-library", false, "skip the reference library")
	generateCmd.Flags().Bool("no-web", false, "skip web search")
	generateCmd.Flags().Bool("dry-run", false, "use built-in templates instead of an LLM")

	rootCmd.AddCommand(generateCmd)
}
