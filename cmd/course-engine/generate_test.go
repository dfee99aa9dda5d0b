package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/course-engine/pkg/types"
)

func newRequestFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("generate", pflag.ContinueOnError)
	addRequestFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestRequestFromFlagsDefaults(t *testing.T) {
	req, err := requestFromFlags(newRequestFlags(t, "--title", "Intro to Go", "--description", "Concurrency and tooling"))
	require.NoError(t, err)

	assert.Equal(t, "Intro to Go", req.CourseTitle)
	assert.Equal(t, types.LevelUndergraduate, req.AudienceLevel)
	assert.Equal(t, types.CategorySelfLearner, req.AudienceCategory)
	assert.Equal(t, types.ModeSynchronous, req.LearningMode)
	assert.Equal(t, types.DepthApplied, req.DepthRequirement)
	assert.Equal(t, 40, req.DurationHours)
	assert.NoError(t, req.Validate())
}

func TestRequestFromFlagsFileOverlay(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		file string
		body string
	}{
		{
			name: "yaml",
			file: "req.yaml",
			body: `course_title: Data Engineering
course_description: Pipelines and warehouses
audience_level: professional
audience_category: industry_professional
learning_mode: hybrid
depth_requirement: implementation
duration_hours: 24
`,
		},
		{
			name: "json",
			file: "req.json",
			body: `{"course_title": "Data Engineering", "course_description": "Pipelines and warehouses",
"audience_level": "professional", "audience_category": "industry_professional",
"learning_mode": "hybrid", "depth_requirement": "implementation", "duration_hours": 24}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))

			req, err := requestFromFlags(newRequestFlags(t, "--request", path, "--hours", "30"))
			require.NoError(t, err)

			assert.Equal(t, "Data Engineering", req.CourseTitle)
			assert.Equal(t, types.LevelProfessional, req.AudienceLevel)
			assert.Equal(t, types.ModeHybrid, req.LearningMode)
			assert.Equal(t, types.DepthImplementation, req.DepthRequirement)
			assert.Equal(t, 30, req.DurationHours, "explicit flag overrides the file")
		})
	}
}

func TestRequestFromFlagsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("course_title: [unterminated"), 0o644))

	_, err := requestFromFlags(newRequestFlags(t, "--request", path))
	assert.ErrorContains(t, err, "parsing request file")

	_, err = requestFromFlags(newRequestFlags(t, "--request", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.ErrorContains(t, err, "reading request file")
}
