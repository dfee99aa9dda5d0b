package modes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/course-engine/pkg/types"
)

func TestLookupBuiltins(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		mode     types.LearningMode
		name     string
		capstone bool
	}{
		{types.ModeSynchronous, "live-instruction", false},
		{types.ModeAsynchronous, "self-paced", false},
		{types.ModeHybrid, "blended", true},
		{types.LearningMode("cohort"), "standard", false},
		{types.LearningMode(""), "standard", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			tmpl := c.Lookup(tt.mode)
			assert.Equal(t, tt.name, tmpl.Name)
			assert.Equal(t, tt.capstone, tmpl.CapstoneRequired)
			assert.NotEmpty(t, tmpl.AssessmentEmphasis)
		})
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	c := DefaultCatalog()
	tmpl := c.Lookup(types.ModeHybrid)
	tmpl.AssessmentEmphasis[0] = "mutated"

	assert.Equal(t, "projects", c.Lookup(types.ModeHybrid).AssessmentEmphasis[0])
}

func TestLoadCatalogOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
synchronous:
  assessment_emphasis: [oral exams]
  capstone_required: true
hybrid:
  description: Flipped classroom.
`), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)

	sync := c.Lookup(types.ModeSynchronous)
	assert.Equal(t, "live-instruction", sync.Name)
	assert.Equal(t, []string{"oral exams"}, sync.AssessmentEmphasis)
	assert.True(t, sync.CapstoneRequired)

	hybrid := c.Lookup(types.ModeHybrid)
	assert.Equal(t, "Flipped classroom.", hybrid.Description)
	assert.True(t, hybrid.CapstoneRequired, "unset flag keeps built-in value")
}

func TestLoadCatalogErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("cohort:\n  name: x\n"), 0o644))
	_, err = LoadCatalog(bad)
	assert.ErrorContains(t, err, "unknown learning mode")

	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, []string{"asynchronous", "default", "hybrid", "synchronous"}, c.Keys())
}
