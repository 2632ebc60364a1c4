package utils_test

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Salary by Department": "salary_by_department",
		"  Q1/Q2 revenue!  ":   "q1_q2_revenue",
		"year-over-year":       "year-over-year",
		"Überblick":            "überblick",
		"???":                  "output",
		"":                     "output",
	}
	for in, want := range cases {
		assert.Equal(t, want, utils.Slug(in), in)
	}
}

func TestArtifactPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "outputs")
	p, err := utils.ArtifactPath(dir, "Top Earners", ".png")
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, dir, filepath.Dir(p))
	assert.Regexp(t, regexp.MustCompile(`^top_earners_[0-9a-f]{6}\.png$`), filepath.Base(p))

	q, err := utils.ArtifactPath(dir, "Top Earners", ".png")
	require.NoError(t, err)
	assert.NotEqual(t, p, q)
}

func TestSafeWriteFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "report.md")
	require.NoError(t, utils.SafeWriteFile(p, []byte("# one")))
	require.NoError(t, utils.SafeWriteFile(p, []byte("# two")))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "# two", string(b))
	assert.NoFileExists(t, p+".tmp")
}
