package utils_test

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/stretchr/testify/assert"
)

func TestCountTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"short", "hi", 1},
		{"simple", "hello world", 2},
		{"long", strings.Repeat("a", 4000), 1000},
		{"multibyte", strings.Repeat("é", 8), 2},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, utils.CountTokens(c.in), c.name)
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	text := strings.Repeat("abcd ", 1000) // ~5000 chars
	trunc := utils.TruncateToTokenLimit(text, 300)
	assert.LessOrEqual(t, utils.CountTokens(trunc), 300)
	assert.Len(t, trunc, 1200)

	assert.Equal(t, "short", utils.TruncateToTokenLimit("short", 10))
	assert.Empty(t, utils.TruncateToTokenLimit("anything", 0))
	assert.Equal(t, "éééé", utils.TruncateToTokenLimit(strings.Repeat("é", 9), 1))
}
