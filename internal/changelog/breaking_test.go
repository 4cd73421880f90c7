package changelog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBreakingChanges(t *testing.T) {
	tests := map[string]struct {
		technical string
		expected  []string
	}{
		"no markers": {
			technical: "## v1.0.0\n\n- Added feature\n- Fixed bug\n",
			expected:  nil,
		},
		"commit footer": {
			technical: "- Some change\nBREAKING CHANGE: config file moved to .landfall/\n",
			expected:  []string{"config file moved to .landfall/"},
		},
		"breaking prefix bullet": {
			technical: "- BREAKING: removed the --legacy flag\n",
			expected:  []string{"removed the --legacy flag"},
		},
		"conventional bang": {
			technical: "- feat(api)!: renamed the token field\n- fix!: strict version parsing\n",
			expected:  []string{"renamed the token field", "strict version parsing"},
		},
		"dedicated heading block": {
			technical: "## Breaking Changes\n\n- Dropped Node 16 support\n- Renamed output keys\n\n## Fixes\n\n- Typo\n",
			expected:  []string{"Dropped Node 16 support", "Renamed output keys"},
		},
		"case insensitive dedupe": {
			technical: "- BREAKING: Removed X\n- breaking: removed x\n",
			expected:  []string{"Removed X"},
		},
		"whitespace collapsed": {
			technical: "BREAKING CHANGE: config   file \t moved\n",
			expected:  []string{"config file moved"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, ExtractBreakingChanges(tc.technical))
		})
	}
}

func TestHasBreakingChanges(t *testing.T) {
	tests := map[string]struct {
		technical string
		expected  bool
	}{
		"plain changelog":              {"- Added feature\n", false},
		"footer marker":                {"BREAKING CHANGE: something\n", true},
		"bare heading without bullets": {"## Breaking Changes\n\nSee migration guide.\n", true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, HasBreakingChanges(tc.technical))
		})
	}
}

func TestRenderBreakingSection(t *testing.T) {
	t.Parallel()

	assert.Empty(t, RenderBreakingSection("- ordinary change\n"))

	rendered := RenderBreakingSection("- BREAKING: removed flag\n")
	assert.Contains(t, rendered, "Breaking changes detected")
	assert.Contains(t, rendered, "- removed flag\n")
}
