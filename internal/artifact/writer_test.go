package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipelineerrors "github.com/misty-step/landfall/internal/errors"
)

const sampleNotes = "## New Features\n\n- You can now do **more**.\n"

func TestInterpolatePath(t *testing.T) {
	tests := map[string]struct {
		template string
		version  string
		expected string
	}{
		"substitutes version": {
			template: "release-notes/{version}.md",
			version:  "1.2.3",
			expected: "release-notes/1.2.3.md",
		},
		"no placeholder": {
			template: "release-notes/latest.md",
			version:  "1.2.3",
			expected: "release-notes/latest.md",
		},
		"multiple placeholders": {
			template: "{version}/{version}.md",
			version:  "2.0.0",
			expected: "2.0.0/2.0.0.md",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, InterpolatePath(tc.template, tc.version))
		})
	}
}

func TestWriter_WriteAll_AllFormats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := &Writer{
		Date: "2026-08-24",
		Targets: []Target{
			{PathTemplate: filepath.Join(dir, "notes", "{version}.md"), Format: FormatMarkdown},
			{PathTemplate: filepath.Join(dir, "notes", "{version}.txt"), Format: FormatPlaintext},
			{PathTemplate: filepath.Join(dir, "notes", "{version}.html"), Format: FormatHTML},
			{PathTemplate: filepath.Join(dir, "feed.json"), Format: FormatJSONFeed},
		},
	}

	outcomes, err := w.WriteAll("1.2.3", sampleNotes)
	require.NoError(t, err)
	require.Len(t, outcomes, 4)
	for _, o := range outcomes {
		assert.NoError(t, o.Err)
	}

	markdown, err := os.ReadFile(filepath.Join(dir, "notes", "1.2.3.md"))
	require.NoError(t, err)
	assert.Equal(t, sampleNotes, string(markdown))

	plaintext, err := os.ReadFile(filepath.Join(dir, "notes", "1.2.3.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(plaintext), "- You can now do more.")
	assert.NotContains(t, string(plaintext), "**")

	htmlOut, err := os.ReadFile(filepath.Join(dir, "notes", "1.2.3.html"))
	require.NoError(t, err)
	assert.Contains(t, string(htmlOut), "<h2>New Features</h2>")

	var entries []ReleaseEntry
	raw, err := os.ReadFile(filepath.Join(dir, "feed.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "1.2.3", entries[0].Version)
	assert.Equal(t, "2026-08-24", entries[0].Date)
}

func TestWriter_WriteAll_IndependentFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	// A file where a directory is needed makes that target fail.
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	w := &Writer{
		Targets: []Target{
			{PathTemplate: filepath.Join(blocked, "{version}.md"), Format: FormatMarkdown},
			{PathTemplate: filepath.Join(dir, "{version}.txt"), Format: FormatPlaintext},
		},
	}

	outcomes, err := w.WriteAll("1.0.0", sampleNotes)
	require.Len(t, outcomes, 2)
	assert.Error(t, outcomes[0].Err)
	assert.NoError(t, outcomes[1].Err, "one failing target never blocks the others")

	pe := pipelineerrors.AsPipelineError(err)
	require.NotNil(t, pe)
	assert.Equal(t, pipelineerrors.Publish, pe.Category)
	assert.Equal(t, pipelineerrors.StageArtifacts, pe.Stage)
	assert.Contains(t, pe.Message, "1 of 2 artifact targets failed")

	_, statErr := os.Stat(filepath.Join(dir, "1.0.0.txt"))
	assert.NoError(t, statErr)
}

func TestWriter_WriteAll_UnknownFormat(t *testing.T) {
	t.Parallel()

	w := &Writer{Targets: []Target{{PathTemplate: filepath.Join(t.TempDir(), "out"), Format: Format("pdf")}}}
	_, err := w.WriteAll("1.0.0", sampleNotes)
	require.Error(t, err)
}

func TestWriter_WriteAll_Rerun_Converges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := &Writer{
		Date: "2026-08-24",
		Targets: []Target{
			{PathTemplate: filepath.Join(dir, "{version}.md"), Format: FormatMarkdown},
			{PathTemplate: filepath.Join(dir, "feed.json"), Format: FormatJSONFeed},
		},
	}

	_, err := w.WriteAll("1.2.3", sampleNotes)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(dir, "feed.json"))
	require.NoError(t, err)

	_, err = w.WriteAll("1.2.3", sampleNotes)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, "feed.json"))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestAtomicWriteFile_NoTempResidue(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.md")
	require.NoError(t, atomicWriteFile(path, []byte("content\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content\n", string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
