package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEntries(t *testing.T, path string) []ReleaseEntry {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []ReleaseEntry
	require.NoError(t, json.Unmarshal(raw, &entries))
	return entries
}

func TestUpsertFeedEntry_StartsFreshFeed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "feed.json")
	entry := ReleaseEntry{Version: "1.0.0", Date: "2026-01-01", Notes: "## New Features\n\n- First.\n"}
	require.NoError(t, UpsertFeedEntry(path, entry))

	entries := readEntries(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, entry, entries[0])

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(raw), "\n"), "feed file ends with newline")
}

func TestUpsertFeedEntry_AppendsNewVersion(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, UpsertFeedEntry(path, ReleaseEntry{Version: "1.0.0"}))
	require.NoError(t, UpsertFeedEntry(path, ReleaseEntry{Version: "1.1.0"}))

	entries := readEntries(t, path)
	require.Len(t, entries, 2)
	assert.Equal(t, "1.0.0", entries[0].Version)
	assert.Equal(t, "1.1.0", entries[1].Version)
}

func TestUpsertFeedEntry_ReplacesInPlace(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, UpsertFeedEntry(path, ReleaseEntry{Version: "1.0.0", Notes: "old"}))
	require.NoError(t, UpsertFeedEntry(path, ReleaseEntry{Version: "1.1.0"}))
	require.NoError(t, UpsertFeedEntry(path, ReleaseEntry{Version: "v1.0.0", Notes: "new"}))

	entries := readEntries(t, path)
	require.Len(t, entries, 2, "v-prefixed version matches the bare one")
	assert.Equal(t, "v1.0.0", entries[0].Version, "replaced entry keeps its position")
	assert.Equal(t, "new", entries[0].Notes)
	assert.Equal(t, "1.1.0", entries[1].Version)
}

func TestUpsertFeedEntry_EmptyFileTreatedAsFresh(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))
	require.NoError(t, UpsertFeedEntry(path, ReleaseEntry{Version: "1.0.0"}))

	entries := readEntries(t, path)
	require.Len(t, entries, 1)
}

func TestUpsertFeedEntry_CorruptFeedFails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	err := UpsertFeedEntry(path, ReleaseEntry{Version: "1.0.0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing feed")
}
