package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ReleaseEntry is one release in the JSON feed. The feed is a JSON array
// ordered oldest to newest; consumers index it by version.
type ReleaseEntry struct {
	Version        string `json:"version"`
	Date           string `json:"date"`
	Notes          string `json:"notes"`
	NotesPlaintext string `json:"notes_plaintext"`
	NotesHTML      string `json:"notes_html"`
}

// UpsertFeedEntry inserts or replaces the entry for its version in the
// feed at path. A missing or empty file starts a fresh feed. Matching is
// by version with any leading "v" ignored, and a replaced entry keeps
// its position so history order is stable across re-releases.
func UpsertFeedEntry(path string, entry ReleaseEntry) error {
	entries, err := readFeed(path)
	if err != nil {
		return err
	}

	replaced := false
	want := normalizeVersion(entry.Version)
	for i, existing := range entries {
		if normalizeVersion(existing.Version) == want {
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling feed: %w", err)
	}
	return atomicWriteFile(path, append(data, '\n'))
}

func readFeed(path string) ([]ReleaseEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading feed: %w", err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return nil, nil
	}

	var entries []ReleaseEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	return entries, nil
}

func normalizeVersion(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}
