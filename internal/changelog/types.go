// Package changelog selects and extracts the technical changelog slice
// that feeds release-note synthesis. It understands four sources: the
// generated changelog file, the just-created release body, a PR-derived
// pseudo-changelog, and an auto mode that tries them in order.
package changelog

import (
	"fmt"
	"strings"
)

// SourceKind identifies where a changelog slice came from.
type SourceKind string

const (
	// SourceAuto tries changelog, then release-body, then prs, accepting
	// the first source that yields non-empty content.
	SourceAuto SourceKind = "auto"
	// SourceChangelog extracts the most recent version section from the
	// generated changelog file.
	SourceChangelog SourceKind = "changelog"
	// SourceReleaseBody uses the body of the just-created release record.
	SourceReleaseBody SourceKind = "release-body"
	// SourcePRs uses a changelog-like list derived from merged PR titles
	// and labels since the previous tag.
	SourcePRs SourceKind = "prs"
)

// Sources lists the valid changelog-source modes in their auto-mode order.
func Sources() []SourceKind {
	return []SourceKind{SourceAuto, SourceChangelog, SourceReleaseBody, SourcePRs}
}

// NormalizeSource validates and canonicalizes a changelog-source string.
func NormalizeSource(value string) (SourceKind, error) {
	key := SourceKind(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range Sources() {
		if key == s {
			return key, nil
		}
	}
	names := make([]string, 0, len(Sources()))
	for _, s := range Sources() {
		names = append(names, string(s))
	}
	return "", fmt.Errorf("changelog-source must be one of: %s", strings.Join(names, ", "))
}

// Slice is the technical changelog text chosen for synthesis, created
// once per run and immutable thereafter.
type Slice struct {
	Text   string
	Source SourceKind
}

// EmptyError reports that every candidate source yielded empty content.
// It short-circuits the pipeline before any network call.
type EmptyError struct {
	Mode SourceKind
}

func (e *EmptyError) Error() string {
	if e.Mode == SourceAuto {
		return "no technical changelog source available for changelog-source 'auto'"
	}
	return fmt.Sprintf("selected changelog-source %q is unavailable", string(e.Mode))
}

// NormalizeVersion strips surrounding whitespace and a leading "v" from a
// version or tag string.
func NormalizeVersion(version string) string {
	return strings.TrimPrefix(strings.TrimSpace(version), "v")
}
