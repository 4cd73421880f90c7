package changelog

import (
	"os"
	"regexp"
	"strings"

	"github.com/misty-step/landfall/internal/log"
)

var sectionHeadingRE = regexp.MustCompile(`(?m)^##\s+.+$`)

// Resolver picks exactly one changelog slice for a pipeline run.
type Resolver struct {
	// Mode selects the source, or SourceAuto to try candidates in order.
	Mode SourceKind
	// Version locates a changelog section; empty means the latest section.
	Version string
	// ChangelogPath is the generated markdown changelog file.
	ChangelogPath string
	// ReleaseBodyPath optionally holds the just-created release body.
	ReleaseBodyPath string
	// PRChangelogPath optionally holds PR-derived changelog markdown.
	PRChangelogPath string

	Logger *log.Logger
}

// Resolve produces exactly one Slice, or an *EmptyError when every
// candidate source yields empty content. No network access: all sources
// are already file-resident by the time the resolver runs.
func (r Resolver) Resolve() (Slice, error) {
	logger := r.Logger
	if logger == nil {
		logger = log.Nop()
	}

	type candidate struct {
		kind SourceKind
		path string
	}

	var candidates []candidate
	switch r.Mode {
	case SourceAuto:
		candidates = []candidate{
			{SourceChangelog, r.ChangelogPath},
			{SourceReleaseBody, r.ReleaseBodyPath},
			{SourcePRs, r.PRChangelogPath},
		}
	case SourceChangelog:
		candidates = []candidate{{SourceChangelog, r.ChangelogPath}}
	case SourceReleaseBody:
		candidates = []candidate{{SourceReleaseBody, r.ReleaseBodyPath}}
	case SourcePRs:
		candidates = []candidate{{SourcePRs, r.PRChangelogPath}}
	default:
		return Slice{}, &EmptyError{Mode: r.Mode}
	}

	for _, c := range candidates {
		if c.path == "" {
			continue
		}
		raw, err := os.ReadFile(c.path)
		if err != nil {
			// A missing optional source is not an error in auto mode;
			// the next candidate may still satisfy the run.
			continue
		}
		text := strings.TrimSpace(string(raw))
		if text == "" {
			continue
		}
		if c.kind == SourceChangelog {
			text = ExtractReleaseSection(text, r.Version, logger)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		logger.Event("changelog_source_selected",
			log.String("stage", "changelog-source"),
			log.String("source", string(c.kind)),
		)
		return Slice{Text: text, Source: c.kind}, nil
	}

	return Slice{}, &EmptyError{Mode: r.Mode}
}

// ExtractReleaseSection returns the changelog section for version, or the
// most recent section when version is empty or not found. Input without
// any "## " headings is returned whole.
func ExtractReleaseSection(changelogText, version string, logger *log.Logger) string {
	if logger == nil {
		logger = log.Nop()
	}
	headings := sectionHeadingRE.FindAllStringIndex(changelogText, -1)
	if len(headings) == 0 {
		return strings.TrimSpace(changelogText)
	}

	target := 0
	if version != "" {
		normalized := strings.ToLower(NormalizeVersion(version))
		found := false
		for i, loc := range headings {
			heading := strings.ToLower(changelogText[loc[0]:loc[1]])
			if strings.Contains(heading, normalized) || strings.Contains(heading, "v"+normalized) {
				target = i
				found = true
				break
			}
		}
		if !found {
			logger.Warn("version_not_found",
				log.String("stage", "changelog-source"),
				log.String("version", version),
				log.String("fallback", "latest_section"),
			)
		}
	}

	start := headings[target][0]
	end := len(changelogText)
	if target+1 < len(headings) {
		end = headings[target+1][0]
	}
	return strings.TrimSpace(changelogText[start:end])
}
