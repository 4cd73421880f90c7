package prompt

import (
	"regexp"
	"strings"

	"github.com/misty-step/landfall/internal/changelog"
)

// Significance classifies a release for bullet-target estimation.
type Significance string

const (
	SignificanceMajor   Significance = "major"
	SignificanceFeature Significance = "feature"
	SignificancePatch   Significance = "patch"
)

// bulletTargets maps significance to the suggested bullet count range.
var bulletTargets = map[Significance]string{
	SignificanceMajor:   "5-10",
	SignificanceFeature: "3-7",
	SignificancePatch:   "1-3",
}

var prereleaseSplitRE = regexp.MustCompile(`[-+]`)

// ClassifyRelease classifies release significance from the version bump
// and the presence of breaking changes, and returns the suggested bullet
// count range. Breaking changes always promote to major.
func ClassifyRelease(version, technical string) (Significance, string) {
	normalized := changelog.NormalizeVersion(version)
	// Strip prerelease/build metadata ("1.2.0-rc.1" -> "1.2.0").
	if loc := prereleaseSplitRE.FindStringIndex(normalized); loc != nil {
		normalized = normalized[:loc[0]]
	}
	parts := strings.Split(normalized, ".")
	for len(parts) < 3 {
		parts = append(parts, "0")
	}

	var significance Significance
	switch {
	case changelog.HasBreakingChanges(technical):
		significance = SignificanceMajor
	case parts[2] == "0" && parts[1] == "0" && parts[0] != "0":
		significance = SignificanceMajor
	case parts[2] != "0":
		significance = SignificancePatch
	default:
		significance = SignificanceFeature
	}

	return significance, bulletTargets[significance]
}
