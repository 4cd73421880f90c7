package release

import (
	"fmt"
	"regexp"
)

var (
	stableTagRE     = regexp.MustCompile(`^v?(\d+)\.\d+\.\d+$`)
	prereleaseTagRE = regexp.MustCompile(`^v?\d+\.\d+\.\d+-`)
)

// FloatingMajorTag returns the floating major tag ("v1", "v2") for a
// stable semver release tag. Pre-release tags return empty with no
// error: they never move a floating tag. Anything else is invalid.
func FloatingMajorTag(releaseTag string) (string, error) {
	if m := stableTagRE.FindStringSubmatch(releaseTag); m != nil {
		return "v" + m[1], nil
	}
	if prereleaseTagRE.MatchString(releaseTag) {
		return "", nil
	}
	return "", fmt.Errorf("invalid semver tag: %s", releaseTag)
}
