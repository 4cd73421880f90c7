package changelog

import (
	"regexp"
	"strings"
)

var (
	breakingHeadingRE     = regexp.MustCompile(`(?mi)^#{1,6}\s+BREAKING\s+CHANGES?\b.*$`)
	breakingTitleRE       = regexp.MustCompile(`(?i)^BREAKING\s+CHANGES?\b`)
	breakingFooterLineRE  = regexp.MustCompile(`(?i)^\s*BREAKING CHANGE:\s*(.+\S.*)$`)
	breakingPrefixLineRE  = regexp.MustCompile(`(?i)^\s*(?:[-*+]\s+)?BREAKING:\s*(.+\S.*)$`)
	conventionalBangRE    = regexp.MustCompile(`(?i)^\s*(?:[-*+]\s+)?(?:feat|fix)(?:\([^)]+\))?!:\s*(.+\S.*)$`)
	markdownHeadingLineRE = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)
	markdownBulletLineRE  = regexp.MustCompile(`^\s*(?:[-*+]|\d+\.)\s+(.+?)\s*$`)
	whitespaceRunRE       = regexp.MustCompile(`\s+`)
)

// ExtractBreakingChanges collects breaking-change candidates from a
// technical changelog slice. It recognizes dedicated "Breaking Changes"
// heading blocks, "BREAKING CHANGE:" commit footers, "BREAKING:" line
// prefixes, and conventional-commit bang markers (feat!/fix!), and
// deduplicates case-insensitively while preserving first-seen order.
func ExtractBreakingChanges(technical string) []string {
	var out []string
	seen := make(map[string]bool)

	add := func(candidate string) {
		value := strings.TrimSpace(whitespaceRunRE.ReplaceAllString(candidate, " "))
		if value == "" {
			return
		}
		key := strings.ToLower(value)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, value)
	}

	lines := strings.Split(technical, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t")

		if heading := markdownHeadingLineRE.FindStringSubmatch(line); heading != nil &&
			breakingTitleRE.MatchString(strings.TrimSpace(heading[2])) {
			level := len(heading[1])
			i++
			for i < len(lines) {
				next := strings.TrimRight(lines[i], " \t")
				if nextHeading := markdownHeadingLineRE.FindStringSubmatch(next); nextHeading != nil && len(nextHeading[1]) <= level {
					break
				}
				if bullet := markdownBulletLineRE.FindStringSubmatch(next); bullet != nil {
					if extracted := breakingChangeFromLine(bullet[1]); extracted != "" {
						add(extracted)
					} else {
						add(bullet[1])
					}
				}
				i++
			}
			i--
			continue
		}

		if candidate := breakingChangeFromLine(line); candidate != "" {
			add(candidate)
		}
	}

	return out
}

// breakingChangeFromLine extracts the breaking-change text from a single
// line, or returns "" when the line carries no breaking marker.
func breakingChangeFromLine(line string) string {
	if m := breakingFooterLineRE.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := breakingPrefixLineRE.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := conventionalBangRE.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

// HasBreakingChanges reports whether the slice carries any breaking-change
// marker, including a bare "Breaking Changes" heading with no extractable
// bullets.
func HasBreakingChanges(technical string) bool {
	return len(ExtractBreakingChanges(technical)) > 0 || breakingHeadingRE.MatchString(technical)
}

// RenderBreakingSection renders the extracted breaking changes as the
// prompt block substituted for {{BREAKING_CHANGES_SECTION}}. Returns ""
// when no breaking changes were detected.
func RenderBreakingSection(technical string) string {
	breaking := ExtractBreakingChanges(technical)
	if len(breaking) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Breaking changes detected (raw; rewrite, don't copy):\n")
	for _, item := range breaking {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return b.String()
}
