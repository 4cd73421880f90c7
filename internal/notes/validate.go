// Package notes validates and renders synthesized release notes. The
// validator enforces the structural contract the prompt asks the model
// for; the renderers produce the plaintext and HTML artifact variants
// from the same validated markdown.
package notes

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// validHeadings are the only section headings synthesized notes may use.
var validHeadings = map[string]bool{
	"## Breaking Changes": true,
	"## New Features":     true,
	"## Improvements":     true,
	"## Bug Fixes":        true,
}

var (
	leakedPRNumberRE   = regexp.MustCompile(`(^|[^#\w])#(\d+)\b`)
	leakedCommitHashRE = regexp.MustCompile(`(?i)\b([0-9a-f]{7,40})\b`)
	bulletLineRE       = regexp.MustCompile(`^\s*[-*+]\s`)
	boldMarkerRE       = regexp.MustCompile(`\*\*`)
)

// introPatterns flag conversational openers the prompt forbids.
var introPatterns = []string{
	"here are", "here's", "hello", "hi ", "hey ", "welcome",
	"i'm happy", "i'm excited", "glad to",
}

// signoffPatterns flag conversational closers the prompt forbids.
var signoffPatterns = []string{
	"hope this helps", "let me know", "feel free", "happy to help",
	"enjoy", "that's all", "thanks for", "thank you",
}

// ValidationResult is the validator's verdict on one model output.
type ValidationResult struct {
	Valid  bool
	Issues []string
}

// Validate checks raw model output against the structural contract:
// non-empty, only expected section headings, no leaked PR numbers or
// commit hashes, no empty sections, enough bullets for the target range,
// no intro/sign-off chatter, and balanced bold markers. A rejection is
// treated identically to a model failure by the fallback client.
func Validate(raw, bulletTarget string) ValidationResult {
	stripped := strings.TrimSpace(raw)
	if stripped == "" {
		return ValidationResult{Valid: false, Issues: []string{"output is empty"}}
	}

	lines := strings.Split(stripped, "\n")
	var issues []string
	issues = append(issues, checkHeadings(lines)...)
	issues = append(issues, checkLeakedMetadata(lines)...)
	issues = append(issues, checkEmptySections(lines)...)
	issues = append(issues, checkBulletCount(lines, bulletTarget)...)
	issues = append(issues, checkIntroOutro(lines)...)
	issues = append(issues, checkBoldFormatting(lines)...)
	return ValidationResult{Valid: len(issues) == 0, Issues: issues}
}

func checkHeadings(lines []string) []string {
	var headings []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "## ") {
			headings = append(headings, trimmed)
		}
	}
	if len(headings) == 0 {
		return []string{"no section headings found"}
	}
	var unexpected []string
	for _, h := range headings {
		if !validHeadings[h] {
			unexpected = append(unexpected, h)
		}
	}
	if len(unexpected) > 0 {
		return []string{"unexpected headings: " + strings.Join(unexpected, ", ")}
	}
	return nil
}

func checkLeakedMetadata(lines []string) []string {
	var issues []string
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		for _, m := range leakedPRNumberRE.FindAllStringSubmatch(trimmed, -1) {
			issues = append(issues, fmt.Sprintf("line %d: leaked PR number #%s", i+1, m[2]))
		}
		for _, m := range leakedCommitHashRE.FindAllStringSubmatch(trimmed, -1) {
			candidate := m[1]
			// Pure digits or pure letters are ordinary words/numbers,
			// not hashes.
			if strings.ContainsFunc(candidate, isDigit) && strings.ContainsFunc(candidate, isHexLetter) {
				issues = append(issues, fmt.Sprintf("line %d: possible leaked commit hash %q", i+1, candidate))
			}
		}
	}
	return issues
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHexLetter(r rune) bool {
	return (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func checkEmptySections(lines []string) []string {
	var issues []string
	var headingIdx []int
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "## ") {
			headingIdx = append(headingIdx, i)
		}
	}
	for idx, start := range headingIdx {
		end := len(lines)
		if idx+1 < len(headingIdx) {
			end = headingIdx[idx+1]
		}
		hasContent := false
		for _, line := range lines[start+1 : end] {
			if strings.TrimSpace(line) != "" {
				hasContent = true
				break
			}
		}
		if !hasContent {
			issues = append(issues, "empty section: "+strings.TrimSpace(lines[start]))
		}
	}
	return issues
}

func checkBulletCount(lines []string, bulletTarget string) []string {
	lo, _, ok := strings.Cut(bulletTarget, "-")
	if !ok {
		return nil
	}
	minBullets, err := strconv.Atoi(lo)
	if err != nil {
		return nil
	}
	count := 0
	for _, line := range lines {
		if bulletLineRE.MatchString(line) {
			count++
		}
	}
	if count < minBullets {
		return []string{fmt.Sprintf("too few bullets (%d); expected %s", count, bulletTarget)}
	}
	return nil
}

func checkIntroOutro(lines []string) []string {
	var issues []string
	first := strings.ToLower(strings.TrimSpace(lines[0]))
	if first != "" && !strings.HasPrefix(first, "##") {
		for _, pattern := range introPatterns {
			if strings.HasPrefix(first, pattern) {
				issues = append(issues, "output starts with intro text")
				break
			}
		}
	}
	last := ""
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			last = strings.ToLower(trimmed)
			break
		}
	}
	for _, pattern := range signoffPatterns {
		if strings.Contains(last, pattern) {
			issues = append(issues, "output ends with sign-off text")
			break
		}
	}
	return issues
}

func checkBoldFormatting(lines []string) []string {
	var issues []string
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		if len(boldMarkerRE.FindAllString(trimmed, -1))%2 != 0 {
			issues = append(issues, fmt.Sprintf("line %d: unclosed bold markdown formatting", i+1))
		}
	}
	return issues
}
