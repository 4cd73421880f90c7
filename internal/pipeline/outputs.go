package pipeline

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// outputDelimiter fences the multi-line notes value in the outputs file.
const outputDelimiter = "LANDFALL_EOF"

// WriteGitHubOutput writes the run summary in GitHub Actions output
// format: key=value lines, with the multi-line notes fenced by a
// heredoc delimiter.
func (o *Outputs) WriteGitHubOutput(w io.Writer) error {
	lines := []string{
		"release-tag=" + o.ReleaseTag,
		"synthesis-succeeded=" + strconv.FormatBool(o.SynthesisSucceeded),
		"released=" + strconv.FormatBool(o.Released),
		"release-url=" + o.ReleaseURL,
		"model-used=" + o.ModelUsed,
		"quality=" + o.Quality,
		"issue-url=" + o.IssueURL,
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}

	notes := strings.ReplaceAll(o.Notes, outputDelimiter, "")
	if _, err := fmt.Fprintf(w, "notes<<%s\n%s\n%s\n", outputDelimiter, notes, outputDelimiter); err != nil {
		return fmt.Errorf("writing notes output: %w", err)
	}
	return nil
}
