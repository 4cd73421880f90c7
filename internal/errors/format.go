package errors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	// Color functions with auto-detection for terminal support.
	// These fall back gracefully when colors are unavailable.
	errorLabel  = color.New(color.FgRed, color.Bold).SprintFunc()
	errorMsg    = color.New(color.FgRed).SprintFunc()
	fixLabel    = color.New(color.FgGreen, color.Bold).SprintFunc()
	stageText   = color.New(color.FgCyan).SprintFunc()
	bullet      = color.New(color.FgGreen).SprintFunc()
	categoryFmt = color.New(color.FgYellow).SprintFunc()
)

// FormatError formats a PipelineError for display in the terminal.
// It uses colors when available and falls back to plain text otherwise.
func FormatError(err *PipelineError) string {
	if err == nil {
		return ""
	}
	return formatError(err, true)
}

// FormatErrorPlain formats a PipelineError without colors.
func FormatErrorPlain(err *PipelineError) string {
	if err == nil {
		return ""
	}
	return formatError(err, false)
}

func formatError(err *PipelineError, useColors bool) string {
	var sb strings.Builder

	if useColors {
		sb.WriteString(errorLabel("Error"))
		sb.WriteString(" [")
		sb.WriteString(categoryFmt(err.Category.String()))
		sb.WriteString("]: ")
		sb.WriteString(errorMsg(err.Message))
	} else {
		sb.WriteString("Error [")
		sb.WriteString(err.Category.String())
		sb.WriteString("]: ")
		sb.WriteString(err.Message)
	}
	sb.WriteString("\n")

	if err.Stage != "" && err.Stage != StageConfiguration {
		sb.WriteString("\n")
		if useColors {
			sb.WriteString(stageText("Stage: " + err.Stage))
		} else {
			sb.WriteString("Stage: " + err.Stage)
		}
		sb.WriteString("\n")
	}

	if len(err.Remediation) > 0 {
		sb.WriteString("\n")
		if useColors {
			sb.WriteString(fixLabel("To fix this:"))
		} else {
			sb.WriteString("To fix this:")
		}
		sb.WriteString("\n")
		for _, step := range err.Remediation {
			if useColors {
				sb.WriteString("  ")
				sb.WriteString(bullet("•"))
				sb.WriteString(" ")
			} else {
				sb.WriteString("  • ")
			}
			sb.WriteString(step)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// PrintError prints a formatted PipelineError to stderr.
func PrintError(err *PipelineError) {
	FprintError(os.Stderr, err)
}

// FprintError prints a formatted PipelineError to the given writer.
func FprintError(w io.Writer, err *PipelineError) {
	if err == nil {
		return
	}
	fmt.Fprint(w, FormatError(err))
}
