// Package artifact writes the per-release output files: release notes in
// markdown, plaintext, and HTML, plus the machine-readable JSON feed.
// Every write is atomic (temp file + rename) so a crash never leaves a
// partial artifact behind, and rerunning for the same version converges
// to the same files.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pipelineerrors "github.com/misty-step/landfall/internal/errors"
	"github.com/misty-step/landfall/internal/log"
	"github.com/misty-step/landfall/internal/notes"
)

// Format selects the rendering applied to the notes before writing.
type Format string

const (
	FormatMarkdown  Format = "markdown"
	FormatPlaintext Format = "plaintext"
	FormatHTML      Format = "html"
	FormatJSONFeed  Format = "json-feed"
)

// Target is one configured output file.
type Target struct {
	// PathTemplate may contain the {version} placeholder.
	PathTemplate string
	Format       Format
}

// Outcome records one target's result. Targets are independent: one
// failing write never blocks the others.
type Outcome struct {
	Path   string
	Format Format
	Err    error
}

// InterpolatePath substitutes the release version into a path template.
func InterpolatePath(template, version string) string {
	return strings.ReplaceAll(template, "{version}", version)
}

// Writer renders and persists every configured target for one release.
type Writer struct {
	Targets []Target
	// Date is the release date stamped into feed entries, YYYY-MM-DD.
	Date   string
	Logger *log.Logger
}

// WriteAll renders the validated notes into each target. It returns the
// per-target outcomes and an error when any target failed.
func (w *Writer) WriteAll(version, markdown string) ([]Outcome, error) {
	logger := w.Logger
	if logger == nil {
		logger = log.Nop()
	}

	outcomes := make([]Outcome, 0, len(w.Targets))
	failed := 0
	for _, target := range w.Targets {
		path := InterpolatePath(target.PathTemplate, version)
		err := w.writeTarget(target.Format, path, version, markdown)
		outcomes = append(outcomes, Outcome{Path: path, Format: target.Format, Err: err})
		if err != nil {
			failed++
			logger.Error("artifact_write_failed",
				log.String("stage", pipelineerrors.StageArtifacts),
				log.String("path", path),
				log.String("format", string(target.Format)),
				log.Err("error", err),
			)
			continue
		}
		logger.Event("artifact_written",
			log.String("stage", pipelineerrors.StageArtifacts),
			log.String("path", path),
			log.String("format", string(target.Format)),
		)
	}

	if failed > 0 {
		return outcomes, &pipelineerrors.PipelineError{
			Category: pipelineerrors.Publish,
			Stage:    pipelineerrors.StageArtifacts,
			Message:  fmt.Sprintf("%d of %d artifact targets failed", failed, len(w.Targets)),
		}
	}
	return outcomes, nil
}

func (w *Writer) writeTarget(format Format, path, version, markdown string) error {
	switch format {
	case FormatMarkdown:
		return atomicWriteFile(path, []byte(ensureTrailingNewline(markdown)))
	case FormatPlaintext:
		return atomicWriteFile(path, []byte(ensureTrailingNewline(notes.ToPlaintext(markdown))))
	case FormatHTML:
		return atomicWriteFile(path, []byte(ensureTrailingNewline(notes.ToHTMLFragment(markdown))))
	case FormatJSONFeed:
		return UpsertFeedEntry(path, ReleaseEntry{
			Version:        version,
			Date:           w.Date,
			Notes:          markdown,
			NotesPlaintext: notes.ToPlaintext(markdown),
			NotesHTML:      notes.ToHTMLFragment(markdown),
		})
	default:
		return fmt.Errorf("unknown artifact format %q", format)
	}
}

func ensureTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// atomicWriteFile writes data to path using temp file + rename pattern.
// Ensures no partial writes occur on crash.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}
