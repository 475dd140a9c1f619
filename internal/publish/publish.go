// Package publish exports timelines as Markdown files.
package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"planline/internal/model"
)

type WriteOptions struct {
	ViewMode    model.ViewMode
	IncludeDone bool
	Overwrite   bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteTimeline writes <toDir>/timelines/<id>.md.
func WriteTimeline(rec model.Record, toDir string, opt WriteOptions) (WriteResult, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return WriteResult{}, errors.New("missing timeline id")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	md, err := RenderTimelineMarkdown(rec, RenderOptions{ViewMode: opt.ViewMode, IncludeDone: opt.IncludeDone})
	if err != nil {
		return WriteResult{}, err
	}

	outDir := filepath.Join(toDir, "timelines")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return WriteResult{}, err
	}
	outPath := filepath.Join(outDir, rec.ID+".md")
	if err := writeFile(outPath, []byte(md), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{outPath}}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
