package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// Scan walks root and returns the documents a batch would process, in walk
// order. Hidden entries are skipped when skipHidden is set.
func Scan(ctx context.Context, root string, skipHidden bool) ([]string, DirStats, []FileResult, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, nil, errors.New("root path is required")
	}

	var paths []string
	var failures []FileResult
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			stats.Scanned++
			stats.Failed++
			failures = append(failures, FileResult{Path: path, Outcome: OutcomeFailed, Err: walkErr.Error()})
			return nil
		}
		if path != root && skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return paths, stats, failures, fmt.Errorf("walk: %w", err)
	}
	return paths, stats, failures, nil
}
