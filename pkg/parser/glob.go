package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DatasetExt is the extension of dataset files picked up from a directory.
const DatasetExt = ".csv"

// ExpandGlobs turns dataset arguments into a sorted, deduplicated file list.
//
// An argument may be a file, a glob pattern or a directory. A directory,
// given directly or matched by a pattern, stands for the DatasetExt files
// directly inside it. Arguments that match nothing are kept as-is so that
// opening them reports the missing file.
func ExpandGlobs(patterns []string) ([]string, error) {
	var files []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 {
			files = append(files, pattern)
			continue
		}

		for _, match := range matches {
			expanded, err := expandMatch(match)
			if err != nil {
				return nil, err
			}
			files = append(files, expanded...)
		}
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}

func expandMatch(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), DatasetExt) {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	return files, nil
}
