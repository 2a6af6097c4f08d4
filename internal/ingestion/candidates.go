package ingestion

import (
	"os"
	"path/filepath"

	"loglite/internal/database/models"
)

// candidateFiles resolves the set of files a Source currently points at,
// per spec.md §4.4 step 2: a single file if path names a file, or a
// filtered directory walk (recursive iff source.Recursive) if it names a
// directory. include_glob is applied first, keeping only matches; then
// exclude_glob drops matches — the include-then-exclude order spec.md §9
// leaves as an open question, resolved that way here.
func candidateFiles(source *models.Source) ([]string, error) {
	info, err := os.Stat(source.Path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []string{source.Path}, nil
	}

	var files []string
	walkFn := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if !source.Recursive && path != source.Path {
				return filepath.SkipDir
			}
			return nil
		}
		files = append(files, path)
		return nil
	}

	if err := filepath.WalkDir(source.Path, walkFn); err != nil {
		return nil, err
	}

	files = applyGlob(files, source.IncludeGlob, true)
	files = applyGlob(files, source.ExcludeGlob, false)

	return files, nil
}

// applyGlob filters files by a glob pattern matched against the base
// name. keepMatches=true retains matches (include); false drops them
// (exclude). An empty pattern is a no-op.
func applyGlob(files []string, pattern string, keepMatches bool) []string {
	if pattern == "" {
		return files
	}

	kept := make([]string, 0, len(files))
	for _, f := range files {
		matched, err := filepath.Match(pattern, filepath.Base(f))
		if err != nil {
			matched = false
		}
		if matched == keepMatches {
			kept = append(kept, f)
		}
	}
	return kept
}
