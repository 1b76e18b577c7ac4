// Package filesystem finds book files on disk for ingestion.
package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// BookExtensions are the file extensions collected from directories.
var BookExtensions = []string{"txt", "epub", "mobi", "azw3", "fb2", "pdf", "docx"}

// FileExists reports whether the given path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsBookFile reports whether path has one of exts, compared case-insensitively
// and without the dot.
func IsBookFile(path string, exts []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.EqualFold(strings.TrimPrefix(e, "."), ext) {
			return true
		}
	}
	return false
}

// WalkFunc is called for each book file under a directory.
type WalkFunc func(path string, d fs.DirEntry) error

// WalkBooks calls fn for every book file below root in lexical order. Hidden
// files and directories are skipped.
func WalkBooks(root string, exts []string, fn WalkFunc) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !IsBookFile(path, exts) {
			return nil
		}
		return fn(path, d)
	})
}

// Collect expands paths into book files. Files are kept as given, whatever
// their extension; directories are walked for files matching exts. The result
// is sorted and has no duplicates.
func Collect(paths []string, exts []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		clean := filepath.Clean(path)
		if _, ok := seen[clean]; ok {
			return
		}
		seen[clean] = struct{}{}
		files = append(files, clean)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				// Reported per file by the pipeline.
				add(p)
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		err = WalkBooks(p, exts, func(path string, _ fs.DirEntry) error {
			add(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
	}

	sort.Strings(files)
	return files, nil
}
