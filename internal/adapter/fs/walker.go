package fs

import (
	iofs "io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"docqa/internal/port"
)

var _ port.FileWalker = (*Walker)(nil)

// Walker lists files under a root matching doublestar include patterns and
// not matching any exclude pattern. Patterns are matched against
// slash-separated paths relative to the root; the file extension is matched
// case-insensitively, so "**/*.pdf" also picks up "Report.PDF".
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

// Walk returns matching files in lexical order. Directories and files that
// cannot be read are skipped and returned in skipped; only an unreadable
// root fails the walk.
func (w *Walker) Walk(root string) ([]port.FileInfo, []error, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, err
	}

	var (
		files   []port.FileInfo
		skipped []error
	)
	err = filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			skipped = append(skipped, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && w.matchAny(w.excludes, relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !w.matchAny(w.includes, lowerExt(relPath)) || w.matchAny(w.excludes, relPath) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			skipped = append(skipped, err)
			return nil
		}
		files = append(files, port.FileInfo{
			Path:    path,
			ModTime: info.ModTime().Unix(),
			Size:    info.Size(),
		})
		return nil
	})

	return files, skipped, err
}

func (w *Walker) matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}

func lowerExt(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + strings.ToLower(ext)
}
