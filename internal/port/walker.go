package port

import "docqa/internal/domain"

type FileWalker interface {
	// Walk lists matching files under root. Entries that could not be read
	// are reported in skipped without failing the walk.
	Walk(root string) (files []FileInfo, skipped []error, err error)
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// DocumentLoader extracts raw documents from a directory tree.
type DocumentLoader interface {
	Load(dir string) (*domain.LoadResult, error)
}
