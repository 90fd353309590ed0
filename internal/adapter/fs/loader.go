package fs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"docqa/internal/domain"
	"docqa/internal/port"
)

var _ port.DocumentLoader = (*Loader)(nil)

// Loader reads every supported file under a directory into raw documents.
type Loader struct {
	walker port.FileWalker
	logger *slog.Logger
}

func NewLoader(walker port.FileWalker, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{walker: walker, logger: logger}
}

// Load extracts the text of each matching file. A missing directory yields an
// empty result. A file that fails to extract is reported in result.Errors and
// skipped; files with no text are skipped silently.
func (l *Loader) Load(dir string) (*domain.LoadResult, error) {
	result := &domain.LoadResult{}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Warn("document directory not found", "dir", dir)
			return result, nil
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	files, skipped, err := l.walker.Walk(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}
	for _, err := range skipped {
		l.logger.Warn("skipping unreadable path", "error", err)
		result.Errors = append(result.Errors, err.Error())
	}
	result.FilesFound = len(files)
	l.logger.Info("loading documents", "dir", dir, "files", len(files))

	for _, file := range files {
		doc, err := extract(file.Path)
		if err != nil {
			l.logger.Warn("failed to extract document", "path", file.Path, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file.Path, err))
			continue
		}
		if strings.TrimSpace(doc.Text) == "" {
			l.logger.Debug("skipping empty document", "path", file.Path)
			continue
		}
		result.Documents = append(result.Documents, doc)
	}

	if len(result.Documents) == 0 {
		l.logger.Warn("no documents were loaded", "dir", dir)
	}
	return result, nil
}

func extract(path string) (domain.RawDocument, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, pages, err := ReadPDF(path)
		if err != nil {
			return domain.RawDocument{}, err
		}
		return newDocument(path, text, map[string]string{
			domain.MetaType:  "pdf",
			domain.MetaPages: strconv.Itoa(pages),
		}), nil
	case ".txt":
		text, err := ReadFile(path)
		if err != nil {
			return domain.RawDocument{}, err
		}
		return newDocument(path, text, map[string]string{domain.MetaType: "txt"}), nil
	default:
		return domain.RawDocument{}, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

func newDocument(path, text string, meta map[string]string) domain.RawDocument {
	meta[domain.MetaSource] = path
	return domain.RawDocument{
		Text:       text,
		SourcePath: path,
		Metadata:   meta,
	}
}

// ReadPDF extracts the plain text of every page, joined by blank lines.
// The pdf library panics on some malformed inputs; that is reported as an error.
func ReadPDF(path string) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	pages = r.NumPage()
	parts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", 0, fmt.Errorf("failed to read page %d: %w", i, err)
		}
		if strings.TrimSpace(content) != "" {
			parts = append(parts, content)
		}
	}
	return strings.Join(parts, "\n\n"), pages, nil
}

func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
