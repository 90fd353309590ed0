package chunker

import (
	"fmt"
	"maps"
	"strings"
	"unicode/utf8"

	"docqa/internal/domain"
	"docqa/internal/port"
)

var _ port.Chunker = (*RecursiveChunker)(nil)

// DefaultSeparators are tried in order: paragraphs, lines, words, characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveChunker splits text on the coarsest separator present and merges
// the pieces back into chunks of at most chunkSize characters, carrying up to
// chunkOverlap trailing characters into the next chunk. Pieces that are still
// too large are split again with the next finer separator. Lengths are
// counted in runes.
type RecursiveChunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

func NewRecursiveChunker(chunkSize, chunkOverlap int) (*RecursiveChunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidChunkConfig, chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", domain.ErrInvalidChunkConfig, chunkOverlap, chunkSize)
	}
	return &RecursiveChunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   DefaultSeparators,
	}, nil
}

// Split chunks every document. Each chunk gets its own copy of the
// document's metadata.
func (c *RecursiveChunker) Split(docs []domain.RawDocument) []domain.Chunk {
	var chunks []domain.Chunk
	for _, doc := range docs {
		for _, text := range c.SplitText(doc.Text) {
			meta := make(map[string]string, len(doc.Metadata)+1)
			maps.Copy(meta, doc.Metadata)
			if _, ok := meta[domain.MetaSource]; !ok && doc.SourcePath != "" {
				meta[domain.MetaSource] = doc.SourcePath
			}
			chunks = append(chunks, domain.Chunk{Text: text, Metadata: meta})
		}
	}
	return chunks
}

// SplitText returns the chunks of a single text.
func (c *RecursiveChunker) SplitText(text string) []string {
	return c.split(text, c.separators)
}

func (c *RecursiveChunker) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var next []string
	for i, s := range separators {
		if s == "" {
			separator = s
			break
		}
		if strings.Contains(text, s) {
			separator = s
			next = separators[i+1:]
			break
		}
	}

	var chunks []string
	var good []string
	for _, piece := range splitKeepSeparator(text, separator) {
		if runeLen(piece) < c.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			chunks = append(chunks, c.merge(good)...)
			good = nil
		}
		if len(next) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, c.split(piece, next)...)
		}
	}
	if len(good) > 0 {
		chunks = append(chunks, c.merge(good)...)
	}
	return chunks
}

// merge joins pieces greedily into chunks. After a chunk is emitted, pieces
// are dropped from the front until what remains fits within the overlap and
// leaves room for the next piece.
func (c *RecursiveChunker) merge(pieces []string) []string {
	var chunks []string
	var current []string
	total := 0

	for _, piece := range pieces {
		n := runeLen(piece)
		if total+n > c.chunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > c.chunkOverlap || (total+n > c.chunkSize && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}

	if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitKeepSeparator splits text on sep, attaching each separator to the
// start of the piece that follows it. An empty sep splits into runes.
func splitKeepSeparator(text, sep string) []string {
	if sep == "" {
		pieces := make([]string, 0, len(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	parts := strings.Split(text, sep)
	pieces := make([]string, 0, len(parts))
	if parts[0] != "" {
		pieces = append(pieces, parts[0])
	}
	for _, p := range parts[1:] {
		pieces = append(pieces, sep+p)
	}
	return pieces
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
