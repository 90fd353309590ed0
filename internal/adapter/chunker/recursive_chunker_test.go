package chunker

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func newChunker(t *testing.T, size, overlap int) *RecursiveChunker {
	t.Helper()
	c, err := NewRecursiveChunker(size, overlap)
	require.NoError(t, err)
	return c
}

func TestRecursiveChunker_InvalidConfig(t *testing.T) {
	_, err := NewRecursiveChunker(0, 0)
	assert.True(t, errors.Is(err, domain.ErrInvalidChunkConfig))

	_, err = NewRecursiveChunker(100, 100)
	assert.True(t, errors.Is(err, domain.ErrInvalidChunkConfig))

	_, err = NewRecursiveChunker(100, -1)
	assert.True(t, errors.Is(err, domain.ErrInvalidChunkConfig))
}

func TestRecursiveChunker_ShortTextIsSingleChunk(t *testing.T) {
	c := newChunker(t, 100, 10)

	chunks := c.SplitText("Para one.\n\nPara two.")
	assert.Equal(t, []string{"Para one.\n\nPara two."}, chunks)
}

func TestRecursiveChunker_SplitsOnParagraphs(t *testing.T) {
	c := newChunker(t, 15, 0)

	chunks := c.SplitText("aaaa bbbb\n\ncccc dddd")
	assert.Equal(t, []string{"aaaa bbbb", "cccc dddd"}, chunks)
}

func TestRecursiveChunker_ExactOverlapWithoutSeparators(t *testing.T) {
	c := newChunker(t, 10, 3)

	chunks := c.SplitText("abcdefghijklmnopqrstuvwxy")
	require.Equal(t, []string{"abcdefghij", "hijklmnopq", "opqrstuvwx", "vwxy"}, chunks)

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		assert.True(t, strings.HasPrefix(chunks[i], prev[len(prev)-3:]),
			"chunk %d should start with the last 3 characters of chunk %d", i, i-1)
	}
}

func TestRecursiveChunker_ChunksRespectSize(t *testing.T) {
	c := newChunker(t, 50, 10)

	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("The vacation policy grants fifteen days per year.")
		if i%5 == 4 {
			sb.WriteString("\n\n")
		} else {
			sb.WriteString(" ")
		}
	}
	sb.WriteString(strings.Repeat("x", 120))

	chunks := c.SplitText(sb.String())
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 50)
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestRecursiveChunker_CountsRunes(t *testing.T) {
	c := newChunker(t, 5, 0)

	chunks := c.SplitText("héllöwörld")
	assert.Equal(t, []string{"héllö", "wörld"}, chunks)
}

func TestRecursiveChunker_Deterministic(t *testing.T) {
	c := newChunker(t, 40, 8)
	text := strings.Repeat("Remote work requires approval from a manager.\n", 20)

	assert.Equal(t, c.SplitText(text), c.SplitText(text))
}

func TestRecursiveChunker_WhitespaceOnly(t *testing.T) {
	c := newChunker(t, 10, 2)
	assert.Empty(t, c.SplitText("   \n\n  \n "))
	assert.Empty(t, c.SplitText(""))
}

func TestRecursiveChunker_SplitCopiesMetadata(t *testing.T) {
	c := newChunker(t, 30, 5)
	docs := []domain.RawDocument{
		{
			Text:       "First paragraph here.\n\nSecond paragraph here.",
			SourcePath: "data/policy.txt",
			Metadata:   map[string]string{domain.MetaSource: "data/policy.txt", domain.MetaType: "txt"},
		},
		{
			Text:       "Short note.",
			SourcePath: "data/note.txt",
		},
	}

	chunks := c.Split(docs)
	require.Len(t, chunks, 3)

	assert.Equal(t, "data/policy.txt", chunks[0].Source())
	assert.Equal(t, "data/policy.txt", chunks[1].Source())
	assert.Equal(t, "data/note.txt", chunks[2].Source())
	assert.Equal(t, "txt", chunks[1].Metadata[domain.MetaType])

	chunks[0].Metadata[domain.MetaType] = "changed"
	assert.Equal(t, "txt", chunks[1].Metadata[domain.MetaType])
	assert.Equal(t, "txt", docs[0].Metadata[domain.MetaType])
}
