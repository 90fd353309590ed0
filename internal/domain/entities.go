package domain

// Metadata keys attached to documents and chunks.
const (
	MetaSource = "source"
	MetaType   = "type"
	MetaPages  = "pages"
)

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// UnknownSource labels a chunk whose metadata carries no source.
const UnknownSource = "Unknown Document"

// RawDocument is the extracted text of one ingested file.
type RawDocument struct {
	Text       string
	SourcePath string
	Metadata   map[string]string
}

// Chunk is a bounded slice of a document's text, the unit of retrieval.
type Chunk struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Source returns the chunk's source metadata, or UnknownSource.
func (c Chunk) Source() string {
	if s, ok := c.Metadata[MetaSource]; ok && s != "" {
		return s
	}
	return UnknownSource
}

type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// ConversationTurn is one entry of a chat session's append-only history.
type ConversationTurn struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Sources []string `json:"sources,omitempty"`
}

// AnswerResult is the renderable outcome of a single question.
type AnswerResult struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
	Context []string `json:"context"`
}

// Fingerprint identifies how the vectors of an index were produced.
// Vectors are only comparable when the fingerprints agree.
type Fingerprint struct {
	SchemaVersion  int    `json:"schema_version"`
	EmbeddingModel string `json:"embedding_model"`
	Dimension      int    `json:"dimension"`
	Metric         string `json:"metric"`
}

type Stats struct {
	TotalChunks int
	Fingerprint Fingerprint
}

// LoadResult is the outcome of loading a directory. Files that could not be
// extracted are reported in Errors and do not stop the load.
type LoadResult struct {
	Documents  []RawDocument
	FilesFound int
	Errors     []string
}
