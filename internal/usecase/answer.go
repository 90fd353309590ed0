package usecase

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/template"

	"docqa/internal/domain"
	"docqa/internal/port"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

var answerPrompt = template.Must(template.ParseFS(promptTemplates, "templates/answer_prompt.txt"))

// Fixed answers for the outcomes that never reach the model.
const (
	NoResultsMessage        = "I'm sorry, I couldn't find any relevant information in the documents to answer your question."
	InsufficientInfoMessage = "I don't have enough information to answer this question based on the provided documents."
	generationErrorFormat   = "I encountered an error while generating the response: %v"
)

var errNoModel = errors.New("no chat model configured")

// DefaultHistoryTurns bounds how much conversation is forwarded to the model.
const DefaultHistoryTurns = 6

// AnswerUseCase retrieves context for a question and asks the model to
// answer from it.
type AnswerUseCase struct {
	retrieve     *RetrieveUseCase
	llm          port.LLM
	historyTurns int
	logger       *slog.Logger
}

func NewAnswerUseCase(retrieve *RetrieveUseCase, llm port.LLM, historyTurns int, logger *slog.Logger) *AnswerUseCase {
	if historyTurns < 0 {
		historyTurns = DefaultHistoryTurns
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerUseCase{
		retrieve:     retrieve,
		llm:          llm,
		historyTurns: historyTurns,
		logger:       logger,
	}
}

type promptData struct {
	Question         string
	InsufficientInfo string
	Chunks           []promptChunk
}

type promptChunk struct {
	Source string
	Text   string
}

// Answer never fails: retrieval and model errors are reported in the
// returned answer text.
func (u *AnswerUseCase) Answer(ctx context.Context, question string, history []domain.ConversationTurn, k int) domain.AnswerResult {
	chunks, err := u.retrieve.Retrieve(ctx, question, k)
	if err != nil {
		u.logger.Error("retrieval failed", "error", err)
		return domain.AnswerResult{
			Answer:  fmt.Sprintf(generationErrorFormat, err),
			Sources: []string{},
			Context: []string{},
		}
	}

	if len(chunks) == 0 {
		u.logger.Info("no relevant chunks found", "question", question)
		return domain.AnswerResult{
			Answer:  NoResultsMessage,
			Sources: []string{},
			Context: []string{},
		}
	}

	contextTexts := make([]string, len(chunks))
	for i, c := range chunks {
		contextTexts[i] = c.Chunk.Text
	}

	prompt, err := u.renderPrompt(question, chunks)
	if err != nil {
		return domain.AnswerResult{
			Answer:  fmt.Sprintf(generationErrorFormat, err),
			Sources: []string{},
			Context: contextTexts,
		}
	}

	if u.llm == nil {
		return domain.AnswerResult{
			Answer:  fmt.Sprintf(generationErrorFormat, errNoModel),
			Sources: []string{},
			Context: contextTexts,
		}
	}

	messages := u.historyMessages(history)
	messages = append(messages, port.ChatMessage{Role: domain.RoleUser, Content: prompt})

	u.logger.Debug("generating answer", "model", u.llm.ModelName(), "chunks", len(chunks), "history", len(messages)-1)
	answer, err := u.llm.Chat(ctx, messages)
	if err != nil {
		u.logger.Error("answer generation failed", "error", err)
		return domain.AnswerResult{
			Answer:  fmt.Sprintf(generationErrorFormat, err),
			Sources: []string{},
			Context: contextTexts,
		}
	}

	sources := Sources(chunks)
	u.logger.Info("answer generated", "sources", sources)
	return domain.AnswerResult{
		Answer:  answer,
		Sources: sources,
		Context: contextTexts,
	}
}

func (u *AnswerUseCase) renderPrompt(question string, chunks []domain.ScoredChunk) (string, error) {
	data := promptData{
		Question:         question,
		InsufficientInfo: InsufficientInfoMessage,
		Chunks:           make([]promptChunk, len(chunks)),
	}
	for i, c := range chunks {
		data.Chunks[i] = promptChunk{Source: displaySource(c.Chunk.Source()), Text: c.Chunk.Text}
	}

	var buf bytes.Buffer
	if err := answerPrompt.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

// historyMessages keeps the most recent turns only.
func (u *AnswerUseCase) historyMessages(history []domain.ConversationTurn) []port.ChatMessage {
	if len(history) > u.historyTurns {
		history = history[len(history)-u.historyTurns:]
	}
	messages := make([]port.ChatMessage, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, port.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	return messages
}

// Sources lists the distinct display names of the chunks' documents in
// retrieval order.
func Sources(chunks []domain.ScoredChunk) []string {
	seen := make(map[string]bool, len(chunks))
	sources := make([]string, 0, len(chunks))
	for _, c := range chunks {
		name := displaySource(c.Chunk.Source())
		if seen[name] {
			continue
		}
		seen[name] = true
		sources = append(sources, name)
	}
	return sources
}

// displaySource shortens a source to its file name when it is a path that
// exists locally.
func displaySource(source string) string {
	if _, err := os.Stat(source); err == nil {
		return filepath.Base(source)
	}
	return source
}

// Prompt returns the prompt Answer would send for question without calling
// the model. An empty prompt means nothing relevant was retrieved.
func (u *AnswerUseCase) Prompt(ctx context.Context, question string, k int) (string, []domain.ScoredChunk, error) {
	chunks, err := u.retrieve.Retrieve(ctx, question, k)
	if err != nil {
		return "", nil, err
	}
	if len(chunks) == 0 {
		return "", nil, nil
	}
	prompt, err := u.renderPrompt(question, chunks)
	if err != nil {
		return "", nil, err
	}
	return prompt, chunks, nil
}
