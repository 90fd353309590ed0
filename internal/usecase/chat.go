package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// Session is the state of one conversation: its history and whether the
// index behind it is ready.
type Session struct {
	ID          string
	History     []domain.ConversationTurn
	Initialized bool
}

func NewSession() *Session {
	return &Session{ID: uuid.NewString()}
}

// ChatService runs the initialize, ask and reset flows of a chat session.
type ChatService struct {
	indexer *IndexUseCase
	answer  *AnswerUseCase
	index   port.IndexStore
	dataDir string
	topK    int
	logger  *slog.Logger
}

func NewChatService(
	indexer *IndexUseCase,
	answer *AnswerUseCase,
	index port.IndexStore,
	dataDir string,
	topK int,
	logger *slog.Logger,
) *ChatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{
		indexer: indexer,
		answer:  answer,
		index:   index,
		dataDir: dataDir,
		topK:    topK,
		logger:  logger,
	}
}

// Initialize reuses a populated index, otherwise ingests the data
// directory. The returned result is nil when the index was reused.
func (s *ChatService) Initialize(ctx context.Context, session *Session, progress ProgressFunc) (*IndexResult, error) {
	if !s.index.IsEmpty() {
		s.logger.Info("using existing index", "session", session.ID)
		session.Initialized = true
		return nil, nil
	}

	result, err := s.indexer.Index(ctx, s.dataDir, progress)
	if err != nil {
		session.Initialized = false
		if errors.Is(err, domain.ErrNoDocuments) {
			return result, fmt.Errorf("%w: add PDF or text files to %s", domain.ErrNoDocuments, s.dataDir)
		}
		return result, err
	}

	session.Initialized = true
	return result, nil
}

// Ask answers a question and records both turns in the session history.
func (s *ChatService) Ask(ctx context.Context, session *Session, question string) (domain.AnswerResult, error) {
	if !session.Initialized {
		return domain.AnswerResult{}, domain.ErrNotInitialized
	}

	history := session.History
	session.History = append(session.History, domain.ConversationTurn{
		Role:    domain.RoleUser,
		Content: question,
	})

	result := s.answer.Answer(ctx, question, history, s.topK)

	session.History = append(session.History, domain.ConversationTurn{
		Role:    domain.RoleAssistant,
		Content: result.Answer,
		Sources: result.Sources,
	})
	return result, nil
}

// Reset deletes the index and starts the session over.
func (s *ChatService) Reset(session *Session) error {
	if err := s.index.Reset(); err != nil {
		return fmt.Errorf("failed to reset index: %w", err)
	}
	session.History = nil
	session.Initialized = false
	s.logger.Info("session reset", "session", session.ID)
	return nil
}
