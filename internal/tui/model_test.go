package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
	"docqa/internal/usecase"
)

type fakeChat struct {
	initResult *usecase.IndexResult
	initErr    error
	answer     domain.AnswerResult
	askErr     error
	asked      []string
	resets     int
}

func (f *fakeChat) Initialize(ctx context.Context, session *usecase.Session, progress usecase.ProgressFunc) (*usecase.IndexResult, error) {
	if f.initErr == nil {
		session.Initialized = true
	}
	return f.initResult, f.initErr
}

func (f *fakeChat) Ask(ctx context.Context, session *usecase.Session, question string) (domain.AnswerResult, error) {
	f.asked = append(f.asked, question)
	return f.answer, f.askErr
}

func (f *fakeChat) Reset(session *usecase.Session) error {
	f.resets++
	session.Initialized = false
	return nil
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func enter(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	return update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func newTestModel(t *testing.T, svc *fakeChat, initialized bool) Model {
	t.Helper()
	session := usecase.NewSession()
	session.Initialized = initialized
	m := New(context.Background(), svc, session, "/data")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func TestModel_AskBeforeProcessing(t *testing.T) {
	svc := &fakeChat{}
	m := newTestModel(t, svc, false)

	m, cmd := enter(t, m, "What is the policy?")

	assert.Nil(t, cmd)
	assert.Contains(t, m.status, "process documents first")
	assert.Empty(t, m.turns)
	assert.Empty(t, svc.asked)
}

func TestModel_ProcessThenAsk(t *testing.T) {
	svc := &fakeChat{
		initResult: &usecase.IndexResult{FilesFound: 1, DocumentsLoaded: 1, ChunksCreated: 4},
		answer: domain.AnswerResult{
			Answer:  "Employees get 15 days.",
			Sources: []string{"policy.txt"},
		},
	}
	m := newTestModel(t, svc, false)

	m, cmd := enter(t, m, "/process")
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	m, _ = update(t, m, m.initCmd()())
	assert.False(t, m.busy)
	assert.True(t, m.initialized)
	assert.Contains(t, m.status, "Processed 1 documents into 4 chunks")

	m, cmd = enter(t, m, "How many vacation days?")
	require.NotNil(t, cmd)
	require.Len(t, m.turns, 1)
	assert.Equal(t, domain.RoleUser, m.turns[0].Role)

	m, _ = update(t, m, m.askCmd("How many vacation days?")())
	require.Len(t, m.turns, 2)
	assert.Equal(t, []string{"policy.txt"}, m.turns[1].Sources)
	assert.Equal(t, []string{"How many vacation days?"}, svc.asked)

	view := m.View()
	assert.Contains(t, view, "Employees get 15 days.")
	assert.Contains(t, view, "Sources: policy.txt")

	m, _ = enter(t, m, "/sources")
	assert.False(t, m.showSources)
	assert.NotContains(t, m.View(), "Sources: policy.txt")
}

func TestModel_ProcessEmptyCorpus(t *testing.T) {
	svc := &fakeChat{initErr: domain.ErrNoDocuments}
	m := newTestModel(t, svc, false)

	m, _ = update(t, m, m.initCmd()())

	assert.False(t, m.initialized)
	assert.Contains(t, m.status, "No documents were processed")
	assert.Contains(t, m.status, "/data")
}

func TestModel_AskErrorDropsPendingTurn(t *testing.T) {
	svc := &fakeChat{askErr: errors.New("boom")}
	m := newTestModel(t, svc, true)

	m, _ = enter(t, m, "question")
	require.Len(t, m.turns, 1)

	m, _ = update(t, m, m.askCmd("question")())

	assert.Empty(t, m.turns)
	assert.Equal(t, "Error: boom", m.status)
}

func TestModel_Reset(t *testing.T) {
	svc := &fakeChat{answer: domain.AnswerResult{Answer: "ok"}}
	m := newTestModel(t, svc, true)

	m, _ = enter(t, m, "question")
	m, _ = update(t, m, m.askCmd("question")())
	require.Len(t, m.turns, 2)

	m, cmd := enter(t, m, "/reset")
	require.NotNil(t, cmd)
	m, _ = update(t, m, m.resetCmd()())

	assert.Equal(t, 1, svc.resets)
	assert.Empty(t, m.turns)
	assert.False(t, m.initialized)
}

func TestModel_IgnoresInputWhileBusy(t *testing.T) {
	svc := &fakeChat{}
	m := newTestModel(t, svc, true)

	m, _ = enter(t, m, "first")
	m, cmd := enter(t, m, "second")

	assert.Nil(t, cmd)
	assert.Len(t, m.turns, 1)
}

func TestModel_Commands(t *testing.T) {
	m := newTestModel(t, &fakeChat{}, true)

	m, cmd := enter(t, m, "/help")
	assert.Nil(t, cmd)
	assert.Equal(t, helpText, m.status)

	m, _ = enter(t, m, "/nope")
	assert.Contains(t, m.status, "Unknown command /nope")

	_, cmd = enter(t, m, "/quit")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
