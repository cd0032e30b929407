package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatsvc "github.com/abhisek/pdfquiz/internal/chat"
	"github.com/abhisek/pdfquiz/internal/credentials"
	"github.com/abhisek/pdfquiz/internal/docreq"
	"github.com/abhisek/pdfquiz/internal/quizgen"
	"github.com/abhisek/pdfquiz/internal/screen"
	"github.com/abhisek/pdfquiz/internal/settings"
	"github.com/abhisek/pdfquiz/internal/store"
)

type chatCall struct {
	message string
	history []chatsvc.Message
}

type fakeBackend struct {
	answer string
	err    error
	calls  []chatCall
}

func (f *fakeBackend) GenerateQuestions(context.Context, docreq.Input) ([]quizgen.Question, error) {
	return nil, nil
}

func (f *fakeBackend) Chat(_ context.Context, _ docreq.Input, message string, history []chatsvc.Message) (string, error) {
	f.calls = append(f.calls, chatCall{message: message, history: history})
	return f.answer, f.err
}

func newScreen(t *testing.T, backend *fakeBackend) *ChatScreen {
	t.Helper()
	ctx := context.Background()
	kv := store.NewMemoryKV()
	creds := credentials.New(kv, credentials.NewObfuscator("localhost", "test"), zerolog.Nop())
	res := settings.Load(ctx, kv, creds, zerolog.Nop())
	require.NoError(t, res.Update(ctx, settings.Update{Credentials: map[string]string{"claude": "sk"}}))

	s := New(screen.Services{Backend: backend, Settings: res, Log: zerolog.Nop()})

	path := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7 paper"), 0o600))
	s.path.SetValue(path)
	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, s.doc, s.errMsg)
	return s
}

// ask types text, presses enter and delivers the backend's reply.
func ask(t *testing.T, s *ChatScreen, text string) {
	t.Helper()
	s.input.SetValue(text)
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(answerMsg); ok {
			s.Update(msg)
			return
		}
	}
	t.Fatal("no answer produced")
}

func TestChat_SendsPriorTurns(t *testing.T) {
	backend := &fakeBackend{answer: "It covers photosynthesis."}
	s := newScreen(t, backend)

	ask(t, s, "What is this about?")
	ask(t, s, "Give an example.")

	require.Len(t, backend.calls, 2)
	assert.Empty(t, backend.calls[0].history)
	assert.Equal(t, "Give an example.", backend.calls[1].message)
	assert.Equal(t, []chatsvc.Message{
		{Role: chatsvc.RoleUser, Content: "What is this about?"},
		{Role: chatsvc.RoleAssistant, Content: "It covers photosynthesis."},
	}, backend.calls[1].history)
	assert.Len(t, s.history, 4)
}

func TestChat_FailureRestoresInput(t *testing.T) {
	backend := &fakeBackend{err: errors.New("request timed out")}
	s := newScreen(t, backend)

	ask(t, s, "Summarise chapter 2")

	assert.Empty(t, s.history)
	assert.Equal(t, "Summarise chapter 2", s.input.Value())
	assert.Contains(t, s.errMsg, "timed out")
	assert.False(t, s.pending)
}

func TestChat_StaleAnswerIgnored(t *testing.T) {
	s := newScreen(t, &fakeBackend{})
	s.Update(answerMsg{Seq: 42, Answer: "late"})
	assert.Empty(t, s.history)
}

func TestChat_RejectsNonPDF(t *testing.T) {
	kv := store.NewMemoryKV()
	res := settings.Load(context.Background(), kv,
		credentials.New(kv, credentials.NewObfuscator("o", "c"), zerolog.Nop()), zerolog.Nop())
	s := New(screen.Services{Settings: res, Log: zerolog.Nop()})

	path := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))
	s.path.SetValue(path)
	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})

	assert.Nil(t, s.doc)
	assert.Equal(t, "Please provide a valid PDF file", s.errMsg)
}
