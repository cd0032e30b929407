package settings

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/abhisek/pdfquiz/internal/credentials"
	"github.com/abhisek/pdfquiz/internal/llm"
	"github.com/abhisek/pdfquiz/internal/screen"
	prefs "github.com/abhisek/pdfquiz/internal/settings"
	"github.com/abhisek/pdfquiz/internal/store"
)

func newScreen(t *testing.T) *SettingsScreen {
	t.Helper()
	kv := store.NewMemoryKV()
	creds := credentials.New(kv, credentials.NewObfuscator("localhost", "test"), zerolog.Nop())
	res := prefs.Load(context.Background(), kv, creds, zerolog.Nop())
	return New(screen.Services{Settings: res, Log: zerolog.Nop()})
}

func key(code rune) tea.KeyPressMsg { return tea.KeyPressMsg{Code: code} }

func TestCycleProviderSelectsDefaultModel(t *testing.T) {
	s := newScreen(t)

	s.Update(key(tea.KeyRight))

	sel := s.svc.Settings.Selection()
	if sel.Provider != llm.ProviderOpenAI {
		t.Fatalf("expected openai, got %q", sel.Provider)
	}
	info, _ := llm.LookupProvider(llm.ProviderOpenAI)
	if sel.Model != info.DefaultModel {
		t.Errorf("expected default model %q, got %q", info.DefaultModel, sel.Model)
	}

	s.Update(key(tea.KeyLeft))
	s.Update(key(tea.KeyLeft))
	if got := s.svc.Settings.Selection().Provider; got != llm.ProviderGemini {
		t.Errorf("expected wrap-around to gemini, got %q", got)
	}
}

func TestCycleModelStaysInProvider(t *testing.T) {
	s := newScreen(t)
	s.Update(key(tea.KeyDown))

	for i := 0; i < 10; i++ {
		s.Update(key(tea.KeyRight))
		if err := s.svc.Settings.Selection().Validate(); err != nil {
			t.Fatalf("invalid selection after cycling: %v", err)
		}
	}
}

func TestSaveAndRemoveKey(t *testing.T) {
	s := newScreen(t)
	ctx := context.Background()
	s.row = rowKey

	s.Update(key(tea.KeyEnter))
	if !s.editing {
		t.Fatal("expected key editor to open")
	}
	s.key.SetValue("sk-ant-abcd1234")
	s.Update(key(tea.KeyEnter))

	got, ok := s.svc.Settings.ActiveCredential(ctx)
	if !ok || got != "sk-ant-abcd1234" {
		t.Fatalf("expected key to be stored, got %q", got)
	}
	view := s.View(100, 30)
	if strings.Contains(view, "sk-ant-abcd1234") {
		t.Error("view must not show the full key")
	}
	if !strings.Contains(view, "1234") {
		t.Error("view should show the key suffix")
	}

	s.Update(key(tea.KeyEnter))
	s.Update(key(tea.KeyEnter))
	if _, ok := s.svc.Settings.ActiveCredential(ctx); ok {
		t.Error("empty input should remove the key")
	}
}

func TestClearAllKeys(t *testing.T) {
	s := newScreen(t)
	ctx := context.Background()
	if err := s.svc.Settings.Update(ctx, prefs.Update{Credentials: map[string]string{
		llm.ProviderClaude: "a", llm.ProviderGemini: "b",
	}}); err != nil {
		t.Fatal(err)
	}

	s.row = rowClear
	s.Update(key(tea.KeyEnter))

	for _, p := range llm.Providers() {
		if _, ok := s.svc.Settings.Credential(ctx, p.ID); ok {
			t.Errorf("%s key was not cleared", p.ID)
		}
	}
}

func TestMask(t *testing.T) {
	if got := mask("abc"); got != "•••" {
		t.Errorf("got %q", got)
	}
	if got := mask("sk-123456"); got != "••••••••3456" {
		t.Errorf("got %q", got)
	}
}
