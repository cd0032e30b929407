package settings

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/pdfquiz/internal/llm"
	"github.com/abhisek/pdfquiz/internal/screen"
	prefs "github.com/abhisek/pdfquiz/internal/settings"
	"github.com/abhisek/pdfquiz/internal/ui/components"
	"github.com/abhisek/pdfquiz/internal/ui/layout"
	"github.com/abhisek/pdfquiz/internal/ui/theme"
)

const (
	rowProvider = iota
	rowModel
	rowKey
	rowClear
	rowCount
)

// SettingsScreen edits the provider, model and stored API keys.
type SettingsScreen struct {
	svc screen.Services
	row int

	editing bool
	key     components.TextInput
	status  string
	failed  bool
}

var _ screen.Screen = (*SettingsScreen)(nil)
var _ screen.KeyHintProvider = (*SettingsScreen)(nil)

func New(svc screen.Services) *SettingsScreen {
	return &SettingsScreen{
		svc: svc,
		key: components.NewTextInput("paste API key, empty to remove", true, 256),
	}
}

func (s *SettingsScreen) Init() tea.Cmd { return nil }

func (s *SettingsScreen) Title() string { return "Settings" }

func (s *SettingsScreen) KeyHints() []layout.KeyHint {
	if s.editing {
		return []layout.KeyHint{{Key: "Enter", Description: "Save key"}, {Key: "Tab", Description: "Cancel"}}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Move"},
		{Key: "←→", Description: "Change"},
		{Key: "Enter", Description: "Edit"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *SettingsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if s.editing {
		if ok {
			switch kmsg.String() {
			case "enter":
				s.saveKey()
				return s, nil
			case "tab":
				s.editing = false
				s.key.Reset()
				return s, nil
			}
		}
		var cmd tea.Cmd
		s.key, cmd = s.key.Update(msg)
		return s, cmd
	}
	if !ok {
		return s, nil
	}

	switch kmsg.String() {
	case "up", "k":
		s.row = (s.row + rowCount - 1) % rowCount
	case "down", "j":
		s.row = (s.row + 1) % rowCount
	case "left", "h":
		s.cycle(-1)
	case "right", "l":
		s.cycle(1)
	case "enter":
		switch s.row {
		case rowProvider, rowModel:
			s.cycle(1)
		case rowKey:
			s.editing = true
			s.status = ""
			return s, s.key.Init()
		case rowClear:
			s.svc.Settings.ClearCredentials(context.Background())
			s.setStatus("All API keys removed.", false)
		}
	}
	return s, nil
}

// cycle moves the provider or model selection by dir.
func (s *SettingsScreen) cycle(dir int) {
	sel := s.svc.Settings.Selection()
	var u prefs.Update

	switch s.row {
	case rowProvider:
		providers := llm.Providers()
		i := slices.IndexFunc(providers, func(p llm.ProviderInfo) bool { return p.ID == sel.Provider })
		u.Provider = providers[wrap(i+dir, len(providers))].ID
	case rowModel:
		models := modelNames(sel.Provider)
		if len(models) == 0 {
			return
		}
		i := slices.Index(models, sel.Model)
		u.Model = models[wrap(i+dir, len(models))]
	default:
		return
	}

	if err := s.svc.Settings.Update(context.Background(), u); err != nil {
		s.setStatus(err.Error(), true)
		return
	}
	s.status = ""
}

func (s *SettingsScreen) saveKey() {
	provider := s.svc.Settings.Selection().Provider
	value := s.key.Value()
	err := s.svc.Settings.Update(context.Background(), prefs.Update{
		Credentials: map[string]string{provider: value},
	})
	s.editing = false
	s.key.Reset()

	label := llm.Selection{Provider: provider}.Label()
	switch {
	case err != nil:
		s.setStatus(err.Error(), true)
	case value == "":
		s.setStatus(label+" API key removed.", false)
	default:
		s.setStatus(label+" API key saved.", false)
	}
}

func (s *SettingsScreen) setStatus(msg string, failed bool) {
	s.status = msg
	s.failed = failed
}

func (s *SettingsScreen) View(width, height int) string {
	ctx := context.Background()
	sel := s.svc.Settings.Selection()

	keyState := theme.ErrorText.Render("not set")
	if cred, ok := s.svc.Settings.ActiveCredential(ctx); ok {
		keyState = theme.Correct.Render("set ") + theme.Muted.Render(mask(cred))
	}

	rows := []string{
		fmt.Sprintf("Provider   ‹ %s ›", sel.Label()),
		fmt.Sprintf("Model      ‹ %s ›", sel.Model),
		"API key    " + keyState,
		"Clear all API keys",
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render("Settings"))
	b.WriteString("\n\n")
	for i, r := range rows {
		if i == s.row {
			b.WriteString(theme.Selected.Render("▸ ") + r)
		} else {
			b.WriteString("  " + r)
		}
		b.WriteString("\n")
	}

	if s.editing {
		b.WriteString("\n")
		b.WriteString(theme.Body.Render(sel.Label() + " API key:"))
		b.WriteString("\n")
		b.WriteString(s.key.View())
		b.WriteString("\n")
	}
	if s.status != "" {
		style := theme.Correct
		if s.failed {
			style = theme.ErrorText
		}
		b.WriteString("\n" + style.Render(s.status))
	}
	b.WriteString("\n\n")
	b.WriteString(theme.Hint.Render("Keys are stored on this machine only and sent with each request."))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, theme.Card.Render(b.String()))
}

// modelNames lists a provider's friendly model names in a stable order.
func modelNames(provider string) []string {
	info, ok := llm.LookupProvider(provider)
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(info.Models))
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

// mask shows only the last four characters of a key.
func mask(cred string) string {
	if len(cred) <= 4 {
		return strings.Repeat("•", len(cred))
	}
	return strings.Repeat("•", 8) + cred[len(cred)-4:]
}
