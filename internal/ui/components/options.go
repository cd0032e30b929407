package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/pdfquiz/internal/ui/theme"
)

var optionLabels = []string{"A", "B", "C", "D", "E", "F"}

// OptionList renders a question's answer options. The cursor moves with the
// arrow keys or the letter keys; the caller decides what choosing means.
type OptionList struct {
	Options []string
	Cursor  int

	// Chosen is the answer currently recorded for the question.
	Chosen string

	// Correct is set when feedback is visible. The correct option is marked
	// green and a wrong Chosen option red.
	Correct string
}

func NewOptionList(options []string, chosen string) OptionList {
	o := OptionList{Options: options, Chosen: chosen}
	for i, opt := range options {
		if opt == chosen {
			o.Cursor = i
		}
	}
	return o
}

// Update moves the cursor. It returns the option under the cursor as picked
// when enter, space or a letter key is pressed.
func (o OptionList) Update(msg tea.Msg) (OptionList, string) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || o.Correct != "" {
		return o, ""
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if o.Cursor > 0 {
			o.Cursor--
		}
	case "down", "j":
		if o.Cursor < len(o.Options)-1 {
			o.Cursor++
		}
	case "space", " ", "enter":
		if o.Cursor < len(o.Options) {
			return o, o.Options[o.Cursor]
		}
	default:
		for i := range o.Options {
			if i < len(optionLabels) && strings.EqualFold(key, optionLabels[i]) {
				o.Cursor = i
				return o, o.Options[i]
			}
		}
	}
	return o, ""
}

func (o OptionList) View() string {
	var b strings.Builder
	for i, opt := range o.Options {
		label := "?"
		if i < len(optionLabels) {
			label = optionLabels[i]
		}

		mark := "○"
		if opt == o.Chosen {
			mark = "●"
		}
		prefix := "  "
		if i == o.Cursor && o.Correct == "" {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s %s) %s", prefix, mark, label, opt)

		switch {
		case o.Correct != "" && opt == o.Correct:
			line = theme.Correct.Render(line + "  ✓")
		case o.Correct != "" && opt == o.Chosen:
			line = theme.Incorrect.Render(line + "  ✗")
		case o.Correct != "":
			line = theme.Muted.Render(line)
		case i == o.Cursor:
			line = theme.Selected.Render(line)
		default:
			line = theme.Unselected.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
