package tui

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// form is a vertical list of labelled single-line inputs.
type form struct {
	labels []string
	inputs []textinput.Model
	focus  int
}

// newModalInput constructs one form input.
func newModalInput(placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// focusField moves focus to idx, wrapping at both ends.
func (f *form) focusField(idx int) {
	if len(f.inputs) == 0 {
		return
	}
	idx = wrapIndex(idx, len(f.inputs))
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	f.focus = idx
	// The blink command is dropped; the cursor renders steady.
	_ = f.inputs[idx].Focus()
}

// update forwards a key to the focused input.
func (f *form) update(msg tea.Msg) tea.Cmd {
	if len(f.inputs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// value returns the raw value of field idx.
func (f form) value(idx int) string {
	if idx < 0 || idx >= len(f.inputs) {
		return ""
	}
	return f.inputs[idx].Value()
}

// view renders each field on its own row.
func (f form) view(width int, accent string) string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(13)
	focusStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent)).Width(13)
	rows := make([]string, 0, len(f.inputs))
	for i := range f.inputs {
		in := f.inputs[i]
		in.SetWidth(max(10, width-16))
		label := labelStyle.Render(f.labels[i])
		if i == f.focus {
			label = focusStyle.Render(f.labels[i])
		}
		rows = append(rows, label+in.View())
	}
	return strings.Join(rows, "\n")
}

// wrapIndex wraps idx into [0, total).
func wrapIndex(idx, total int) int {
	if total <= 0 {
		return 0
	}
	idx %= total
	if idx < 0 {
		idx += total
	}
	return idx
}
