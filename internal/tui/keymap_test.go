package tui

import (
	"testing"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
)

// TestKeyMapGestureBindings verifies the keyboard drag gesture keys.
func TestKeyMapGestureBindings(t *testing.T) {
	k := newKeyMap()
	cases := []struct {
		name    string
		msg     tea.KeyPressMsg
		binding key.Binding
	}{
		{name: "pick up", msg: keyRune('m'), binding: k.pickUp},
		{name: "hover left", msg: keyRune('h'), binding: k.laneLeft},
		{name: "hover right", msg: keyRune('l'), binding: k.laneRight},
		{name: "drop", msg: tea.KeyPressMsg{Code: tea.KeyEnter}, binding: k.drop},
		{name: "end", msg: tea.KeyPressMsg{Code: tea.KeyEscape}, binding: k.cancel},
		{name: "actions", msg: keyRune('.'), binding: k.actions},
		{name: "previous project", msg: keyRune('['), binding: k.prevProject},
		{name: "next project", msg: keyRune(']'), binding: k.nextProject},
	}
	for _, tc := range cases {
		if !key.Matches(tc.msg, tc.binding) {
			t.Fatalf("%s: %q did not match %#v", tc.name, tc.msg.String(), tc.binding.Keys())
		}
	}
}

// TestKeyMapHelpCoversBindings verifies every short help binding is in the full help.
func TestKeyMapHelpCoversBindings(t *testing.T) {
	k := newKeyMap()
	full := map[string]bool{}
	for _, group := range k.FullHelp() {
		for _, b := range group {
			full[b.Help().Desc] = true
		}
	}
	for _, b := range k.ShortHelp() {
		if !full[b.Help().Desc] {
			t.Fatalf("short help binding %q missing from full help", b.Help().Desc)
		}
	}
}
