package tui

import "charm.land/bubbles/v2/key"

// keyMap holds the board key bindings.
type keyMap struct {
	quit          key.Binding
	toggleHelp    key.Binding
	laneLeft      key.Binding
	laneRight     key.Binding
	cardUp        key.Binding
	cardDown      key.Binding
	pickUp        key.Binding
	drop          key.Binding
	cancel        key.Binding
	actions       key.Binding
	addTask       key.Binding
	comments      key.Binding
	attachments   key.Binding
	projects      key.Binding
	prevProject   key.Binding
	nextProject   key.Binding
	nextField     key.Binding
	prevField     key.Binding
	togglePreview key.Binding
}

// newKeyMap constructs the default bindings.
func newKeyMap() keyMap {
	return keyMap{
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		laneLeft:      key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "lane left")),
		laneRight:     key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "lane right")),
		cardUp:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "card up")),
		cardDown:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "card down")),
		pickUp:        key.NewBinding(key.WithKeys("m", "space"), key.WithHelp("m", "pick up card")),
		drop:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop / choose")),
		cancel:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		actions:       key.NewBinding(key.WithKeys("."), key.WithHelp(".", "card actions")),
		addTask:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		comments:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "comments")),
		attachments:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "attachments")),
		projects:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "project picker")),
		prevProject:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "previous project")),
		nextProject:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next project")),
		nextField:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		prevField:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
		togglePreview: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "preview description")),
	}
}

// ShortHelp returns the compact help line.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.pickUp, k.drop, k.actions, k.addTask, k.comments, k.projects, k.toggleHelp, k.quit}
}

// FullHelp returns the grouped help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.laneLeft, k.laneRight, k.cardUp, k.cardDown},
		{k.pickUp, k.drop, k.cancel, k.actions, k.addTask},
		{k.comments, k.attachments, k.projects, k.prevProject, k.nextProject},
		{k.nextField, k.prevField, k.togglePreview, k.toggleHelp, k.quit},
	}
}
