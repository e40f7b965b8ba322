// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package searchlist implements an incremental search input over a fixed
// candidate list with keyboard navigation.
//
// The list moves between three states. Typing puts it in Querying and
// recomputes matches. Up and Down move a highlight (Navigating), clamped to
// the ends of the match list. Enter, or a click on a match, commits the
// selection and returns to Idle; a click anywhere else returns to Idle
// without committing.
package searchlist

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// State is the widget state.
type State int

const (
	Idle State = iota
	Querying
	Navigating
)

func (s State) String() string {
	switch s {
	case Querying:
		return "querying"
	case Navigating:
		return "navigating"
	default:
		return "idle"
	}
}

// Key is a key press, named the way terminal and browser key events name
// them ("up", "down", "enter").
type Key string

func (k Key) String() string { return string(k) }

// KeyMap binds navigation actions to keys.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
}

// DefaultKeyMap uses the arrow keys and Enter.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+p"),
		key.WithHelp("↑", "previous match"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+n"),
		key.WithHelp("↓", "next match"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
}

// ShortHelp lists the bindings for a help line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select}
}

// NoResults is the placeholder shown when nothing matches.
const NoResults = "No matches found"

// Item is one rendered row of the results area.
type Item struct {
	Text   string
	Active bool

	// Placeholder marks the non-interactive no-results row.
	Placeholder bool
}

// List is one search input attached to a candidate list.
type List struct {
	Keys KeyMap

	candidates  []string
	onSelect    func(string)
	query       string
	matches     []string
	highlighted int
	open        bool
	state       State
}

// New returns a List over candidates. onSelect, if non-nil, is called with
// the committed text.
func New(candidates []string, onSelect func(string)) *List {
	return &List{
		Keys:        DefaultKeyMap,
		candidates:  append([]string(nil), candidates...),
		onSelect:    onSelect,
		highlighted: -1,
	}
}

// SetCandidates replaces the candidate list and resets the session.
func (l *List) SetCandidates(candidates []string) {
	l.candidates = append([]string(nil), candidates...)
	l.reset()
}

// SetQuery records new input and recomputes the matches: every candidate
// containing the query, case-insensitively, in candidate order.
func (l *List) SetQuery(q string) {
	l.query = q
	l.matches = Match(l.candidates, q)
	l.highlighted = -1
	l.open = true
	l.state = Querying
}

// Match returns the candidates containing query, ignoring case, in their
// original order.
func Match(candidates []string, query string) []string {
	q := strings.ToLower(query)
	out := []string{}
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c), q) {
			out = append(out, c)
		}
	}
	return out
}

// Key handles a key press and reports whether it was consumed.
func (l *List) Key(k Key) bool {
	if !l.open || len(l.matches) == 0 {
		return false
	}
	switch {
	case key.Matches(k, l.Keys.Down):
		l.move(1)
		return true
	case key.Matches(k, l.Keys.Up):
		l.move(-1)
		return true
	case key.Matches(k, l.Keys.Select):
		if l.highlighted < 0 {
			return false
		}
		l.commit(l.matches[l.highlighted])
		return true
	}
	return false
}

func (l *List) move(delta int) {
	i := l.highlighted + delta
	i = max(i, 0)
	i = min(i, len(l.matches)-1)
	l.highlighted = i
	l.state = Navigating
}

// ClickMatch commits the i-th rendered match. Out-of-range indexes, and
// clicks on the placeholder, are ignored.
func (l *List) ClickMatch(i int) bool {
	if !l.open || i < 0 || i >= len(l.matches) {
		return false
	}
	l.commit(l.matches[i])
	return true
}

// ClickOutside closes the results without committing.
func (l *List) ClickOutside() {
	l.reset()
}

func (l *List) commit(text string) {
	l.query = text
	l.reset()
	if l.onSelect != nil {
		l.onSelect(text)
	}
}

func (l *List) reset() {
	l.matches = nil
	l.highlighted = -1
	l.open = false
	l.state = Idle
}

// Query returns the current input text.
func (l *List) Query() string { return l.query }

// Matches returns the current matches.
func (l *List) Matches() []string { return append([]string(nil), l.matches...) }

// Highlighted returns the highlighted index, or -1.
func (l *List) Highlighted() int { return l.highlighted }

// State returns the widget state.
func (l *List) State() State { return l.state }

// Items returns the rows to render. At most one row is active. An open
// list with no matches renders the single placeholder row; a closed list
// renders nothing.
func (l *List) Items() []Item {
	if !l.open {
		return nil
	}
	if len(l.matches) == 0 {
		return []Item{{Text: NoResults, Placeholder: true}}
	}
	items := make([]Item, len(l.matches))
	for i, m := range l.matches {
		items[i] = Item{Text: m, Active: i == l.highlighted}
	}
	return items
}
