// Package keys maps terminal key events to named actions per focus scope.
package keys

import "github.com/gdamore/tcell/v2"

// Action is one keybinding. An action matches any of its special keys or
// any of its runes.
type Action struct {
	Name        string
	Keys        []tcell.Key
	Mod         tcell.ModMask // required modifiers for Keys
	Runes       []rune
	Label       string // short key label for hints, e.g. "j/k"
	Description string
	Handler     func()
	Visible     bool // listed in the status line hints
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyRune {
		for _, r := range a.Runes {
			if ev.Rune() == r {
				return true
			}
		}
		return false
	}
	if a.Mod != 0 && ev.Modifiers()&a.Mod != a.Mod {
		return false
	}
	for _, k := range a.Keys {
		if ev.Key() == k {
			return true
		}
	}
	return false
}

// Hint renders the action for the status line.
func (a *Action) Hint() string {
	return a.Label + ":" + a.Description
}

// Registry holds keybindings organized by scope. Bindings keep their
// registration order so hints and help are stable.
type Registry struct {
	Global []*Action
	Views  map[string][]*Action
	order  []string
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{
		Views: make(map[string][]*Action),
	}
}

// AddGlobal registers a global keybinding.
func (r *Registry) AddGlobal(action *Action) {
	r.Global = append(r.Global, action)
}

// AddView registers a view-specific keybinding.
func (r *Registry) AddView(view string, action *Action) {
	if _, ok := r.Views[view]; !ok {
		r.order = append(r.order, view)
	}
	r.Views[view] = append(r.Views[view], action)
}

// Scopes returns the view scopes in registration order.
func (r *Registry) Scopes() []string {
	return append([]string(nil), r.order...)
}

// Hints returns visible keybinding hints for a given view, view bindings
// first.
func (r *Registry) Hints(view string) []string {
	var hints []string
	for _, a := range r.Views[view] {
		if a.Visible {
			hints = append(hints, a.Hint())
		}
	}
	for _, a := range r.Global {
		if a.Visible {
			hints = append(hints, a.Hint())
		}
	}
	return hints
}

// Lookup returns the first action in view that matches the event.
func (r *Registry) Lookup(view string, ev *tcell.EventKey) *Action {
	for _, a := range r.Views[view] {
		if a.Matches(ev) {
			return a
		}
	}
	return nil
}

// HandleGlobal dispatches a key event to a matching global action.
func (r *Registry) HandleGlobal(ev *tcell.EventKey) bool {
	for _, a := range r.Global {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	return false
}

// HandleEvent dispatches a key event to the matching action in the given
// view. Returns true if a handler matched.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	if a := r.Lookup(view, ev); a != nil {
		a.Handler()
		return true
	}
	return false
}
