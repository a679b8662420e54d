// Package keys maps key events to page actions.
package keys

import (
	"github.com/chatconsole/chatconsole/internal/tui/ui"
	"github.com/gdamore/tcell/v2"
)

// Action is one key binding.
type Action struct {
	Key  tcell.Key
	Rune rune // used when Key is tcell.KeyRune
	// Label is the key as shown in the menu, e.g. "Enter" or "r".
	Label       string
	Description string
	Handler     func()
	Hidden      bool
}

// Matches returns true if the event triggers this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Registry holds global and per-page bindings in registration order.
type Registry struct {
	global []*Action
	views  map[string][]*Action
}

func NewRegistry() *Registry {
	return &Registry{views: make(map[string][]*Action)}
}

// AddGlobal registers a binding active on every page.
func (r *Registry) AddGlobal(a *Action) {
	r.global = append(r.global, a)
}

// AddView registers a binding active on one page.
func (r *Registry) AddView(view string, a *Action) {
	r.views[view] = append(r.views[view], a)
}

// Hints returns the visible bindings for view, page bindings first.
func (r *Registry) Hints(view string) []ui.MenuHint {
	var hints []ui.MenuHint
	for _, group := range [][]*Action{r.views[view], r.global} {
		for _, a := range group {
			if !a.Hidden {
				hints = append(hints, ui.MenuHint{Key: a.Label, Description: a.Description})
			}
		}
	}
	return hints
}

// HandleEvent runs the first binding of view, then of the global set, that
// matches ev. Returns true if a handler ran.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	for _, group := range [][]*Action{r.views[view], r.global} {
		for _, a := range group {
			if a.Matches(ev) {
				a.Handler()
				return true
			}
		}
	}
	return false
}
