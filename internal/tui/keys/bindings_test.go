package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestActionMatches(t *testing.T) {
	a := &Action{Keys: []tcell.Key{tcell.KeyUp}, Runes: []rune{'k'}}

	tests := []struct {
		name string
		ev   *tcell.EventKey
		want bool
	}{
		{"special key", tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), true},
		{"rune", tcell.NewEventKey(tcell.KeyRune, 'k', tcell.ModNone), true},
		{"other rune", tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModNone), false},
		{"other key", tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Matches(tt.ev); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry()
	var hit []string
	r.AddGlobal(&Action{Name: "quit", Runes: []rune{'q'}, Label: "q", Description: "Quit", Visible: true,
		Handler: func() { hit = append(hit, "quit") }})
	r.AddView("list", &Action{Name: "down", Runes: []rune{'j'}, Label: "j", Description: "Down", Visible: true,
		Handler: func() { hit = append(hit, "down") }})
	r.AddView("messages", &Action{Name: "top", Runes: []rune{'g'}, Label: "g", Description: "Top",
		Handler: func() { hit = append(hit, "top") }})

	if !r.HandleEvent("list", tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModNone)) {
		t.Fatal("expected list binding to match")
	}
	if r.HandleEvent("messages", tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModNone)) {
		t.Fatal("list binding leaked into messages scope")
	}
	if !r.HandleGlobal(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Fatal("expected global binding to match")
	}
	if len(hit) != 2 || hit[0] != "down" || hit[1] != "quit" {
		t.Errorf("handlers ran = %v", hit)
	}

	hints := r.Hints("list")
	if len(hints) != 2 || hints[0] != "j:Down" || hints[1] != "q:Quit" {
		t.Errorf("Hints() = %v", hints)
	}
	if got := r.Hints("messages"); len(got) != 1 {
		t.Errorf("invisible binding listed: %v", got)
	}
	if s := r.Scopes(); len(s) != 2 || s[0] != "list" || s[1] != "messages" {
		t.Errorf("Scopes() = %v", s)
	}
}
