package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/imsg/internal/tui/keys"
)

func (a *App) setupBindings() {
	r := a.registry

	r.AddGlobal(&keys.Action{
		Name: "help", Keys: []tcell.Key{tcell.KeyF1}, Runes: []rune{'?'},
		Label: "?/F1", Description: "Help", Visible: true,
		Handler: a.toggleHelp,
	})
	r.AddGlobal(&keys.Action{
		Name: "quit", Runes: []rune{'q', 'Q'},
		Label: "q", Description: "Quit", Visible: true,
		Handler: a.quit,
	})
	r.AddGlobal(&keys.Action{
		Name: "interrupt", Keys: []tcell.Key{tcell.KeyCtrlC},
		Label: "Ctrl-C", Description: "Quit anywhere",
		Handler: a.quit,
	})

	list := string(FocusList)
	r.AddView(list, &keys.Action{
		Name: "up", Keys: []tcell.Key{tcell.KeyUp}, Runes: []rune{'k'},
		Label: "↑↓", Description: "Nav", Visible: true,
		Handler: func() { a.moveSelection(-1) },
	})
	r.AddView(list, &keys.Action{
		Name: "down", Keys: []tcell.Key{tcell.KeyDown}, Runes: []rune{'j'},
		Label: "↓/j", Description: "Next",
		Handler: func() { a.moveSelection(1) },
	})
	r.AddView(list, &keys.Action{
		Name: "open", Keys: []tcell.Key{tcell.KeyEnter, tcell.KeyRight}, Runes: []rune{'l'},
		Label: "Enter", Description: "Open", Visible: true,
		Handler: func() {
			a.openSelected()
			a.moveFocus(FocusMessages)
		},
	})
	r.AddView(list, &keys.Action{
		Name: "switch", Keys: []tcell.Key{tcell.KeyTab},
		Label: "Tab", Description: "Switch", Visible: true,
		Handler: func() { a.moveFocus(FocusMessages) },
	})
	r.AddView(list, &keys.Action{
		Name: "compose", Runes: []rune{'i'},
		Label: "i", Description: "Input", Visible: true,
		Handler: func() { a.moveFocus(FocusInput) },
	})
	r.AddView(list, &keys.Action{
		Name: "refresh", Runes: []rune{'r', 'R'},
		Label: "r", Description: "Refresh",
		Handler: a.refresh,
	})

	msgs := string(FocusMessages)
	r.AddView(msgs, &keys.Action{
		Name: "scroll-up", Keys: []tcell.Key{tcell.KeyUp}, Runes: []rune{'k'},
		Label: "↑↓", Description: "Scroll", Visible: true,
		Handler: func() { a.scrollBy(-1) },
	})
	r.AddView(msgs, &keys.Action{
		Name: "scroll-down", Keys: []tcell.Key{tcell.KeyDown}, Runes: []rune{'j'},
		Label: "↓/j", Description: "Scroll down",
		Handler: func() { a.scrollBy(1) },
	})
	r.AddView(msgs, &keys.Action{
		Name: "page-up", Keys: []tcell.Key{tcell.KeyPgUp},
		Label: "PgUp", Description: "Page up",
		Handler: func() { a.scrollBy(-10) },
	})
	r.AddView(msgs, &keys.Action{
		Name: "page-down", Keys: []tcell.Key{tcell.KeyPgDn},
		Label: "PgDn", Description: "Page down",
		Handler: func() { a.scrollBy(10) },
	})
	r.AddView(msgs, &keys.Action{
		Name: "top", Runes: []rune{'g'},
		Label: "g", Description: "Top",
		Handler: func() { a.msgScroll = 0 },
	})
	r.AddView(msgs, &keys.Action{
		Name: "bottom", Runes: []rune{'G'},
		Label: "G", Description: "Bottom",
		Handler: a.scrollToBottom,
	})
	r.AddView(msgs, &keys.Action{
		Name: "back", Keys: []tcell.Key{tcell.KeyLeft, tcell.KeyTab}, Runes: []rune{'h'},
		Label: "Tab", Description: "Switch", Visible: true,
		Handler: func() { a.moveFocus(FocusList) },
	})
	r.AddView(msgs, &keys.Action{
		Name: "compose", Runes: []rune{'i'},
		Label: "i", Description: "Input", Visible: true,
		Handler: func() { a.moveFocus(FocusInput) },
	})
	r.AddView(msgs, &keys.Action{
		Name: "refresh", Runes: []rune{'r', 'R'},
		Label: "r", Description: "Refresh",
		Handler: a.refresh,
	})

	// Rune keys in input focus are text; only special keys are bound.
	in := string(FocusInput)
	e := a.editor
	r.AddView(in, &keys.Action{
		Name: "newline", Keys: []tcell.Key{tcell.KeyEnter}, Mod: tcell.ModAlt,
		Label: "Alt-Enter", Description: "Newline",
		Handler: e.Newline,
	})
	r.AddView(in, &keys.Action{
		Name: "newline-lf", Keys: []tcell.Key{tcell.KeyCtrlJ},
		Label: "Ctrl-J", Description: "Newline",
		Handler: e.Newline,
	})
	r.AddView(in, &keys.Action{
		Name: "send", Keys: []tcell.Key{tcell.KeyEnter},
		Label: "Enter", Description: "Send", Visible: true,
		Handler: a.submit,
	})
	r.AddView(in, &keys.Action{
		Name: "leave", Keys: []tcell.Key{tcell.KeyEscape},
		Label: "Esc", Description: "Back", Visible: true,
		Handler: func() { a.moveFocus(FocusMessages) },
	})
	r.AddView(in, &keys.Action{
		Name: "backspace", Keys: []tcell.Key{tcell.KeyBackspace, tcell.KeyBackspace2},
		Label: "Backspace", Description: "Delete back",
		Handler: e.Backspace,
	})
	r.AddView(in, &keys.Action{
		Name: "delete", Keys: []tcell.Key{tcell.KeyDelete, tcell.KeyCtrlD},
		Label: "Del", Description: "Delete",
		Handler: e.Delete,
	})
	r.AddView(in, &keys.Action{
		Name: "left", Keys: []tcell.Key{tcell.KeyLeft},
		Label: "←", Description: "Left",
		Handler: e.Left,
	})
	r.AddView(in, &keys.Action{
		Name: "right", Keys: []tcell.Key{tcell.KeyRight},
		Label: "→", Description: "Right",
		Handler: e.Right,
	})
	r.AddView(in, &keys.Action{
		Name: "up", Keys: []tcell.Key{tcell.KeyUp},
		Label: "↑↓", Description: "History", Visible: true,
		Handler: e.Up,
	})
	r.AddView(in, &keys.Action{
		Name: "down", Keys: []tcell.Key{tcell.KeyDown},
		Label: "↓", Description: "Newer",
		Handler: e.Down,
	})
	r.AddView(in, &keys.Action{
		Name: "home", Keys: []tcell.Key{tcell.KeyHome, tcell.KeyCtrlA},
		Label: "Ctrl-A", Description: "Line start",
		Handler: e.Home,
	})
	r.AddView(in, &keys.Action{
		Name: "end", Keys: []tcell.Key{tcell.KeyEnd, tcell.KeyCtrlE},
		Label: "Ctrl-E", Description: "Line end",
		Handler: e.End,
	})
	r.AddView(in, &keys.Action{
		Name: "delete-word", Keys: []tcell.Key{tcell.KeyCtrlW},
		Label: "Ctrl-W", Description: "Delete word",
		Handler: e.DeleteWord,
	})
	r.AddView(in, &keys.Action{
		Name: "kill-line", Keys: []tcell.Key{tcell.KeyCtrlK},
		Label: "Ctrl-K", Description: "Kill to end",
		Handler: e.KillToEnd,
	})
	r.AddView(in, &keys.Action{
		Name: "clear", Keys: []tcell.Key{tcell.KeyCtrlU},
		Label: "Ctrl-U", Description: "Clear",
		Handler: e.Clear,
	})
	r.AddView(in, &keys.Action{
		Name: "tab", Keys: []tcell.Key{tcell.KeyTab},
		Label: "Tab", Description: "Indent",
		Handler: func() { e.Insert("    ") },
	})
}
