package tui

import (
	"errors"
	"fmt"
	"slices"
)

// Focus is the panel that receives keyboard input.
type Focus string

const (
	FocusList     Focus = "conversations"
	FocusMessages Focus = "messages"
	FocusInput    Focus = "input"
)

// indicator is the status line tag for the focus.
func (f Focus) indicator() string {
	switch f {
	case FocusList:
		return "[CONV]"
	case FocusMessages:
		return "[MSG]"
	case FocusInput:
		return "[INPUT]"
	default:
		return ""
	}
}

// validTransitions defines allowed focus transitions.
var validTransitions = map[Focus][]Focus{
	FocusList:     {FocusMessages, FocusInput},
	FocusMessages: {FocusList, FocusInput},
	FocusInput:    {FocusMessages},
}

var errListHidden = errors.New("conversation list is collapsed")

// transition moves focus to `to`. The list cannot take focus while the
// layout has collapsed it.
func (a *App) transition(to Focus) error {
	if to == a.focus {
		return nil
	}
	if !slices.Contains(validTransitions[a.focus], to) {
		return fmt.Errorf("invalid focus transition from %s to %s", a.focus, to)
	}
	if to == FocusList && !a.currentLayout().listVisible {
		return errListHidden
	}
	a.focus = to
	a.dirty = true
	return nil
}
