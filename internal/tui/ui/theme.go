package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// Theme holds color constants for the TUI.
type Theme struct {
	BgColor          tcell.Color
	FgColor          tcell.Color
	BorderColor      tcell.Color
	BorderFocusColor tcell.Color
	TitleColor       tcell.Color
	CursorFg         tcell.Color
	CursorBg         tcell.Color
	UnreadColor      tcell.Color
	TimeColor        tcell.Color
	SentColor        tcell.Color
	ReceivedColor    tcell.Color
	HintColor        tcell.Color
	StatusFg         tcell.Color
	StatusBg         tcell.Color
	ErrorFg          tcell.Color
	ErrorBg          tcell.Color
	MenuKeyColor     tcell.Color
}

// DefaultTheme returns a k9s-inspired dark theme.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:          tcell.ColorBlack,
		FgColor:          tcell.ColorCadetBlue,
		BorderColor:      tcell.ColorDodgerBlue,
		BorderFocusColor: tcell.ColorLightSkyBlue,
		TitleColor:       tcell.ColorFuchsia,
		CursorFg:         tcell.ColorBlack,
		CursorBg:         tcell.ColorAqua,
		UnreadColor:      tcell.ColorYellow,
		TimeColor:        tcell.ColorGray,
		SentColor:        tcell.ColorLightSkyBlue,
		ReceivedColor:    tcell.ColorPapayaWhip,
		HintColor:        tcell.ColorGray,
		StatusFg:         tcell.ColorBlack,
		StatusBg:         tcell.ColorGreen,
		ErrorFg:          tcell.ColorWhite,
		ErrorBg:          tcell.ColorOrangeRed,
		MenuKeyColor:     tcell.ColorDodgerBlue,
	}
}

// colorName returns a tview color tag name for c.
func colorName(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
