package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Line is one row of panel content with its colors. Text is plain; it is
// escaped before being handed to tview.
type Line struct {
	Text string
	Fg   tcell.Color
	Bg   tcell.Color
	Bold bool
	// Fill paints Bg across the full row width.
	Fill bool
}

// Panel is a bordered, titled region. tview.Box draws the frame and the
// focus highlight; content rows are printed inside it.
type Panel struct {
	*tview.Box
	theme *Theme
}

// NewPanel creates a bordered panel.
func NewPanel(title string, theme *Theme) *Panel {
	box := tview.NewBox()
	box.SetBorder(true)
	box.SetBorderColor(theme.BorderColor)
	box.SetBackgroundColor(theme.BgColor)
	box.SetTitleColor(theme.TitleColor)
	p := &Panel{Box: box, theme: theme}
	p.SetTitle(title)
	return p
}

// SetTitle sets the panel title, padded with a space on each side.
func (p *Panel) SetTitle(title string) {
	p.Box.SetTitle(" " + tview.Escape(Sanitize(title)) + " ")
}

// SetFocused switches the border between its normal and focused look.
func (p *Panel) SetFocused(focused bool) {
	if focused {
		p.Focus(nil)
		p.SetBorderColor(p.theme.BorderFocusColor)
		return
	}
	p.Blur()
	p.SetBorderColor(p.theme.BorderColor)
}

// Render draws the frame and as many lines as fit inside it.
func (p *Panel) Render(screen tcell.Screen, lines []Line) {
	p.Draw(screen)
	x, y, w, h := p.GetInnerRect()
	for i, l := range lines {
		if i >= h {
			break
		}
		PrintLine(screen, l, x, y+i, w)
	}
}

// PrintLine prints one styled line clipped to width cells.
func PrintLine(screen tcell.Screen, l Line, x, y, width int) {
	if width <= 0 {
		return
	}
	text := Truncate(l.Text, width)
	if l.Fill {
		text = Pad(text, width)
	}
	attrs := "-"
	if l.Bold {
		attrs = "b"
	}
	tag := fmt.Sprintf("[%s:%s:%s]", colorTag(l.Fg), colorTag(l.Bg), attrs)
	tview.Print(screen, tag+tview.Escape(text), x, y, width, tview.AlignLeft, l.Fg)
}

func colorTag(c tcell.Color) string {
	if c == tcell.ColorDefault {
		return "-"
	}
	return colorName(c)
}

// Overlay is a centered bordered box drawn over the other panels. Box
// fills its background, so panels underneath do not show through.
type Overlay struct {
	*Panel
}

// NewOverlay creates an overlay panel.
func NewOverlay(title string, theme *Theme) *Overlay {
	return &Overlay{Panel: NewPanel(title, theme)}
}

// Center positions the overlay in the middle of a screen of the given
// size, sized for content of contentW by contentH cells.
func (o *Overlay) Center(screenW, screenH, contentW, contentH int) {
	w := min(max(contentW+2, 40), screenW-4, 80)
	h := min(contentH+2, screenH-2)
	o.SetRect(max(0, (screenW-w)/2), max(0, (screenH-h)/2), max(w, 0), max(h, 0))
}
