package tui

const (
	MinWidth  = 50
	MinHeight = 10

	statusHeight   = 1
	minInputHeight = 3
	maxInputHeight = 6
)

type rect struct {
	x, y, w, h int
}

// layout is the panel geometry for one screen size.
type layout struct {
	width, height int
	tooSmall      bool
	listVisible   bool

	list     rect
	messages rect
	status   rect
	input    rect
}

// computeLayout splits a w by h screen. The list takes a third of the width
// bounded to 20..35 columns, shrinks to 10..20 below 80 columns and is
// collapsed below 60. The input grows with its content from 3 to 6 rows.
func computeLayout(w, h, inputLines int) layout {
	l := layout{width: w, height: h}
	if w < MinWidth || h < MinHeight {
		l.tooSmall = true
		return l
	}

	listW := min(35, max(20, w/3))
	if w < 80 {
		listW = min(20, max(10, w/4))
	}
	if w < 60 {
		listW = 0
	}

	inputH := min(max(inputLines+2, minInputHeight), maxInputHeight)
	mainH := h - inputH - statusHeight

	l.listVisible = listW > 0
	l.list = rect{0, 0, listW, mainH}
	l.messages = rect{listW, 0, w - listW, mainH}
	l.status = rect{0, mainH, w, statusHeight}
	l.input = rect{0, mainH + statusHeight, w, inputH}
	return l
}

// messageArea is the inner size of the message pane.
func (l layout) messageArea() (width, height int) {
	return max(l.messages.w-2, 1), max(l.messages.h-2, 1)
}

// listRows is the number of conversation rows that fit.
func (l layout) listRows() int {
	return max(l.list.h-2, 1)
}
