package tui

import (
	"fmt"
	"strings"

	"github.com/matheus3301/imsg/internal/tui/model"
	"github.com/matheus3301/imsg/internal/tui/ui"
)

const (
	senderWidth    = 15
	maxIndentWidth = 20
	helpColumn     = 26
	inputHint      = "Press 'i' to type a message, 'q' to quit"
)

// render redraws the whole screen.
func (a *App) render() {
	s := a.screen
	if s == nil {
		return
	}
	a.dirty = false
	theme := a.opts.Theme
	s.Clear()

	lay := a.currentLayout()
	if lay.tooSmall {
		msg := fmt.Sprintf("Terminal too small (%dx%d). Need at least %dx%d. Press q to quit.",
			lay.width, lay.height, MinWidth, MinHeight)
		for i, l := range ui.Wrap("", "", msg, lay.width) {
			ui.PrintLine(s, ui.Line{Text: l, Fg: theme.ErrorBg, Bold: true}, 0, i, lay.width)
		}
		s.HideCursor()
		s.Show()
		return
	}

	if lay.listVisible {
		a.listPanel.SetRect(lay.list.x, lay.list.y, lay.list.w, lay.list.h)
		a.listPanel.SetFocused(a.focus == FocusList)
		a.listPanel.Render(s, a.listLines(lay))
	}

	a.msgPanel.SetRect(lay.messages.x, lay.messages.y, lay.messages.w, lay.messages.h)
	a.msgPanel.SetFocused(a.focus == FocusMessages)
	a.msgPanel.Render(s, a.visibleMessageLines(lay))

	ui.PrintLine(s, a.statusLine(), lay.status.x, lay.status.y, lay.status.w)

	a.inputPanel.SetRect(lay.input.x, lay.input.y, lay.input.w, lay.input.h)
	a.inputPanel.SetFocused(a.focus == FocusInput)
	lines, cx, cy := a.inputLines(lay)
	a.inputPanel.Render(s, lines)
	if a.focus == FocusInput && !a.help {
		x, y, _, _ := a.inputPanel.GetInnerRect()
		s.ShowCursor(x+cx, y+cy)
	} else {
		s.HideCursor()
	}

	if a.help {
		inner := min(max(lay.width-6, 1), 78)
		help := a.helpLines(max(inner/helpColumn, 1))
		a.helpPanel.Center(lay.width, lay.height, 3*helpColumn, len(help))
		a.helpPanel.Render(s, help)
	}

	s.Show()
}

// listLines renders the conversation rows that fit, keeping the selection
// in view.
func (a *App) listLines(lay layout) []ui.Line {
	theme := a.opts.Theme
	convs := a.vm.Conversations
	if len(convs) == 0 {
		return []ui.Line{{Text: "No conversations", Fg: theme.HintColor}}
	}

	rows := lay.listRows()
	sel := a.vm.Selected
	if sel >= 0 {
		if sel < a.listScroll {
			a.listScroll = sel
		} else if sel >= a.listScroll+rows {
			a.listScroll = sel - rows + 1
		}
	}
	a.listScroll = min(max(a.listScroll, 0), max(len(convs)-rows, 0))

	width := max(lay.list.w-2, 1)
	now := a.opts.Now()
	end := min(a.listScroll+rows, len(convs))
	lines := make([]ui.Line, 0, end-a.listScroll)
	for i := a.listScroll; i < end; i++ {
		c := convs[i]
		line := ui.Line{
			Text: conversationRow(ui.Sanitize(c.DisplayName), c.UnreadCount, ui.FormatTime(c.LastMessageAt, now), width),
			Fg:   theme.FgColor,
		}
		switch {
		case i == sel:
			line.Fg, line.Bg, line.Fill = theme.CursorFg, theme.CursorBg, true
		case c.UnreadCount > 0:
			line.Fg, line.Bold = theme.UnreadColor, true
		}
		lines = append(lines, line)
	}
	return lines
}

// conversationRow lays out "● name (n)" on the left and the time on the
// right of a width-cell row. The time is dropped first when space runs out.
func conversationRow(name string, unread int, when string, width int) string {
	marker, suffix := "  ", ""
	if unread > 0 {
		marker = "● "
		suffix = fmt.Sprintf(" (%d)", unread)
	}
	fixed := ui.Width(marker) + ui.Width(suffix)
	right := ""
	if when != "" && width-fixed-ui.Width(when)-1 >= 4 {
		right = when
	}
	nameW := width - fixed
	if right != "" {
		nameW -= ui.Width(right) + 1
	}
	left := marker + ui.Truncate(name, max(nameW, 1)) + suffix
	if right == "" {
		return ui.Truncate(left, width)
	}
	return ui.Pad(left, width-ui.Width(right)) + right
}

// messageLines wraps the open thread to width cells. Each message starts
// with "[time] Sender: " and continuation lines are indented under it.
func (a *App) messageLines(width int) []ui.Line {
	theme := a.opts.Theme
	now := a.opts.Now()
	var lines []ui.Line
	for _, m := range a.vm.Messages {
		sender, color := "Me", theme.SentColor
		if !m.IsFromMe {
			sender, color = ui.Truncate(ui.Sanitize(m.Sender), senderWidth), theme.ReceivedColor
		}
		prefix := messagePrefix(ui.FormatTime(m.Date, now), sender)
		indent := strings.Repeat(" ", min(ui.Width(prefix), maxIndentWidth))
		for i, para := range strings.Split(ui.Sanitize(m.Text), "\n") {
			lead := indent
			if i == 0 {
				lead = prefix
			}
			for _, l := range ui.Wrap(lead, indent, para, width) {
				lines = append(lines, ui.Line{Text: l, Fg: color})
			}
		}
	}
	return lines
}

// messagePrefix is "[time] Sender: ", or "Sender: " when the time is unknown.
func messagePrefix(when, sender string) string {
	if when == "" {
		return sender + ": "
	}
	return "[" + when + "] " + sender + ": "
}

func (a *App) visibleMessageLines(lay layout) []ui.Line {
	theme := a.opts.Theme
	if len(a.vm.Messages) == 0 {
		text := "Select a conversation"
		if a.vm.SelectedID() != 0 {
			text = "No messages"
		}
		return []ui.Line{{Text: text, Fg: theme.HintColor}}
	}
	width, height := lay.messageArea()
	lines := a.messageLines(width)
	a.msgScroll = min(max(a.msgScroll, 0), max(len(lines)-height, 0))
	return lines[a.msgScroll:min(a.msgScroll+height, len(lines))]
}

// statusLine shows a pending flash message once, otherwise the focus and
// its key hints.
func (a *App) statusLine() ui.Line {
	theme := a.opts.Theme
	line := ui.Line{Fg: theme.StatusFg, Bg: theme.StatusBg, Fill: true}
	if msg, level, ok := a.vm.Flash.Take(); ok {
		line.Text = " " + ui.Sanitize(msg)
		if level == model.LevelErr {
			line.Fg, line.Bg = theme.ErrorFg, theme.ErrorBg
		}
		return line
	}
	line.Text = " " + a.focus.indicator() + " " + strings.Join(a.registry.Hints(string(a.focus)), "  ")
	return line
}

// inputLines renders the compose box and returns the cursor cell relative
// to the panel interior.
func (a *App) inputLines(lay layout) ([]ui.Line, int, int) {
	theme := a.opts.Theme
	if a.focus != FocusInput && a.editor.Empty() {
		return []ui.Line{{Text: inputHint, Fg: theme.HintColor}}, 0, 0
	}

	width := max(lay.input.w-2, 1)
	height := max(lay.input.h-2, 1)
	rows := a.editor.Lines()
	row, col := a.editor.Cursor()

	top := 0
	if row >= height {
		top = row - height + 1
	}
	fg := theme.FgColor
	if a.focus != FocusInput {
		fg = theme.HintColor
	}

	var lines []ui.Line
	cx := 0
	for i := top; i < min(top+height, len(rows)); i++ {
		text := ui.Sanitize(rows[i])
		if i == row {
			text, cx = scrollToCursor([]rune(rows[i]), col, width)
		}
		lines = append(lines, ui.Line{Text: text, Fg: fg})
	}
	return lines, cx, row - top
}

// scrollToCursor returns the part of line that keeps the cursor inside a
// width-cell window and the cursor cell within it.
func scrollToCursor(line []rune, col, width int) (string, int) {
	start := 0
	for start < col && ui.Width(string(line[start:col])) > width-1 {
		start++
	}
	return ui.Sanitize(string(line[start:])), ui.Width(string(line[start:col]))
}

// helpLines lists every binding grouped by scope, in cols columns.
func (a *App) helpLines(cols int) []ui.Line {
	theme := a.opts.Theme
	sections := []struct {
		title string
		scope string
	}{
		{"General", ""},
		{"Conversations", string(FocusList)},
		{"Messages", string(FocusMessages)},
		{"Input", string(FocusInput)},
	}

	var lines []ui.Line
	for i, sec := range sections {
		if i > 0 {
			lines = append(lines, ui.Line{})
		}
		lines = append(lines, ui.Line{Text: sec.title, Fg: theme.TitleColor, Bold: true})

		actions := a.registry.Global
		if sec.scope != "" {
			actions = a.registry.Views[sec.scope]
		}
		var row strings.Builder
		for j, act := range actions {
			row.WriteString(ui.Pad(fmt.Sprintf(" %-9s %s", act.Label, act.Description), helpColumn))
			if (j+1)%cols == 0 || j == len(actions)-1 {
				lines = append(lines, ui.Line{Text: strings.TrimRight(row.String(), " "), Fg: theme.FgColor})
				row.Reset()
			}
		}
	}
	return lines
}
