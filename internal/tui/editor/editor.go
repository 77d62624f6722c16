// Package editor implements the multi-line compose buffer used by the
// terminal application. It holds no terminal state and performs no I/O.
package editor

import (
	"strings"
	"unicode"
)

// Editor is a multi-line text buffer with a rune-indexed cursor and a
// history of submitted texts.
//
// Invariants: len(lines) >= 1, 0 <= row < len(lines) and
// 0 <= col <= len(lines[row]).
type Editor struct {
	lines [][]rune
	row   int
	col   int

	history    []string
	histIdx    int // -1 when not recalling
	draft      string
	historyCap int
}

// New returns an empty editor. historyCap bounds the history length;
// zero means unbounded.
func New(historyCap int) *Editor {
	return &Editor{
		lines:      [][]rune{{}},
		histIdx:    -1,
		historyCap: historyCap,
	}
}

// Text returns the buffer joined with newlines.
func (e *Editor) Text() string {
	parts := make([]string, len(e.lines))
	for i, l := range e.lines {
		parts[i] = string(l)
	}
	return strings.Join(parts, "\n")
}

// Lines returns a copy of the buffer lines.
func (e *Editor) Lines() []string {
	out := make([]string, len(e.lines))
	for i, l := range e.lines {
		out[i] = string(l)
	}
	return out
}

// Cursor returns the cursor as (row, column), column counted in runes.
func (e *Editor) Cursor() (int, int) {
	return e.row, e.col
}

// Empty reports whether the buffer holds a single empty line.
func (e *Editor) Empty() bool {
	return len(e.lines) == 1 && len(e.lines[0]) == 0
}

// Recalling reports whether the buffer currently shows a history entry.
func (e *Editor) Recalling() bool {
	return e.histIdx >= 0
}

// SetText replaces the buffer and places the cursor at the end.
func (e *Editor) SetText(s string) {
	e.load(s)
	e.resetRecall()
}

// Submit returns the buffer text. The buffer is left untouched; callers
// clear it once the text has been delivered.
func (e *Editor) Submit() string {
	return e.Text()
}

// Clear empties the buffer. History is kept.
func (e *Editor) Clear() {
	e.lines = [][]rune{{}}
	e.row, e.col = 0, 0
	e.resetRecall()
}

// Insert inserts s at the cursor. Newlines split the current line; control
// characters other than tab are dropped.
func (e *Editor) Insert(s string) {
	if s == "" {
		return
	}
	e.resetRecall()
	for _, r := range s {
		switch {
		case r == '\n':
			e.splitLine()
		case r == '\t' || unicode.IsPrint(r):
			e.insertRune(r)
		}
	}
}

// Newline splits the current line at the cursor.
func (e *Editor) Newline() {
	e.resetRecall()
	e.splitLine()
}

func (e *Editor) insertRune(r rune) {
	line := e.lines[e.row]
	line = append(line, 0)
	copy(line[e.col+1:], line[e.col:])
	line[e.col] = r
	e.lines[e.row] = line
	e.col++
}

func (e *Editor) splitLine() {
	line := e.lines[e.row]
	tail := append([]rune(nil), line[e.col:]...)
	e.lines[e.row] = line[:e.col:e.col]

	e.lines = append(e.lines, nil)
	copy(e.lines[e.row+2:], e.lines[e.row+1:])
	e.lines[e.row+1] = tail
	e.row++
	e.col = 0
}

// joinWithPrevious merges the current line into the one above it.
func (e *Editor) joinWithPrevious() {
	prev := e.lines[e.row-1]
	e.col = len(prev)
	e.lines[e.row-1] = append(prev, e.lines[e.row]...)
	e.lines = append(e.lines[:e.row], e.lines[e.row+1:]...)
	e.row--
}

// Backspace deletes the rune before the cursor, joining with the previous
// line at column zero.
func (e *Editor) Backspace() {
	e.resetRecall()
	if e.col > 0 {
		line := e.lines[e.row]
		e.lines[e.row] = append(line[:e.col-1], line[e.col:]...)
		e.col--
		return
	}
	if e.row > 0 {
		e.joinWithPrevious()
	}
}

// Delete deletes the rune at the cursor, joining with the next line at
// end of line.
func (e *Editor) Delete() {
	e.resetRecall()
	line := e.lines[e.row]
	if e.col < len(line) {
		e.lines[e.row] = append(line[:e.col], line[e.col+1:]...)
		return
	}
	if e.row < len(e.lines)-1 {
		e.row++
		e.joinWithPrevious()
	}
}

// DeleteWord deletes backward over whitespace and then over the preceding
// word. At column zero of a later line it joins with the previous line.
func (e *Editor) DeleteWord() {
	e.resetRecall()
	if e.col == 0 {
		if e.row > 0 {
			e.joinWithPrevious()
		}
		return
	}
	line := e.lines[e.row]
	i := e.col
	for i > 0 && unicode.IsSpace(line[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(line[i-1]) {
		i--
	}
	e.lines[e.row] = append(line[:i], line[e.col:]...)
	e.col = i
}

// KillToEnd deletes from the cursor to the end of the line.
func (e *Editor) KillToEnd() {
	e.resetRecall()
	e.lines[e.row] = e.lines[e.row][:e.col]
}

// Home moves the cursor to the start of the line.
func (e *Editor) Home() { e.col = 0 }

// End moves the cursor to the end of the line.
func (e *Editor) End() { e.col = len(e.lines[e.row]) }

// Left moves one rune left, wrapping to the end of the previous line.
func (e *Editor) Left() {
	switch {
	case e.col > 0:
		e.col--
	case e.row > 0:
		e.row--
		e.col = len(e.lines[e.row])
	}
}

// Right moves one rune right, wrapping to the start of the next line.
func (e *Editor) Right() {
	switch {
	case e.col < len(e.lines[e.row]):
		e.col++
	case e.row < len(e.lines)-1:
		e.row++
		e.col = 0
	}
}

// Up moves to the previous line. On the first line it recalls the
// previous history entry instead.
func (e *Editor) Up() {
	if e.row == 0 {
		e.recallOlder()
		return
	}
	e.row--
	e.col = min(e.col, len(e.lines[e.row]))
}

// Down moves to the next line. On the last line it recalls the next,
// newer history entry instead.
func (e *Editor) Down() {
	if e.row == len(e.lines)-1 {
		e.recallNewer()
		return
	}
	e.row++
	e.col = min(e.col, len(e.lines[e.row]))
}

// PushHistory records a submitted text. Blank texts and repeats of the
// most recent entry are ignored.
func (e *Editor) PushHistory(text string) {
	e.resetRecall()
	if strings.TrimSpace(text) == "" {
		return
	}
	if n := len(e.history); n > 0 && e.history[n-1] == text {
		return
	}
	e.history = append(e.history, text)
	if e.historyCap > 0 && len(e.history) > e.historyCap {
		e.history = e.history[len(e.history)-e.historyCap:]
	}
}

// History returns a copy of the history, oldest first.
func (e *Editor) History() []string {
	return append([]string(nil), e.history...)
}

func (e *Editor) recallOlder() {
	if len(e.history) == 0 {
		return
	}
	switch {
	case e.histIdx < 0:
		e.draft = e.Text()
		e.histIdx = len(e.history) - 1
	case e.histIdx > 0:
		e.histIdx--
	}
	e.load(e.history[e.histIdx])
}

func (e *Editor) recallNewer() {
	if e.histIdx < 0 {
		return
	}
	if e.histIdx < len(e.history)-1 {
		e.histIdx++
		e.load(e.history[e.histIdx])
		return
	}
	draft := e.draft
	e.resetRecall()
	e.load(draft)
}

func (e *Editor) resetRecall() {
	e.histIdx = -1
	e.draft = ""
}

func (e *Editor) load(s string) {
	parts := strings.Split(s, "\n")
	e.lines = make([][]rune, len(parts))
	for i, p := range parts {
		e.lines[i] = []rune(p)
	}
	e.row = len(e.lines) - 1
	e.col = len(e.lines[e.row])
}
