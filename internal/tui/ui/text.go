package ui

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// Ellipsis marks truncated text.
const Ellipsis = "…"

// Sanitize removes codepoints that tcell cannot lay out in a single cell
// run (skin tone modifiers, joiners, variation selectors) and control
// characters other than newline. Tabs become a space.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch {
		case r == '\t':
			b.WriteByte(' ')
		case r == '\n':
			b.WriteByte('\n')
		case unicode.IsControl(r), isProblematicRune(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isProblematicRune(r rune) bool {
	switch {
	// Skin tone modifiers.
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	case r == 0x200D:
		return true
	// Variation selectors and their supplement.
	case r >= 0xFE00 && r <= 0xFE0F, r >= 0xE0100 && r <= 0xE01EF:
		return true
	default:
		return false
	}
}

// Width returns the display width of s in terminal cells.
func Width(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate clips s to width cells, ending in an ellipsis when clipped.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, Ellipsis)
}

// Pad fills s with spaces on the right up to width cells.
func Pad(s string, width int) string {
	return runewidth.FillRight(Truncate(s, width), width)
}

// Wrap breaks text into lines of at most width cells. The first line
// starts with lead and the following ones with indent. Words wider than a
// line are split.
func Wrap(lead, indent, text string, width int) []string {
	if width <= 0 {
		return nil
	}
	var lines []string
	cur := lead
	curW := runewidth.StringWidth(lead)
	fresh := true // nothing but the lead or indent on the current line

	flush := func() {
		lines = append(lines, strings.TrimRight(cur, " "))
		cur = indent
		curW = runewidth.StringWidth(indent)
		if curW >= width {
			cur, curW = "", 0
		}
		fresh = true
	}

	for _, word := range strings.Fields(text) {
		ww := runewidth.StringWidth(word)
		sep := 1
		if fresh {
			sep = 0
		}
		if curW+sep+ww <= width {
			if !fresh {
				cur += " "
			}
			cur += word
			curW += sep + ww
			fresh = false
			continue
		}
		if !fresh {
			flush()
		}
		for curW+ww > width {
			room := width - curW
			head := runewidth.Truncate(word, room, "")
			if head == "" {
				// A wide rune that does not fit an empty line.
				_, size := utf8.DecodeRuneInString(word)
				head = word[:size]
			}
			cur += head
			word = word[len(head):]
			ww = runewidth.StringWidth(word)
			flush()
		}
		if word != "" {
			cur += word
			curW += ww
			fresh = false
		}
	}
	if !fresh || len(lines) == 0 {
		lines = append(lines, strings.TrimRight(cur, " "))
	}
	return lines
}

// FormatTime renders a timestamp relative to now: the clock time within a
// day, "Yesterday", the weekday within a week, otherwise month/day.
func FormatTime(t *time.Time, now time.Time) string {
	if t == nil {
		return ""
	}
	days := int(now.Sub(*t).Hours() / 24)
	switch {
	case days <= 0:
		return t.Format("15:04")
	case days == 1:
		return "Yesterday"
	case days < 7:
		return t.Format("Mon")
	default:
		return t.Format("01/02")
	}
}
