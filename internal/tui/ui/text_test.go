package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"\U0001F44D\U0001F3FB", "\U0001F44D"},
		{"a\u200db", "ab"},
		{"\u2764\uFE0F", "\u2764"},
		{"tab\there", "tab here"},
		{"bell\x07\r", "bell"},
		{"two\nlines", "two\nlines"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), "Sanitize(%q)", tt.in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Alice", Truncate("Alice", 10))
	assert.Equal(t, "Alexand…", Truncate("Alexandra Smith", 8))
	assert.Equal(t, "", Truncate("Alice", 0))
	// Wide runes count two cells each.
	assert.LessOrEqual(t, Width(Truncate("日本語テキスト", 5)), 5)
	assert.Equal(t, "ab   ", Pad("ab", 5))
}

func TestWrap(t *testing.T) {
	lines := Wrap("[12:00] Bob: ", "    ", "the quick brown fox jumps", 20)
	assert.Equal(t, []string{
		"[12:00] Bob: the",
		"    quick brown fox",
		"    jumps",
	}, lines)

	for _, l := range Wrap("> ", "  ", "supercalifragilisticexpialidocious", 10) {
		assert.LessOrEqual(t, Width(l), 10, "line %q", l)
	}

	assert.Equal(t, []string{"[12:00] Bob:"}, Wrap("[12:00] Bob: ", "    ", "", 20))
	assert.Equal(t, []string{""}, Wrap("", "", "", 20))
	assert.Nil(t, Wrap("x", "", "y", 0))
}

func TestFormatTime(t *testing.T) {
	now := time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(-d)
		return &v
	}

	assert.Equal(t, "", FormatTime(nil, now))
	assert.Equal(t, "16:30", FormatTime(at(2*time.Hour), now))
	assert.Equal(t, "Yesterday", FormatTime(at(30*time.Hour), now))
	assert.Equal(t, "Mon", FormatTime(at(4*24*time.Hour), now))
	assert.Equal(t, "02/28", FormatTime(at(14*24*time.Hour), now))
}
