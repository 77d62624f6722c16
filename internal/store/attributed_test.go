package store

import (
	"strings"
	"testing"
)

// typedstream builds a minimal archived NSAttributedString around text.
func typedstream(text string) []byte {
	var b []byte
	b = append(b, "\x04\x0bstreamtyped\x81\xe8\x03\x84\x01@\x84\x84\x84\x12NSAttributedString\x00\x84\x84\x08NSObject\x00\x85\x92\x84\x84\x84\x08NSString\x01\x94\x84\x01+"...)
	n := len(text)
	if n < 0x80 {
		b = append(b, byte(n))
	} else {
		b = append(b, 0x81, byte(n), byte(n>>8))
	}
	b = append(b, text...)
	b = append(b, "\x86\x84\x02iI\x01\x05\x92\x84\x84\x84\x0cNSDictionary\x00\x94\x84\x01i\x01\x92\x84\x96\x96\x1d__kIMMessagePartAttributeName\x86"...)
	return b
}

func TestExtractAttributedText(t *testing.T) {
	long := strings.Repeat("long message ", 30)

	tests := []struct {
		name string
		blob []byte
		want string
	}{
		{"empty", nil, ""},
		{"short string", typedstream("hello"), "hello"},
		{"two byte length", typedstream(long), strings.TrimSpace(long)},
		{"unicode", typedstream("olá 👋"), "olá 👋"},
		{"fallback to readable run", []byte("bplist00 junk \x01\x02 Hello there friend \x00NSDictionary\x00$class"), "Hello there friend"},
		{"only artifacts", []byte("\x01NSDictionary\x02NSArray\x03"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractAttributedText(tt.blob); got != tt.want {
				t.Errorf("ExtractAttributedText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessageTextFallbacks(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		attributed []byte
		want       string
	}{
		{"plain text wins", "hi", typedstream("ignored"), "hi"},
		{"attributed body", "", typedstream("from blob"), "from blob"},
		{"attachment marker only", "￼", nil, attachmentPlaceholder},
		{"attachment with caption", "￼nice pic", nil, "nice pic"},
		{"nothing", "", nil, attachmentPlaceholder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := messageText(tt.text, tt.attributed); got != tt.want {
				t.Errorf("messageText() = %q, want %q", got, tt.want)
			}
		})
	}
}
