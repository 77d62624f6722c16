package store

import (
	"bytes"
	"encoding/binary"
	"regexp"
	"strings"
	"unicode/utf8"
)

// attachmentPlaceholder is shown for messages without any recoverable text.
const attachmentPlaceholder = "[Attachment]"

var (
	printableRun = regexp.MustCompile(`[\x20-\x7E\x{00A0}-\x{FFFF}]{3,}`)

	archiverArtifacts = []string{
		"bplist", "NSString", "NSNumber", "NSDictionary", "NSArray",
		"NSData", "NSObject", "NSAttributedString", "NSMutableString",
		"$class", "archiver", "streamtyped", "__kIM",
	}
)

// ExtractAttributedText recovers display text from a message.attributedBody
// blob (a typedstream-archived NSAttributedString). It is best effort and
// returns "" when nothing readable is found.
func ExtractAttributedText(blob []byte) string {
	if len(blob) == 0 {
		return ""
	}
	if s := lengthPrefixedString(blob); s != "" {
		return s
	}
	return longestReadableRun(blob)
}

// lengthPrefixedString reads the string that follows the first NSString
// class marker. The payload is introduced by '+' and a length that is
// either one byte or 0x81 followed by a little-endian uint16.
func lengthPrefixedString(blob []byte) string {
	i := bytes.Index(blob, []byte("NSString"))
	if i < 0 {
		return ""
	}
	rest := blob[i+len("NSString"):]
	plus := bytes.IndexByte(rest[:min(len(rest), 8)], '+')
	if plus < 0 || plus+1 >= len(rest) {
		return ""
	}
	rest = rest[plus+1:]

	var n, start int
	switch rest[0] {
	case 0x81:
		if len(rest) < 3 {
			return ""
		}
		n, start = int(binary.LittleEndian.Uint16(rest[1:3])), 3
	case 0x82:
		if len(rest) < 5 {
			return ""
		}
		n, start = int(binary.LittleEndian.Uint32(rest[1:5])), 5
	default:
		n, start = int(rest[0]), 1
	}
	if n <= 0 || start+n > len(rest) {
		return ""
	}
	text := rest[start : start+n]
	if !utf8.Valid(text) {
		return ""
	}
	return strings.TrimSpace(string(text))
}

// longestReadableRun returns the longest printable run that is not an
// archiver class name.
func longestReadableRun(blob []byte) string {
	clean := strings.ToValidUTF8(string(blob), "\x00")
	var best string
	for _, m := range printableRun.FindAllString(clean, -1) {
		m = strings.TrimSpace(m)
		if len(m) <= 2 || isArchiverArtifact(m) {
			continue
		}
		if utf8.RuneCountInString(m) > utf8.RuneCountInString(best) {
			best = m
		}
	}
	return best
}

func isArchiverArtifact(s string) bool {
	for _, a := range archiverArtifacts {
		if strings.Contains(s, a) {
			return true
		}
	}
	return false
}

// objectReplacement marks an inline attachment inside message.text.
const objectReplacement = "\uFFFC"

// messageText picks the plain text column, then the attributed body, then
// the attachment placeholder.
func messageText(text string, attributed []byte) string {
	if t := strings.TrimSpace(strings.ReplaceAll(text, objectReplacement, "")); t != "" {
		return t
	}
	if strings.Contains(text, objectReplacement) {
		return attachmentPlaceholder
	}
	if s := ExtractAttributedText(attributed); s != "" {
		return s
	}
	return attachmentPlaceholder
}
