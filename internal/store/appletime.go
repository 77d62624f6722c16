package store

import "time"

// appleEpochOffset is the number of seconds between 1970-01-01 and 2001-01-01.
const appleEpochOffset = 978307200

// AppleTime converts a chat.db date to local time. Newer databases store
// nanoseconds since 2001, older ones seconds. Zero means no date.
func AppleTime(v int64) *time.Time {
	if v == 0 {
		return nil
	}
	var t time.Time
	if v > 1e9 {
		t = time.Unix(v/1e9+appleEpochOffset, v%1e9)
	} else {
		t = time.Unix(v+appleEpochOffset, 0)
	}
	return &t
}

// ToAppleTime is the inverse of AppleTime in nanosecond form.
func ToAppleTime(t time.Time) int64 {
	return (t.Unix()-appleEpochOffset)*1e9 + int64(t.Nanosecond())
}
