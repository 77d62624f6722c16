package model

// Level is the severity of a flash message.
type Level int

const (
	LevelInfo Level = iota
	LevelErr
)

// Flash holds the status line message. A message is shown for one render
// pass and then cleared. An error outranks an info message set in the
// same pass.
type Flash struct {
	message string
	level   Level
	set     bool
}

// Info sets an info-level message unless an error is pending.
func (f *Flash) Info(msg string) {
	if f.set && f.level == LevelErr {
		return
	}
	f.message, f.level, f.set = msg, LevelInfo, true
}

// Err sets an error-level message.
func (f *Flash) Err(msg string) {
	f.message, f.level, f.set = msg, LevelErr, true
}

// Peek returns the pending message without clearing it.
func (f *Flash) Peek() (string, Level, bool) {
	return f.message, f.level, f.set
}

// Take returns the pending message and clears it.
func (f *Flash) Take() (string, Level, bool) {
	msg, level, ok := f.message, f.level, f.set
	*f = Flash{}
	return msg, level, ok
}
