package dispatch

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Runner executes an AppleScript program and returns its combined output.
type Runner interface {
	Run(ctx context.Context, script string) ([]byte, error)
}

// OSAScript runs scripts with /usr/bin/osascript.
type OSAScript struct{}

// Run executes script via osascript -e.
func (OSAScript) Run(ctx context.Context, script string) ([]byte, error) {
	return exec.CommandContext(ctx, "osascript", "-e", script).CombinedOutput()
}

const (
	buddyScript = `tell application "Messages"
	set targetService to 1st service whose service type = iMessage
	set targetBuddy to buddy "%[1]s" of targetService
	send "%[2]s" to targetBuddy
end tell`

	participantScript = `tell application "Messages"
	send "%[2]s" to participant "%[1]s" of (1st chat whose participants contains participant "%[1]s")
end tell`

	accountScript = `tell application "Messages"
	set theService to 1st account whose service type = iMessage
	set theParticipant to participant "%[1]s" of theService
	send "%[2]s" to theParticipant
end tell`

	groupScript = `tell application "Messages"
	set theChat to 1st chat whose id ends with "%[1]s"
	send "%[2]s" to theChat
end tell`

	runningScript = `tell application "System Events"
	return (name of processes) contains "Messages"
end tell`
)

// AppleScript sends through Messages.app scripting. Direct recipients are
// tried as a buddy, then as a chat participant, then as an account
// participant. Group chat identifiers go straight to the chat.
type AppleScript struct {
	runner Runner
	logger *zap.Logger
}

// NewAppleScript creates an AppleScript sender. A nil runner uses osascript.
func NewAppleScript(runner Runner, logger *zap.Logger) *AppleScript {
	if runner == nil {
		runner = OSAScript{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppleScript{runner: runner, logger: logger}
}

// Send implements Sender.
func (a *AppleScript) Send(ctx context.Context, recipient, text string) error {
	if err := Validate(recipient, text); err != nil {
		return err
	}
	to, body := escapeAppleScript(recipient), escapeAppleScript(text)

	scripts := []string{buddyScript, participantScript, accountScript}
	if IsGroupIdentifier(recipient) {
		scripts = []string{groupScript}
	}

	var lastErr error
	for i, tmpl := range scripts {
		out, err := a.runner.Run(ctx, fmt.Sprintf(tmpl, to, body))
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = fmt.Errorf("osascript: %s: %w", strings.TrimSpace(string(out)), err)
		a.logger.Debug("send attempt failed", zap.Int("attempt", i+1), zap.Error(lastErr))
	}
	return lastErr
}

// MessagesRunning reports whether the Messages process is running.
func (a *AppleScript) MessagesRunning(ctx context.Context) (bool, error) {
	out, err := a.runner.Run(ctx, runningScript)
	if err != nil {
		return false, fmt.Errorf("check messages running: %w", err)
	}
	return strings.EqualFold(strings.TrimSpace(string(out)), "true"), nil
}

// IsGroupIdentifier reports whether identifier names a group chat rather
// than a single handle.
func IsGroupIdentifier(identifier string) bool {
	return strings.HasPrefix(identifier, "chat") && !strings.Contains(identifier, "@")
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
