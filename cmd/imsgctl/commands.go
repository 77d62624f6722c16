package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/matheus3301/imsg/internal/app"
	"github.com/matheus3301/imsg/internal/contacts"
	"github.com/matheus3301/imsg/internal/dispatch"
	"github.com/matheus3301/imsg/internal/paths"
	"github.com/matheus3301/imsg/internal/state"
	"github.com/matheus3301/imsg/internal/store"
	"github.com/matheus3301/imsg/internal/tui/ui"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// pickLimit bounds how far back a numeric conversation reference may reach.
const pickLimit = 100

// parseArgs parses flags that may appear before, between or after the
// positional arguments, and returns the positionals.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, usageError(err.Error())
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (c *cli) cmdList(ctx context.Context, args []string) error {
	fs := newFlagSet("list")
	limit := fs.Int("n", 20, "number of conversations")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	db, err := c.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	convs, err := db.ListConversations(ctx, *limit)
	if err != nil {
		return err
	}
	if c.jsonOut {
		outputJSON(convs)
		return nil
	}
	if len(convs) == 0 {
		fmt.Println("No conversations found.")
		return nil
	}

	now := time.Now()
	fmt.Printf("%-4s %s %-10s %s\n", "#", ui.Pad("Contact", 30), "Last", "Service")
	fmt.Println(strings.Repeat("-", 60))
	for i, conv := range convs {
		name := conv.DisplayName
		if conv.UnreadCount > 0 {
			name = fmt.Sprintf("%s (%d)", name, conv.UnreadCount)
		}
		fmt.Printf("%-4d %s %-10s %s\n", i+1,
			ui.Pad(ui.Truncate(ui.Sanitize(name), 30), 30),
			ui.FormatTime(conv.LastMessageAt, now),
			serviceName(conv.Service))
	}

	if unread, err := db.UnreadCount(ctx); err == nil && unread > 0 {
		fmt.Printf("\n%d unread message(s)\n", unread)
	}
	return nil
}

func (c *cli) cmdRead(ctx context.Context, args []string) error {
	fs := newFlagSet("read")
	limit := fs.Int("n", 30, "number of messages")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return usageError("usage: imsgctl read [-n 30] <number|identifier>")
	}

	db, err := c.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	conv, err := resolveConversation(ctx, db, pos[0])
	if err != nil {
		return err
	}
	msgs, err := db.ListMessages(ctx, conv.ID, *limit)
	if err != nil {
		return err
	}
	if c.jsonOut {
		outputJSON(msgs)
		return nil
	}
	if len(msgs) == 0 {
		fmt.Printf("No messages found for %s\n", conv.DisplayName)
		return nil
	}

	now := time.Now()
	fmt.Printf("Messages with %s\n", ui.Sanitize(conv.DisplayName))
	fmt.Println(strings.Repeat("-", 60))
	for _, m := range msgs {
		fmt.Printf("[%s] %s: %s\n", ui.FormatTime(m.Date, now), ui.Sanitize(m.Sender), ui.Sanitize(m.Text))
	}
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Reply: imsgctl send %q \"your message\"\n", conv.Identifier)
	return nil
}

// conversationFinder is the part of the store resolveConversation needs.
type conversationFinder interface {
	ListConversations(ctx context.Context, limit int) ([]store.Conversation, error)
	FindConversation(ctx context.Context, identifier string) (*store.Conversation, error)
}

// resolveConversation accepts either a 1-based position in `imsgctl list`
// or a chat identifier such as a phone number or email.
func resolveConversation(ctx context.Context, db conversationFinder, ref string) (*store.Conversation, error) {
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= pickLimit {
		convs, err := db.ListConversations(ctx, pickLimit)
		if err != nil {
			return nil, err
		}
		if n > len(convs) {
			return nil, fmt.Errorf("invalid conversation number %d, use 1-%d", n, len(convs))
		}
		return &convs[n-1], nil
	}
	conv, err := db.FindConversation(ctx, ref)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("no conversation found for %q", ref)
	}
	return conv, nil
}

func (c *cli) cmdSend(ctx context.Context, args []string) error {
	fs := newFlagSet("send")
	yes := fs.Bool("y", false, "skip the confirmation prompt")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 2 {
		return usageError("usage: imsgctl send [-y] <recipient> <message>")
	}
	recipient, text := pos[0], pos[1]
	if err := dispatch.Validate(recipient, text); err != nil {
		return err
	}

	if !*yes && !confirm(os.Stdin, recipient, text) {
		fmt.Println("Message cancelled.")
		return nil
	}

	if err := paths.EnsureDir(); err != nil {
		return err
	}
	st, _, err := state.OpenAndMigrate(paths.StateDBPath())
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	sender := app.NewSender(c.cfg, st, c.logger)
	if err := sender.Send(ctx, recipient, text); err != nil {
		return fmt.Errorf("send to %s: %w", recipient, err)
	}
	if c.jsonOut {
		outputJSON(map[string]any{"recipient": recipient, "sent": true})
		return nil
	}
	fmt.Println("Message sent.")
	return nil
}

func confirm(in io.Reader, recipient, text string) bool {
	fmt.Printf("Sending to: %s\n", recipient)
	fmt.Printf("Message:    %s\n", text)
	fmt.Print("\nSend this message? [y/N] ")
	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func (c *cli) cmdSearch(ctx context.Context, args []string) error {
	fs := newFlagSet("search")
	limit := fs.Int("n", 20, "maximum results")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return usageError("usage: imsgctl search [-n 20] <query>")
	}

	db, err := c.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	msgs, err := db.SearchMessages(ctx, pos[0], *limit)
	if err != nil {
		return err
	}
	if c.jsonOut {
		outputJSON(msgs)
		return nil
	}
	if len(msgs) == 0 {
		fmt.Printf("No messages found matching %q\n", pos[0])
		return nil
	}

	now := time.Now()
	for _, m := range msgs {
		fmt.Printf("%-10s %s %s %s\n",
			ui.FormatTime(m.Date, now),
			ui.Pad(ui.Truncate(ui.Sanitize(m.ChatName), 20), 20),
			ui.Pad(ui.Truncate(ui.Sanitize(m.Sender), 15), 15),
			ui.Truncate(strings.ReplaceAll(ui.Sanitize(m.Text), "\n", " "), 50))
	}
	fmt.Printf("\nFound %d message(s)\n", len(msgs))
	return nil
}

type statusReport struct {
	ChatDB          string `json:"chat_db"`
	ChatDBError     string `json:"chat_db_error,omitempty"`
	Conversations   int    `json:"conversations"`
	Unread          int    `json:"unread"`
	HighestID       int64  `json:"highest_message_id"`
	ContactsDir     string `json:"contacts_dir"`
	ContactSources  int    `json:"contact_sources"`
	Contacts        int    `json:"contacts"`
	MessagesRunning bool   `json:"messages_running"`
	MessagesError   string `json:"messages_error,omitempty"`
}

// cmdStatus probes chat.db, the address book and Messages.app concurrently.
// Each probe fills its own fields, so a failed probe never hides the others.
func (c *cli) cmdStatus(ctx context.Context) error {
	report := statusReport{ChatDB: app.ChatDBPath(c.cfg), ContactsDir: c.cfg.AddressBookDir}
	if report.ContactsDir == "" {
		report.ContactsDir = contacts.DefaultDir()
	}

	var g errgroup.Group
	g.Go(func() error {
		db, err := store.Open(report.ChatDB, nil)
		if err != nil {
			report.ChatDBError = err.Error()
			return nil
		}
		defer func() { _ = db.Close() }()
		convs, err := db.ListConversations(ctx, 1000)
		if err != nil {
			report.ChatDBError = err.Error()
			return nil
		}
		report.Conversations = len(convs)
		report.Unread, _ = db.UnreadCount(ctx)
		report.HighestID, _ = db.HighestSequenceID(ctx)
		return nil
	})
	g.Go(func() error {
		sources := contacts.Sources(report.ContactsDir)
		report.ContactSources = len(sources)
		if len(sources) == 0 {
			return nil
		}
		ab := contacts.NewAddressBook(report.ContactsDir, c.logger)
		if err := ab.Load(); err != nil {
			c.logger.Warn("address book load failed", zap.Error(err))
		}
		report.Contacts = ab.Len()
		return nil
	})
	g.Go(func() error {
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		running, err := dispatch.NewAppleScript(dispatch.OSAScript{}, c.logger).MessagesRunning(probeCtx)
		if err != nil {
			report.MessagesError = err.Error()
		}
		report.MessagesRunning = running
		return nil
	})
	_ = g.Wait()

	if c.jsonOut {
		outputJSON(report)
		return nil
	}

	if report.ChatDBError != "" {
		fmt.Printf("[x] chat.db: %s\n", report.ChatDBError)
	} else {
		fmt.Printf("[ok] chat.db: %s\n", report.ChatDB)
		fmt.Printf("     %d conversations, %d unread, last id %d\n", report.Conversations, report.Unread, report.HighestID)
	}
	if report.ContactSources == 0 {
		fmt.Printf("[-] contacts: no address book under %s\n", report.ContactsDir)
	} else {
		fmt.Printf("[ok] contacts: %d entries from %d source(s)\n", report.Contacts, report.ContactSources)
	}
	switch {
	case report.MessagesError != "":
		fmt.Printf("[x] Messages.app: %s\n", report.MessagesError)
	case report.MessagesRunning:
		fmt.Println("[ok] Messages.app is running")
	default:
		fmt.Println("[-] Messages.app is not running")
	}
	return nil
}

func serviceName(s string) string {
	if s == "" {
		return "iMessage"
	}
	return s
}
