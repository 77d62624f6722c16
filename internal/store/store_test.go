package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fixtureSchema = `
CREATE TABLE handle (ROWID INTEGER PRIMARY KEY AUTOINCREMENT, id TEXT NOT NULL, service TEXT);
CREATE TABLE chat (ROWID INTEGER PRIMARY KEY AUTOINCREMENT, chat_identifier TEXT, display_name TEXT, service_name TEXT);
CREATE TABLE message (
	ROWID INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT,
	attributedBody BLOB,
	date INTEGER,
	is_from_me INTEGER DEFAULT 0,
	is_read INTEGER DEFAULT 0,
	service TEXT,
	handle_id INTEGER DEFAULT 0
);
CREATE TABLE chat_message_join (chat_id INTEGER, message_id INTEGER);
CREATE TABLE chat_handle_join (chat_id INTEGER, handle_id INTEGER);
`

// fixture is a writable chat.db lookalike.
type fixture struct {
	t    *testing.T
	path string
	w    *sql.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.db")
	w, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Exec(fixtureSchema); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return &fixture{t: t, path: path, w: w}
}

func (f *fixture) exec(q string, args ...any) int64 {
	f.t.Helper()
	res, err := f.w.Exec(q, args...)
	if err != nil {
		f.t.Fatal(err)
	}
	id, _ := res.LastInsertId()
	return id
}

func (f *fixture) handle(id string) int64 {
	return f.exec(`INSERT INTO handle (id, service) VALUES (?, 'iMessage')`, id)
}

func (f *fixture) chat(ident, name string, handles ...int64) int64 {
	id := f.exec(`INSERT INTO chat (chat_identifier, display_name, service_name) VALUES (?, ?, 'iMessage')`, ident, name)
	for _, h := range handles {
		f.exec(`INSERT INTO chat_handle_join (chat_id, handle_id) VALUES (?, ?)`, id, h)
	}
	return id
}

type msgOpt func(q *msgRow)

type msgRow struct {
	text       any
	attributed []byte
	fromMe     bool
	read       bool
	handle     int64
}

func fromMe() msgOpt             { return func(r *msgRow) { r.fromMe = true } }
func read() msgOpt               { return func(r *msgRow) { r.read = true } }
func by(handle int64) msgOpt     { return func(r *msgRow) { r.handle = handle } }
func attributed(b []byte) msgOpt { return func(r *msgRow) { r.text = nil; r.attributed = b } }

func (f *fixture) message(chatID int64, text string, at time.Time, opts ...msgOpt) int64 {
	r := msgRow{text: text}
	for _, o := range opts {
		o(&r)
	}
	id := f.exec(`
		INSERT INTO message (text, attributedBody, date, is_from_me, is_read, service, handle_id)
		VALUES (?, ?, ?, ?, ?, 'iMessage', ?)`,
		r.text, r.attributed, ToAppleTime(at), r.fromMe, r.read, r.handle)
	f.exec(`INSERT INTO chat_message_join (chat_id, message_id) VALUES (?, ?)`, chatID, id)
	return id
}

func (f *fixture) open(r NameResolver) *DB {
	f.t.Helper()
	db, err := Open(f.path, r)
	if err != nil {
		f.t.Fatal(err)
	}
	f.t.Cleanup(func() { _ = db.Close() })
	return db
}

type mapResolver map[string]string

func (m mapResolver) Resolve(id string) string {
	if name, ok := m[id]; ok {
		return name
	}
	return id
}

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestOpenMissingStore(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.db"), nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Open() error = %v, want ErrUnavailable", err)
	}
}

func TestListConversations(t *testing.T) {
	f := newFixture(t)
	alice := f.handle("+15550001111")
	bob := f.handle("bob@example.com")

	older := f.chat("+15550001111", "", alice)
	newer := f.chat("chat123", "Weekend Plans", alice, bob)
	unknown := f.chat("", "")
	empty := f.chat("+15559999999", "")

	f.message(older, "hi", base, by(alice), read())
	f.message(older, "unread one", base.Add(time.Minute), by(alice))
	f.message(newer, "plans?", base.Add(time.Hour), by(bob))
	f.message(newer, "sure", base.Add(2*time.Hour), fromMe())
	f.message(unknown, "", base.Add(-time.Hour), by(bob))

	db := f.open(mapResolver{"+15550001111": "Alice Smith"})
	convs, err := db.ListConversations(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(convs) != 4 {
		t.Fatalf("got %d conversations, want 4", len(convs))
	}

	wantOrder := []int64{newer, older, unknown, empty}
	for i, c := range convs {
		if c.ID != wantOrder[i] {
			t.Errorf("conversation %d id = %d, want %d", i, c.ID, wantOrder[i])
		}
	}

	c := convs[0]
	if c.DisplayName != "Weekend Plans" || c.Preview != "sure" || c.UnreadCount != 1 {
		t.Errorf("newer = %+v", c)
	}
	if len(c.Participants) != 2 {
		t.Errorf("participants = %v, want 2", c.Participants)
	}
	if c.LastMessageAt == nil || !c.LastMessageAt.Equal(base.Add(2*time.Hour)) {
		t.Errorf("last message at = %v", c.LastMessageAt)
	}

	c = convs[1]
	if c.DisplayName != "Alice Smith" {
		t.Errorf("resolved name = %q, want Alice Smith", c.DisplayName)
	}
	if c.UnreadCount != 1 || c.Preview != "unread one" {
		t.Errorf("older = %+v", c)
	}

	if convs[2].DisplayName != "Unknown" {
		t.Errorf("empty identifier name = %q, want Unknown", convs[2].DisplayName)
	}
	if convs[2].Preview != attachmentPlaceholder {
		t.Errorf("empty message preview = %q, want %q", convs[2].Preview, attachmentPlaceholder)
	}
	if convs[3].DisplayName != "+15559999999" {
		t.Errorf("unresolved name = %q, want identifier", convs[3].DisplayName)
	}
	if convs[3].LastMessageAt != nil || convs[3].Service != "iMessage" {
		t.Errorf("empty chat = %+v", convs[3])
	}
}

func TestListMessagesChronological(t *testing.T) {
	f := newFixture(t)
	alice := f.handle("+15550001111")
	chat := f.chat("+15550001111", "", alice)
	for i, text := range []string{"one", "two", "three", "four"} {
		opts := []msgOpt{by(alice)}
		if i%2 == 1 {
			opts = []msgOpt{fromMe()}
		}
		f.message(chat, text, base.Add(time.Duration(i)*time.Minute), opts...)
	}
	f.message(chat, "￼", base.Add(time.Hour), by(alice))

	db := f.open(mapResolver{"+15550001111": "Alice"})
	msgs, err := db.ListMessages(context.Background(), chat, 3)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	var texts []string
	for _, m := range msgs {
		texts = append(texts, m.Text)
	}
	if got := strings.Join(texts, ","); got != "three,four,"+attachmentPlaceholder {
		t.Errorf("texts = %s", got)
	}
	if msgs[0].Sender != "Alice" || msgs[1].Sender != "Me" {
		t.Errorf("senders = %q, %q", msgs[0].Sender, msgs[1].Sender)
	}
	if msgs[0].ChatName != "Alice" || msgs[0].ChatIdentifier != "+15550001111" {
		t.Errorf("chat fields = %+v", msgs[0])
	}
	if !msgs[1].IsFromMe || msgs[0].IsFromMe {
		t.Error("is_from_me not mapped")
	}
}

func TestListMessagesSince(t *testing.T) {
	f := newFixture(t)
	h := f.handle("x@example.com")
	chat := f.chat("x@example.com", "", h)
	var ids []int64
	for i := range 5 {
		ids = append(ids, f.message(chat, "m", base.Add(-time.Duration(i)*time.Minute), by(h)))
	}

	db := f.open(nil)
	msgs, err := db.ListMessagesSince(context.Background(), ids[1])
	if err != nil {
		t.Fatalf("ListMessagesSince() error = %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	// Ascending by id even though the dates run backwards.
	for i, m := range msgs {
		if m.ID != ids[i+2] {
			t.Errorf("msgs[%d].ID = %d, want %d", i, m.ID, ids[i+2])
		}
		if m.Sender != "x@example.com" {
			t.Errorf("sender = %q, want raw handle", m.Sender)
		}
	}

	high, err := db.HighestSequenceID(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if high != ids[4] {
		t.Errorf("HighestSequenceID() = %d, want %d", high, ids[4])
	}
}

func TestHighestSequenceIDEmptyStore(t *testing.T) {
	db := newFixture(t).open(nil)
	high, err := db.HighestSequenceID(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if high != 0 {
		t.Errorf("HighestSequenceID() = %d, want 0", high)
	}
}

func TestSearchAndUnread(t *testing.T) {
	f := newFixture(t)
	h := f.handle("+15550001111")
	chat := f.chat("+15550001111", "", h)
	f.message(chat, "lunch tomorrow?", base, by(h))
	f.message(chat, "sounds good", base.Add(time.Minute), fromMe(), read())
	f.message(chat, "Lunch at noon", base.Add(2*time.Minute), by(h), read())

	db := f.open(nil)
	msgs, err := db.SearchMessages(context.Background(), "lunch", 10)
	if err != nil {
		t.Fatalf("SearchMessages() error = %v", err)
	}
	if len(msgs) != 2 || msgs[0].Text != "Lunch at noon" {
		t.Errorf("search results = %+v", msgs)
	}

	n, err := db.UnreadCount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("UnreadCount() = %d, want 1", n)
	}
}

func TestFindConversation(t *testing.T) {
	f := newFixture(t)
	h := f.handle("+15550001111")
	chat := f.chat("+15550001111", "", h)
	group := f.chat("chat987", "Team", h)
	f.message(chat, "a", base, by(h))
	f.message(group, "b", base.Add(time.Minute), by(h))

	db := f.open(nil)
	ctx := context.Background()

	c, err := db.FindConversation(ctx, "chat987")
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || c.ID != group {
		t.Fatalf("FindConversation(chat987) = %+v, want group", c)
	}

	// Formatting differences still match the participant handle; the most
	// recently active chat wins.
	c, err = db.FindConversation(ctx, "(555) 000-1111")
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || c.ID != group {
		t.Fatalf("FindConversation(formatted) = %+v, want group %d", c, group)
	}

	c, err = db.FindConversation(ctx, "nobody@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Errorf("expected nil for unknown identifier, got %+v", c)
	}

	got, err := db.GetConversation(ctx, chat)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Identifier != "+15550001111" {
		t.Errorf("GetConversation() = %+v", got)
	}
}

func TestFreshnessTracksWrites(t *testing.T) {
	f := newFixture(t)
	db := f.open(nil)

	before, err := db.Freshness(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(f.path, later, later); err != nil {
		t.Fatal(err)
	}
	after, err := db.Freshness(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !after.After(before) {
		t.Errorf("Freshness did not advance: %v -> %v", before, after)
	}
	if before.After(after) {
		t.Error("an older signal must not count as newer")
	}
}

func TestFreshnessMaxNeverDecreases(t *testing.T) {
	t0 := time.Unix(1000, 0)
	a := Freshness{DBModTime: t0.Add(time.Second), DBSize: 10, WALModTime: t0, WALSize: 5}
	b := Freshness{DBModTime: t0, DBSize: 99, WALModTime: t0.Add(2 * time.Second), WALSize: 1}

	m := a.Max(b)
	if !m.DBModTime.Equal(a.DBModTime) || m.DBSize != 10 {
		t.Errorf("db fields went backwards: %+v", m)
	}
	if !m.WALModTime.Equal(b.WALModTime) || m.WALSize != 1 {
		t.Errorf("wal fields not advanced: %+v", m)
	}

	same := Freshness{DBModTime: t0, DBSize: 10}
	grown := Freshness{DBModTime: t0, DBSize: 20}
	if !grown.After(same) || same.After(grown) {
		t.Error("size growth at equal mtime should count as newer")
	}
	if got := same.Max(grown); got.DBSize != 20 {
		t.Errorf("Max() kept size %d, want 20", got.DBSize)
	}
}

func TestFreshnessMissingStore(t *testing.T) {
	_, err := StatFreshness(filepath.Join(t.TempDir(), "gone.db"))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("StatFreshness() error = %v, want ErrUnavailable", err)
	}
}

func TestAppleTime(t *testing.T) {
	if AppleTime(0) != nil {
		t.Error("AppleTime(0) should be nil")
	}

	want := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	ns := ToAppleTime(want)
	if got := AppleTime(ns); got == nil || !got.Equal(want) {
		t.Errorf("AppleTime(ns) = %v, want %v", got, want)
	}

	secs := want.Unix() - appleEpochOffset
	if got := AppleTime(secs); got == nil || !got.Equal(want) {
		t.Errorf("AppleTime(seconds) = %v, want %v", got, want)
	}
}

func TestMessagesFromAttributedBody(t *testing.T) {
	f := newFixture(t)
	h := f.handle("+15550001111")
	chat := f.chat("+15550001111", "", h)
	f.message(chat, "", base, by(h), attributed(typedstream("from the blob")))

	db := f.open(nil)
	msgs, err := db.ListMessages(context.Background(), chat, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Text != "from the blob" {
		t.Errorf("messages = %+v", msgs)
	}
}
