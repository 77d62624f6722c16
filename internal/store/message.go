package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
)

const messageColumns = `
	m.ROWID, m.text, m.attributedBody, m.date, m.is_from_me, m.is_read,
	m.service, h.id, c.ROWID, c.chat_identifier, c.display_name`

// ListMessages returns the latest limit messages of a chat, oldest first.
func (db *DB) ListMessages(ctx context.Context, chatID int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, `
		SELECT`+messageColumns+`
		FROM message m
		JOIN chat_message_join cmj ON cmj.message_id = m.ROWID
		JOIN chat c ON c.ROWID = cmj.chat_id
		LEFT JOIN handle h ON h.ROWID = m.handle_id
		WHERE c.ROWID = ?
		ORDER BY m.date DESC, m.ROWID DESC
		LIMIT ?`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages for chat %d: %w", chatID, err)
	}
	msgs, err := db.scanMessages(rows)
	if err != nil {
		return nil, fmt.Errorf("list messages for chat %d: %w", chatID, err)
	}
	slices.Reverse(msgs)
	return msgs, nil
}

// ListMessagesSince returns every message with ROWID greater than seq in
// ascending ROWID order.
func (db *DB) ListMessagesSince(ctx context.Context, seq int64) ([]Message, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT`+messageColumns+`
		FROM message m
		LEFT JOIN chat_message_join cmj ON cmj.message_id = m.ROWID
		LEFT JOIN chat c ON c.ROWID = cmj.chat_id
		LEFT JOIN handle h ON h.ROWID = m.handle_id
		WHERE m.ROWID > ?
		GROUP BY m.ROWID
		ORDER BY m.ROWID ASC`, seq)
	if err != nil {
		return nil, fmt.Errorf("list messages since %d: %w", seq, err)
	}
	msgs, err := db.scanMessages(rows)
	if err != nil {
		return nil, fmt.Errorf("list messages since %d: %w", seq, err)
	}
	return msgs, nil
}

// HighestSequenceID returns the largest message ROWID, or 0 for an empty store.
func (db *DB) HighestSequenceID(ctx context.Context) (int64, error) {
	var id sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(ROWID) FROM message`).Scan(&id); err != nil {
		return 0, fmt.Errorf("highest message id: %w", err)
	}
	return id.Int64, nil
}

// UnreadCount returns the number of unread incoming messages.
func (db *DB) UnreadCount(ctx context.Context) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM message WHERE is_read = 0 AND is_from_me = 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return n, nil
}

func (db *DB) scanMessages(rows *sql.Rows) ([]Message, error) {
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var (
			m                                   Message
			text, service, handle, ident, title sql.NullString
			attributed                          []byte
			date, fromMe, isRead, chatID        sql.NullInt64
		)
		if err := rows.Scan(&m.ID, &text, &attributed, &date, &fromMe, &isRead,
			&service, &handle, &chatID, &ident, &title); err != nil {
			return nil, err
		}
		m.Text = messageText(text.String, attributed)
		if date.Valid {
			m.Date = AppleTime(date.Int64)
		}
		m.IsFromMe = fromMe.Int64 == 1
		m.IsRead = isRead.Int64 == 1
		m.Service = service.String
		m.Sender = db.senderName(m.IsFromMe, handle.String)
		m.ChatID = chatID.Int64
		m.ChatIdentifier = ident.String
		m.ChatName = db.chatName(title.String, ident.String)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
