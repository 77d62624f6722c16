package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// conversationQuery selects chat summaries. %s is replaced by an optional
// WHERE clause over the chat alias c.
const conversationQuery = `
	WITH activity AS (
		SELECT cmj.chat_id AS chat_id,
		       MAX(m.date) AS last_date,
		       SUM(CASE WHEN m.is_read = 0 AND m.is_from_me = 0 THEN 1 ELSE 0 END) AS unread
		FROM chat_message_join cmj
		JOIN message m ON m.ROWID = cmj.message_id
		GROUP BY cmj.chat_id
	)
	SELECT c.ROWID, c.chat_identifier, c.display_name, c.service_name,
	       a.last_date, COALESCE(a.unread, 0),
	       (SELECT m.text FROM message m
	          JOIN chat_message_join j ON j.message_id = m.ROWID
	         WHERE j.chat_id = c.ROWID
	         ORDER BY m.date DESC, m.ROWID DESC LIMIT 1),
	       (SELECT m.attributedBody FROM message m
	          JOIN chat_message_join j ON j.message_id = m.ROWID
	         WHERE j.chat_id = c.ROWID
	         ORDER BY m.date DESC, m.ROWID DESC LIMIT 1),
	       (SELECT GROUP_CONCAT(h.id) FROM chat_handle_join chj
	          JOIN handle h ON h.ROWID = chj.handle_id
	         WHERE chj.chat_id = c.ROWID)
	FROM chat c
	LEFT JOIN activity a ON a.chat_id = c.ROWID
	%s
	ORDER BY a.last_date IS NULL, a.last_date DESC, c.ROWID DESC
	LIMIT ?`

// ListConversations returns up to limit chats ordered by most recent activity.
func (db *DB) ListConversations(ctx context.Context, limit int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	convs, err := db.queryConversations(ctx, "", limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// GetConversation returns a single chat by ROWID, or nil if it does not exist.
func (db *DB) GetConversation(ctx context.Context, chatID int64) (*Conversation, error) {
	convs, err := db.queryConversations(ctx, "WHERE c.ROWID = ?", 1, chatID)
	if err != nil {
		return nil, fmt.Errorf("get conversation %d: %w", chatID, err)
	}
	if len(convs) == 0 {
		return nil, nil
	}
	return &convs[0], nil
}

// FindConversation looks a chat up by its identifier, falling back to any
// chat with a participant whose handle matches. Returns nil if none match.
func (db *DB) FindConversation(ctx context.Context, identifier string) (*Conversation, error) {
	convs, err := db.queryConversations(ctx, "WHERE c.chat_identifier = ?", 1, identifier)
	if err != nil {
		return nil, fmt.Errorf("find conversation %q: %w", identifier, err)
	}
	if len(convs) > 0 {
		return &convs[0], nil
	}

	normalized := normalizeIdentifier(identifier)
	if normalized == "" {
		return nil, nil
	}
	convs, err = db.queryConversations(ctx, `
		WHERE c.ROWID IN (
			SELECT chj.chat_id FROM chat_handle_join chj
			JOIN handle h ON h.ROWID = chj.handle_id
			WHERE h.id LIKE ?
		)`, 1, "%"+normalized+"%")
	if err != nil {
		return nil, fmt.Errorf("find conversation %q: %w", identifier, err)
	}
	if len(convs) == 0 {
		return nil, nil
	}
	return &convs[0], nil
}

func (db *DB) queryConversations(ctx context.Context, where string, limit int, args ...any) ([]Conversation, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(conversationQuery, where), append(args, limit)...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var convs []Conversation
	for rows.Next() {
		var (
			c                                  Conversation
			ident, name, service, text, people sql.NullString
			lastDate                           sql.NullInt64
			attributed                         []byte
		)
		if err := rows.Scan(&c.ID, &ident, &name, &service, &lastDate, &c.UnreadCount, &text, &attributed, &people); err != nil {
			return nil, err
		}
		c.Identifier = ident.String
		c.DisplayName = db.chatName(name.String, ident.String)
		c.Service = service.String
		if c.Service == "" {
			c.Service = "iMessage"
		}
		if lastDate.Valid {
			c.LastMessageAt = AppleTime(lastDate.Int64)
		}
		if lastDate.Valid || text.Valid || len(attributed) > 0 {
			c.Preview = messageText(text.String, attributed)
		}
		if people.String != "" {
			c.Participants = strings.Split(people.String, ",")
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// normalizeIdentifier keeps the characters that matter in phone numbers
// and email addresses.
func normalizeIdentifier(identifier string) string {
	var b strings.Builder
	for _, r := range identifier {
		switch {
		case r >= '0' && r <= '9', r == '+', r == '@', r == '.':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		}
	}
	return b.String()
}
