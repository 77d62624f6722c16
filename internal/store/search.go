package store

import (
	"context"
	"fmt"
)

// SearchMessages returns messages whose text contains query, newest first.
// The attributed body is matched as raw text since it is not indexed.
func (db *DB) SearchMessages(ctx context.Context, query string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + query + "%"
	rows, err := db.QueryContext(ctx, `
		SELECT`+messageColumns+`
		FROM message m
		LEFT JOIN chat_message_join cmj ON cmj.message_id = m.ROWID
		LEFT JOIN chat c ON c.ROWID = cmj.chat_id
		LEFT JOIN handle h ON h.ROWID = m.handle_id
		WHERE m.text LIKE ? OR CAST(m.attributedBody AS TEXT) LIKE ?
		GROUP BY m.ROWID
		ORDER BY m.date DESC, m.ROWID DESC
		LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	msgs, err := db.scanMessages(rows)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	return msgs, nil
}
