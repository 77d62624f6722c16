package state

import (
	"database/sql"
	"fmt"
	"time"
)

// Dispatch statuses.
const (
	StatusQueued  = "queued"
	StatusSending = "sending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// DispatchEntry is one recorded send attempt.
type DispatchEntry struct {
	ID           int64
	ClientID     string
	Recipient    string
	Body         string
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// QueueDispatch records a new send attempt in the queued state.
func (db *DB) QueueDispatch(clientID, recipient, body string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO dispatch_log (client_id, recipient, body, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		clientID, recipient, body, StatusQueued, now, now)
	return err
}

// MarkDispatchSending moves an attempt to 'sending'.
func (db *DB) MarkDispatchSending(clientID string) error {
	return db.setDispatchStatus(clientID, StatusSending, "")
}

// MarkDispatchSent moves an attempt to 'sent'.
func (db *DB) MarkDispatchSent(clientID string) error {
	return db.setDispatchStatus(clientID, StatusSent, "")
}

// MarkDispatchFailed moves an attempt to 'failed' and keeps the error text.
func (db *DB) MarkDispatchFailed(clientID, errMsg string) error {
	return db.setDispatchStatus(clientID, StatusFailed, errMsg)
}

func (db *DB) setDispatchStatus(clientID, status, errMsg string) error {
	res, err := db.Exec(`
		UPDATE dispatch_log SET status = ?, error_message = ?, updated_at = ?
		WHERE client_id = ?`,
		status, errMsg, time.Now().UnixMilli(), clientID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("dispatch %s: %w", clientID, sql.ErrNoRows)
	}
	return nil
}

// RecentDispatches returns the latest attempts, newest first.
func (db *DB) RecentDispatches(limit int) ([]DispatchEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT id, client_id, recipient, body, status, error_message, created_at, updated_at
		FROM dispatch_log ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []DispatchEntry
	for rows.Next() {
		var e DispatchEntry
		var created, updated int64
		if err := rows.Scan(&e.ID, &e.ClientID, &e.Recipient, &e.Body, &e.Status, &e.ErrorMessage, &created, &updated); err != nil {
			return nil, err
		}
		e.CreatedAt = time.UnixMilli(created)
		e.UpdatedAt = time.UnixMilli(updated)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
