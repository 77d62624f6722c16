package state

import "time"

// AppendHistory persists one submitted compose text.
func (db *DB) AppendHistory(body string) error {
	_, err := db.Exec(`INSERT INTO input_history (body, created_at) VALUES (?, ?)`,
		body, time.Now().UnixMilli())
	return err
}

// LoadHistory returns up to limit of the most recent entries, oldest first.
func (db *DB) LoadHistory(limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT body FROM (
			SELECT id, body FROM input_history ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		out = append(out, body)
	}
	return out, rows.Err()
}

// TrimHistory keeps only the newest keep entries.
func (db *DB) TrimHistory(keep int) error {
	_, err := db.Exec(`
		DELETE FROM input_history WHERE id NOT IN (
			SELECT id FROM input_history ORDER BY id DESC LIMIT ?
		)`, keep)
	return err
}
