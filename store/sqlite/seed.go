package sqlite

import (
	"context"
	"fmt"
)

// SeedDemo loads a small demo dataset: a few catalog items with copies, the
// front desk room and staff, and two events. Inserts are idempotent so the
// seed can be reloaded.
func (s *Store) SeedDemo(ctx context.Context) error {
	stmts := []struct {
		query string
		args  []any
	}{
		{`INSERT OR IGNORE INTO items (item_key, item_type, title, author, publish_date, publisher, created_at)
		  VALUES (?, ?, ?, ?, ?, ?, ?)`,
			[]any{"978-0134190440", "Print Book", "The Go Programming Language", "Alan A. A. Donovan", "2015-10-26", "Addison-Wesley", nowUTC()}},
		{`INSERT OR IGNORE INTO items (item_key, item_type, title, author, publish_date, publisher, created_at)
		  VALUES (?, ?, ?, ?, ?, ?, ?)`,
			[]any{"978-0201616224", "Print Book", "The Pragmatic Programmer", "Andrew Hunt", "1999-10-20", "Addison-Wesley", nowUTC()}},
		{`INSERT OR IGNORE INTO copies (copy_id, item_key, available, shelf_location, acquisition_date, condition, source, created_at)
		  VALUES (?, ?, 1, ?, ?, ?, ?, ?)`,
			[]any{"copy-demo-001", "978-0134190440", "A1", "2023-01-01", "Good", "Purchased", nowUTC()}},
		{`INSERT OR IGNORE INTO copies (copy_id, item_key, available, shelf_location, acquisition_date, condition, source, created_at)
		  VALUES (?, ?, 1, ?, ?, ?, ?, ?)`,
			[]any{"copy-demo-002", "978-0134190440", "A1", "2023-03-15", "Fair", "Donated", nowUTC()}},
		{`INSERT OR IGNORE INTO copies (copy_id, item_key, available, shelf_location, acquisition_date, condition, source, created_at)
		  VALUES (?, ?, 1, ?, ?, ?, ?, ?)`,
			[]any{"copy-demo-003", "978-0201616224", "B2", "2022-06-10", "Good", "Purchased", nowUTC()}},
		{`INSERT OR IGNORE INTO rooms (room_number, max_capacity) VALUES (?, ?)`,
			[]any{"R001", 4}},
		{`INSERT OR IGNORE INTO rooms (room_number, max_capacity) VALUES (?, ?)`,
			[]any{"R102", 30}},
		{`INSERT OR IGNORE INTO events (event_id, event_name, event_type, start_date, start_time, room_number, reserved_seats)
		  VALUES (?, ?, ?, ?, ?, ?, 0)`,
			[]any{"evt-demo-001", "Summer Reading Kickoff", "Reading", "2024-06-01", "10:00", "R102"}},
		{`INSERT OR IGNORE INTO events (event_id, event_name, event_type, start_date, start_time, room_number, reserved_seats)
		  VALUES (?, ?, ?, ?, ?, ?, 0)`,
			[]any{"evt-demo-002", "Intro to Genealogy", "Workshop", "2024-06-15", "14:00", "R102"}},
		{`INSERT OR IGNORE INTO personnel (personnel_id, first_name, last_name, position, start_date, salary, room_number)
		  VALUES (?, ?, ?, ?, ?, ?, ?)`,
			[]any{"staff-demo-001", "May", "Chen", "Head Librarian", "2019-04-01", "52000", "R001"}},
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}
	return nil
}
