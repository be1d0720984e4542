/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements circulation.TxStore (catalog, inventory, loan, and fine ledgers)
  and community.Store (events, rooms, personnel) on a single SQLite file.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  items:     Catalog metadata keyed by the ISBN-equivalent item key
  copies:    One row per loanable copy, with the availability flag
  loans:     Borrow records; return_date NULL means the loan is open
  fines:     One row per fined loan; payment_date NULL means outstanding
  rooms, events, personnel: Community records

ONE OPEN LOAN PER COPY:
  Enforced by a partial unique index on loans(copy_id) WHERE return_date IS
  NULL. Even if two processes race past the availability check, the second
  INSERT fails and its transaction rolls back. This is the storage-level
  backstop for the engine's central invariant.

CONDITIONAL WRITES:
  State transitions are single conditional UPDATEs, never read-then-write:
  - Close loan:   UPDATE ... WHERE return_date IS NULL
  - Reserve seat: UPDATE ... WHERE reserved_seats < room capacity

WAL MODE:
  SQLite is opened with WAL and foreign keys on. Readers don't block, one
  writer at a time, and a mutex serializes WithTx within this process.

SEE ALSO:
  - circulation/store.go: Interface definitions and the atomicity contract
  - circulation/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/circulation-engine/circulation"
	"github.com/warp/circulation-engine/community"
)

// Store implements circulation.TxStore and community.Store over SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex // serializes WithTx within this process
}

// New creates a SQLite store at dbPath. Use ":memory:" for an in-memory
// database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite allows a single writer anyway, and with
	// ":memory:" every pooled connection would otherwise get its own
	// empty database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Catalog: one row per title, never deleted
	CREATE TABLE IF NOT EXISTS items (
		item_key     TEXT PRIMARY KEY,
		item_type    TEXT NOT NULL,
		title        TEXT NOT NULL,
		author       TEXT NOT NULL,
		publish_date TEXT NOT NULL,
		publisher    TEXT NOT NULL,
		created_at   TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_title  ON items(title);
	CREATE INDEX IF NOT EXISTS idx_items_author ON items(author);

	-- Inventory: one row per loanable copy
	CREATE TABLE IF NOT EXISTS copies (
		copy_id          TEXT PRIMARY KEY,
		item_key         TEXT NOT NULL REFERENCES items(item_key),
		available        INTEGER NOT NULL DEFAULT 1,
		shelf_location   TEXT NOT NULL DEFAULT '',
		acquisition_date TEXT NOT NULL,
		condition        TEXT NOT NULL DEFAULT '',
		source           TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_copies_item ON copies(item_key);

	-- Loans: historical record, closed by setting return_date, never deleted.
	-- copy_id carries no foreign key on purpose: a loan must still close
	-- after its copy record is removed from inventory.
	CREATE TABLE IF NOT EXISTS loans (
		loan_id     TEXT PRIMARY KEY,
		copy_id     TEXT NOT NULL,
		member_id   TEXT NOT NULL,
		borrow_date TEXT NOT NULL,
		due_date    TEXT NOT NULL,
		return_date TEXT,
		created_at  TEXT NOT NULL
	);

	-- CRITICAL: at most one open loan per copy. Two racing borrows cannot
	-- both insert; the loser's transaction rolls back.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_loans_open_copy
		ON loans(copy_id) WHERE return_date IS NULL;

	CREATE INDEX IF NOT EXISTS idx_loans_member ON loans(member_id, created_at DESC);

	-- Fines: one per loan, settled by setting payment_date, never deleted
	CREATE TABLE IF NOT EXISTS fines (
		fine_id      TEXT PRIMARY KEY,
		loan_id      TEXT NOT NULL UNIQUE REFERENCES loans(loan_id),
		amount       TEXT NOT NULL,
		payment_date TEXT,
		created_at   TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fines_outstanding
		ON fines(loan_id) WHERE payment_date IS NULL;

	-- Community: rooms, events, personnel
	CREATE TABLE IF NOT EXISTS rooms (
		room_number  TEXT PRIMARY KEY,
		max_capacity INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		event_id       TEXT PRIMARY KEY,
		event_name     TEXT NOT NULL,
		event_type     TEXT NOT NULL,
		start_date     TEXT NOT NULL,
		start_time     TEXT NOT NULL DEFAULT '',
		room_number    TEXT NOT NULL REFERENCES rooms(room_number),
		reserved_seats INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS personnel (
		personnel_id TEXT PRIMARY KEY,
		first_name   TEXT NOT NULL DEFAULT '',
		last_name    TEXT NOT NULL DEFAULT '',
		position     TEXT NOT NULL,
		start_date   TEXT NOT NULL,
		salary       TEXT NOT NULL DEFAULT '0',
		room_number  TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_personnel_room ON personnel(room_number);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx so the same ledger code
// runs inside and outside transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// STORE ACCESSORS AND TRANSACTIONS
// =============================================================================

func (s *Store) Catalog() circulation.CatalogStore     { return catalogStore{q: s.db} }
func (s *Store) Inventory() circulation.InventoryStore { return inventoryStore{q: s.db} }
func (s *Store) Loans() circulation.LoanStore          { return loanStore{q: s.db} }
func (s *Store) Fines() circulation.FineStore          { return fineStore{q: s.db} }

// WithTx executes fn within a database transaction. An error from fn rolls
// back every write; a commit failure surfaces as ErrStorageFailure with the
// pre-transaction state intact.
func (s *Store) WithTx(ctx context.Context, fn func(circulation.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", circulation.ErrStorageFailure, err)
	}
	defer tx.Rollback()

	if err := fn(txView{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", circulation.ErrStorageFailure, err)
	}
	return nil
}

type txView struct{ q querier }

func (v txView) Catalog() circulation.CatalogStore     { return catalogStore{q: v.q} }
func (v txView) Inventory() circulation.InventoryStore { return inventoryStore{q: v.q} }
func (v txView) Loans() circulation.LoanStore          { return loanStore{q: v.q} }
func (v txView) Fines() circulation.FineStore          { return fineStore{q: v.q} }

// =============================================================================
// CATALOG STORE
// =============================================================================

type catalogStore struct{ q querier }

func (c catalogStore) Get(ctx context.Context, key circulation.ItemKey) (circulation.CatalogItem, error) {
	var (
		item        circulation.CatalogItem
		publishDate string
	)
	err := c.q.QueryRowContext(ctx, `
		SELECT item_key, item_type, title, author, publish_date, publisher
		FROM items WHERE item_key = ?`, key,
	).Scan(&item.Key, &item.Type, &item.Title, &item.Author, &publishDate, &item.Publisher)
	if errors.Is(err, sql.ErrNoRows) {
		return circulation.CatalogItem{}, circulation.ErrItemNotFound
	}
	if err != nil {
		return circulation.CatalogItem{}, fmt.Errorf("failed to get item: %w", err)
	}
	item.PublishDate, _ = circulation.ParseDate(publishDate)
	return item, nil
}

func (c catalogStore) Insert(ctx context.Context, item circulation.CatalogItem) error {
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO items (item_key, item_type, title, author, publish_date, publisher, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.Key, item.Type, item.Title, item.Author,
		item.PublishDate.String(), item.Publisher, nowUTC(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return circulation.ErrItemExists
		}
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

func (c catalogStore) Search(ctx context.Context, query string) ([]circulation.ItemAvailability, error) {
	pattern := "%" + query + "%"
	rows, err := c.q.QueryContext(ctx, `
		SELECT i.item_key, i.item_type, i.title, i.author, i.publish_date, i.publisher,
		       COUNT(c.copy_id), COALESCE(SUM(c.available), 0)
		FROM items i
		LEFT JOIN copies c ON c.item_key = i.item_key
		WHERE i.title LIKE ? OR i.author LIKE ?
		GROUP BY i.item_key
		ORDER BY i.title`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}
	defer rows.Close()

	var results []circulation.ItemAvailability
	for rows.Next() {
		var (
			ia          circulation.ItemAvailability
			publishDate string
		)
		if err := rows.Scan(
			&ia.Item.Key, &ia.Item.Type, &ia.Item.Title, &ia.Item.Author,
			&publishDate, &ia.Item.Publisher, &ia.TotalCopies, &ia.AvailableCopies,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		ia.Item.PublishDate, _ = circulation.ParseDate(publishDate)
		results = append(results, ia)
	}
	return results, rows.Err()
}

// =============================================================================
// INVENTORY STORE
// =============================================================================

type inventoryStore struct{ q querier }

func (i inventoryStore) Add(ctx context.Context, copy circulation.CopyRecord) error {
	_, err := i.q.ExecContext(ctx, `
		INSERT INTO copies (copy_id, item_key, available, shelf_location, acquisition_date, condition, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		copy.ID, copy.ItemKey, boolToInt(copy.Available), copy.ShelfLocation,
		copy.AcquisitionDate.String(), copy.Condition, copy.Source, nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert copy: %w", err)
	}
	return nil
}

func (i inventoryStore) Get(ctx context.Context, id circulation.CopyID) (circulation.CopyRecord, error) {
	var (
		copy            circulation.CopyRecord
		available       int
		acquisitionDate string
	)
	err := i.q.QueryRowContext(ctx, `
		SELECT copy_id, item_key, available, shelf_location, acquisition_date, condition, source
		FROM copies WHERE copy_id = ?`, id,
	).Scan(&copy.ID, &copy.ItemKey, &available, &copy.ShelfLocation,
		&acquisitionDate, &copy.Condition, &copy.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return circulation.CopyRecord{}, circulation.ErrCopyNotFound
	}
	if err != nil {
		return circulation.CopyRecord{}, fmt.Errorf("failed to get copy: %w", err)
	}
	copy.Available = available != 0
	copy.AcquisitionDate, _ = circulation.ParseDate(acquisitionDate)
	return copy, nil
}

func (i inventoryStore) IsAvailable(ctx context.Context, id circulation.CopyID) (bool, error) {
	var available int
	err := i.q.QueryRowContext(ctx,
		`SELECT available FROM copies WHERE copy_id = ?`, id,
	).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return false, circulation.ErrCopyNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to check availability: %w", err)
	}
	return available != 0, nil
}

func (i inventoryStore) SetAvailability(ctx context.Context, id circulation.CopyID, available bool) error {
	res, err := i.q.ExecContext(ctx,
		`UPDATE copies SET available = ? WHERE copy_id = ?`, boolToInt(available), id)
	if err != nil {
		return fmt.Errorf("failed to set availability: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return circulation.ErrCopyNotFound
	}
	return nil
}

func (i inventoryStore) ListByItem(ctx context.Context, key circulation.ItemKey) ([]circulation.CopyRecord, error) {
	rows, err := i.q.QueryContext(ctx, `
		SELECT copy_id, item_key, available, shelf_location, acquisition_date, condition, source
		FROM copies WHERE item_key = ? ORDER BY created_at`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list copies: %w", err)
	}
	defer rows.Close()

	var copies []circulation.CopyRecord
	for rows.Next() {
		var (
			copy            circulation.CopyRecord
			available       int
			acquisitionDate string
		)
		if err := rows.Scan(&copy.ID, &copy.ItemKey, &available, &copy.ShelfLocation,
			&acquisitionDate, &copy.Condition, &copy.Source); err != nil {
			return nil, fmt.Errorf("failed to scan copy: %w", err)
		}
		copy.Available = available != 0
		copy.AcquisitionDate, _ = circulation.ParseDate(acquisitionDate)
		copies = append(copies, copy)
	}
	return copies, rows.Err()
}

// RemoveCopy deletes a copy record from inventory. Loans referencing the
// copy survive; returning one reports the missing copy instead of failing.
func (s *Store) RemoveCopy(ctx context.Context, id circulation.CopyID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM copies WHERE copy_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove copy: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return circulation.ErrCopyNotFound
	}
	return nil
}

// =============================================================================
// LOAN STORE
// =============================================================================

type loanStore struct{ q querier }

func (l loanStore) Open(ctx context.Context, loan circulation.Loan) error {
	_, err := l.q.ExecContext(ctx, `
		INSERT INTO loans (loan_id, copy_id, member_id, borrow_date, due_date, return_date, created_at)
		VALUES (?, ?, ?, ?, ?, NULL, ?)`,
		loan.ID, loan.CopyID, loan.MemberID,
		loan.BorrowDate.String(), loan.DueDate.String(), nowUTC(),
	)
	if err != nil {
		// The open-loan unique index tripped: another open loan holds the copy.
		if isUniqueConstraintError(err) {
			return circulation.ErrCopyUnavailable
		}
		return fmt.Errorf("failed to open loan: %w", err)
	}
	return nil
}

func (l loanStore) Close(ctx context.Context, id circulation.LoanID, returnDate circulation.Date) error {
	// One conditional write: a loan already closed is not matched.
	res, err := l.q.ExecContext(ctx,
		`UPDATE loans SET return_date = ? WHERE loan_id = ? AND return_date IS NULL`,
		returnDate.String(), id)
	if err != nil {
		return fmt.Errorf("failed to close loan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		loan, gerr := l.Get(ctx, id)
		if gerr != nil {
			return circulation.ErrLoanNotFound
		}
		return &circulation.AlreadyClosedError{LoanID: id, ReturnedOn: loan.ReturnDate}
	}
	return nil
}

func (l loanStore) Get(ctx context.Context, id circulation.LoanID) (circulation.Loan, error) {
	row := l.q.QueryRowContext(ctx, `
		SELECT loan_id, copy_id, member_id, borrow_date, due_date, return_date
		FROM loans WHERE loan_id = ?`, id)
	loan, err := scanLoan(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return circulation.Loan{}, circulation.ErrLoanNotFound
	}
	return loan, err
}

func (l loanStore) FindOpenByCopy(ctx context.Context, id circulation.CopyID) (circulation.Loan, bool, error) {
	row := l.q.QueryRowContext(ctx, `
		SELECT loan_id, copy_id, member_id, borrow_date, due_date, return_date
		FROM loans WHERE copy_id = ? AND return_date IS NULL`, id)
	loan, err := scanLoan(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return circulation.Loan{}, false, nil
	}
	if err != nil {
		return circulation.Loan{}, false, err
	}
	return loan, true, nil
}

func (l loanStore) ListByMember(ctx context.Context, id circulation.MemberID) ([]circulation.Loan, error) {
	rows, err := l.q.QueryContext(ctx, `
		SELECT loan_id, copy_id, member_id, borrow_date, due_date, return_date
		FROM loans WHERE member_id = ? ORDER BY created_at DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []circulation.Loan
	for rows.Next() {
		loan, err := scanLoan(rows.Scan)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

func scanLoan(scan func(...any) error) (circulation.Loan, error) {
	var (
		loan       circulation.Loan
		borrowDate string
		dueDate    string
		returnDate sql.NullString
	)
	if err := scan(&loan.ID, &loan.CopyID, &loan.MemberID, &borrowDate, &dueDate, &returnDate); err != nil {
		return circulation.Loan{}, err
	}
	loan.BorrowDate, _ = circulation.ParseDate(borrowDate)
	loan.DueDate, _ = circulation.ParseDate(dueDate)
	if returnDate.Valid {
		loan.ReturnDate, _ = circulation.ParseDate(returnDate.String)
	}
	return loan, nil
}

// =============================================================================
// FINE STORE
// =============================================================================

type fineStore struct{ q querier }

func (f fineStore) Record(ctx context.Context, fine circulation.Fine) error {
	// One fine per loan: a second record updates the amount, keeping the
	// original fine ID and payment state.
	_, err := f.q.ExecContext(ctx, `
		INSERT INTO fines (fine_id, loan_id, amount, payment_date, created_at)
		VALUES (?, ?, ?, NULL, ?)
		ON CONFLICT(loan_id) DO UPDATE SET amount = excluded.amount`,
		fine.ID, fine.LoanID, fine.Amount.String(), nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record fine: %w", err)
	}
	return nil
}

func (f fineStore) Settle(ctx context.Context, loanID circulation.LoanID, paymentDate circulation.Date) error {
	res, err := f.q.ExecContext(ctx,
		`UPDATE fines SET payment_date = ? WHERE loan_id = ?`,
		paymentDate.String(), loanID)
	if err != nil {
		return fmt.Errorf("failed to settle fine: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return circulation.ErrFineNotFound
	}
	return nil
}

func (f fineStore) GetByLoan(ctx context.Context, loanID circulation.LoanID) (circulation.Fine, error) {
	var (
		fine        circulation.Fine
		amount      string
		paymentDate sql.NullString
	)
	err := f.q.QueryRowContext(ctx, `
		SELECT fine_id, loan_id, amount, payment_date
		FROM fines WHERE loan_id = ?`, loanID,
	).Scan(&fine.ID, &fine.LoanID, &amount, &paymentDate)
	if errors.Is(err, sql.ErrNoRows) {
		return circulation.Fine{}, circulation.ErrFineNotFound
	}
	if err != nil {
		return circulation.Fine{}, fmt.Errorf("failed to get fine: %w", err)
	}
	fine.Amount, _ = decimal.NewFromString(amount)
	if paymentDate.Valid {
		fine.PaymentDate, _ = circulation.ParseDate(paymentDate.String)
	}
	return fine, nil
}

func (f fineStore) ListOutstanding(ctx context.Context) ([]circulation.Fine, error) {
	rows, err := f.q.QueryContext(ctx, `
		SELECT fine_id, loan_id, amount, payment_date
		FROM fines WHERE payment_date IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list fines: %w", err)
	}
	defer rows.Close()

	var fines []circulation.Fine
	for rows.Next() {
		var (
			fine        circulation.Fine
			amount      string
			paymentDate sql.NullString
		)
		if err := rows.Scan(&fine.ID, &fine.LoanID, &amount, &paymentDate); err != nil {
			return nil, fmt.Errorf("failed to scan fine: %w", err)
		}
		fine.Amount, _ = decimal.NewFromString(amount)
		fines = append(fines, fine)
	}
	return fines, rows.Err()
}

// =============================================================================
// COMMUNITY STORE (community.Store interface)
// =============================================================================

func (s *Store) AddRoom(ctx context.Context, room community.Room) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rooms (room_number, max_capacity) VALUES (?, ?)
		ON CONFLICT(room_number) DO UPDATE SET max_capacity = excluded.max_capacity`,
		room.Number, room.MaxCapacity)
	if err != nil {
		return fmt.Errorf("failed to add room: %w", err)
	}
	return nil
}

func (s *Store) AddEvent(ctx context.Context, event community.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (event_id, event_name, event_type, start_date, start_time, room_number, reserved_seats)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Name, event.Type, event.StartDate.String(),
		event.StartTime, event.RoomNumber, event.ReservedSeats)
	if err != nil {
		return fmt.Errorf("failed to add event: %w", err)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, id community.EventID) (community.Event, error) {
	var (
		event     community.Event
		startDate string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT event_id, event_name, event_type, start_date, start_time, room_number, reserved_seats
		FROM events WHERE event_id = ?`, id,
	).Scan(&event.ID, &event.Name, &event.Type, &startDate,
		&event.StartTime, &event.RoomNumber, &event.ReservedSeats)
	if errors.Is(err, sql.ErrNoRows) {
		return community.Event{}, community.ErrEventNotFound
	}
	if err != nil {
		return community.Event{}, fmt.Errorf("failed to get event: %w", err)
	}
	event.StartDate, _ = circulation.ParseDate(startDate)
	return event, nil
}

func (s *Store) SearchEvents(ctx context.Context, query string) ([]community.Event, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, event_name, event_type, start_date, start_time, room_number, reserved_seats
		FROM events WHERE event_name LIKE ? OR event_type LIKE ?
		ORDER BY start_date`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}
	defer rows.Close()

	var events []community.Event
	for rows.Next() {
		var (
			event     community.Event
			startDate string
		)
		if err := rows.Scan(&event.ID, &event.Name, &event.Type, &startDate,
			&event.StartTime, &event.RoomNumber, &event.ReservedSeats); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		event.StartDate, _ = circulation.ParseDate(startDate)
		events = append(events, event)
	}
	return events, rows.Err()
}

func (s *Store) ReserveSeat(ctx context.Context, id community.EventID) error {
	// One conditional write: the capacity check and the increment cannot be
	// separated by a concurrent registration.
	res, err := s.db.ExecContext(ctx, `
		UPDATE events SET reserved_seats = reserved_seats + 1
		WHERE event_id = ?
		  AND reserved_seats < (SELECT max_capacity FROM rooms
		                        WHERE rooms.room_number = events.room_number)`,
		id)
	if err != nil {
		return fmt.Errorf("failed to reserve seat: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// No row matched: figure out which failure this was.
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	var capacity int
	err = s.db.QueryRowContext(ctx,
		`SELECT max_capacity FROM rooms WHERE room_number = ?`, event.RoomNumber,
	).Scan(&capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return community.ErrRoomNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check room capacity: %w", err)
	}
	return community.ErrCapacityExceeded
}

func (s *Store) AddStaff(ctx context.Context, member community.StaffMember) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO personnel (personnel_id, first_name, last_name, position, start_date, salary, room_number)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		member.ID, member.FirstName, member.LastName, member.Position,
		member.StartDate.String(), member.Salary.String(), member.RoomNumber)
	if err != nil {
		return fmt.Errorf("failed to add staff: %w", err)
	}
	return nil
}

func (s *Store) FindLibrarian(ctx context.Context, roomNumber string) (community.StaffMember, bool, error) {
	var (
		member    community.StaffMember
		startDate string
		salary    string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT personnel_id, first_name, last_name, position, start_date, salary, room_number
		FROM personnel
		WHERE position LIKE '%Librarian%' AND room_number = ?
		LIMIT 1`, roomNumber,
	).Scan(&member.ID, &member.FirstName, &member.LastName, &member.Position,
		&startDate, &salary, &member.RoomNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return community.StaffMember{}, false, nil
	}
	if err != nil {
		return community.StaffMember{}, false, fmt.Errorf("failed to find librarian: %w", err)
	}
	member.StartDate, _ = circulation.ParseDate(startDate)
	member.Salary, _ = decimal.NewFromString(salary)
	return member, true, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
