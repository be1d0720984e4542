/*
store.go - Persistence interfaces for the four ledgers

PURPOSE:
  Defines the boundary between the circulation engine and the database.
  Each ledger is a passive keyed store with no cross-entity logic; every
  rule that spans two ledgers lives in the Engine, which runs it inside
  a single WithTx transaction.

KEY INTERFACES:
  CatalogStore:   Item metadata, lookup and insert-if-absent
  InventoryStore: Copy records and the availability flag
  LoanStore:      Loan lifecycle (open -> closed), historical, never deleted
  FineStore:      Fine records, idempotent per loan, never deleted
  Store:          Aggregates the four ledgers
  TxStore:        Store plus atomic transactions

ATOMICITY CONTRACT:
  WithTx(ctx, fn) runs fn against a transactional view of the store.
  fn returning nil commits; fn returning an error rolls back every write.
  A borrow that opens a loan but fails to flip availability must leave
  no trace - both writes land or neither does.

ONE OPEN LOAN PER COPY:
  Implementations must reject LoanStore.Open when the copy already has an
  open loan (return ErrCopyUnavailable). The SQLite store enforces this with
  a partial unique index so the guarantee holds even across processes.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - circulation/store: In-memory store for tests and dev

SEE ALSO:
  - engine.go: The only writer that composes these stores
*/
package circulation

import "context"

// =============================================================================
// CATALOG STORE - Item metadata keyed by ItemKey
// =============================================================================

type CatalogStore interface {
	// Get returns the item for key, or ErrItemNotFound.
	Get(ctx context.Context, key ItemKey) (CatalogItem, error)

	// Insert adds a new item. Returns ErrItemExists if the key is taken.
	Insert(ctx context.Context, item CatalogItem) error

	// Search matches query against title and author (case-insensitive
	// substring) and cross-references inventory for availability counts.
	Search(ctx context.Context, query string) ([]ItemAvailability, error)
}

// =============================================================================
// INVENTORY STORE - Copy records and availability
// =============================================================================

type InventoryStore interface {
	// Add inserts a new copy record.
	Add(ctx context.Context, copy CopyRecord) error

	// Get returns the copy, or ErrCopyNotFound.
	Get(ctx context.Context, id CopyID) (CopyRecord, error)

	// IsAvailable reports the availability flag, or ErrCopyNotFound.
	IsAvailable(ctx context.Context, id CopyID) (bool, error)

	// SetAvailability flips the flag, or ErrCopyNotFound.
	// Only the Engine calls this, always inside WithTx.
	SetAvailability(ctx context.Context, id CopyID, available bool) error

	// ListByItem returns all copies of a catalog item.
	ListByItem(ctx context.Context, key ItemKey) ([]CopyRecord, error)
}

// =============================================================================
// LOAN STORE - Open/closed loan records, append-and-close only
// =============================================================================

type LoanStore interface {
	// Open inserts a new loan record. It does not check availability (that
	// is the Engine's job) but must fail with ErrCopyUnavailable when an
	// open loan for the same copy already exists.
	Open(ctx context.Context, loan Loan) error

	// Close sets the return date. Returns ErrLoanNotFound for an unknown
	// loan and ErrLoanAlreadyClosed when the return date is already set.
	// Implementations must make the still-open check and the update one
	// conditional write, not a read followed by a write.
	Close(ctx context.Context, id LoanID, returnDate Date) error

	// Get returns the loan, or ErrLoanNotFound.
	Get(ctx context.Context, id LoanID) (Loan, error)

	// FindOpenByCopy returns the open loan for a copy, if any.
	FindOpenByCopy(ctx context.Context, id CopyID) (Loan, bool, error)

	// ListByMember returns all loans for a member, newest first.
	ListByMember(ctx context.Context, id MemberID) ([]Loan, error)
}

// =============================================================================
// FINE STORE - One fine per loan, settled but never deleted
// =============================================================================

type FineStore interface {
	// Record upserts the fine for fine.LoanID: recording twice for the same
	// loan updates the amount rather than duplicating.
	Record(ctx context.Context, fine Fine) error

	// Settle sets the payment date, or ErrFineNotFound.
	Settle(ctx context.Context, loanID LoanID, paymentDate Date) error

	// GetByLoan returns the fine for a loan, or ErrFineNotFound.
	GetByLoan(ctx context.Context, loanID LoanID) (Fine, error)

	// ListOutstanding returns all unpaid fines.
	ListOutstanding(ctx context.Context) ([]Fine, error)
}

// =============================================================================
// AGGREGATE STORE
// =============================================================================

// Store aggregates the four ledgers. Inside WithTx the Engine receives a
// Store whose sub-stores all write through the same transaction.
type Store interface {
	Catalog() CatalogStore
	Inventory() InventoryStore
	Loans() LoanStore
	Fines() FineStore
}

// TxStore adds atomic multi-ledger transactions.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns an error, every write is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
