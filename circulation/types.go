/*
Package circulation provides the library lending-and-inventory consistency engine.

PURPOSE:
  This package contains the domain types and coordination logic that keep the
  catalog, the copy inventory, the loan ledger, and the fine ledger consistent
  with each other. The surrounding stores are deliberately passive; all
  cross-entity rules live in the Engine.

KEY CONCEPTS IN THIS FILE (types.go):
  - CatalogItem: Bibliographic metadata keyed by an immutable ItemKey
  - CopyRecord: One loanable physical/digital copy and its availability flag
  - Loan: A borrow record, Open until a return date is set
  - Fine: A monetary penalty tied 1:1 to a late loan

DESIGN PRINCIPLES:
  1. Precision: Money uses decimal.Decimal, never float64
  2. Type Safety: Strong ID types prevent mixing copy/loan/member identifiers
  3. History: Loans and fines are never deleted; closure and settlement are
     recorded as dates, not row removal

SEE ALSO:
  - store.go: Persistence interfaces for the four ledgers
  - engine.go: The coordinating state machine
  - errors.go: Typed errors callers branch on
*/
package circulation

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// ItemKey is the unique catalog identifier for a title (ISBN-equivalent).
type ItemKey string

// CopyID identifies one loanable copy of a catalog item.
type CopyID string

// LoanID identifies a borrow record.
type LoanID string

// FineID identifies a fine record.
type FineID string

// MemberID identifies a library member.
type MemberID string

func NewCopyID() CopyID { return CopyID(uuid.NewString()) }
func NewLoanID() LoanID { return LoanID(uuid.NewString()) }
func NewFineID() FineID { return FineID(uuid.NewString()) }

// =============================================================================
// CATALOG ITEM - Bibliographic record, one per title
// =============================================================================

// CatalogItem is created on the first donation or acquisition of a new key
// and is never deleted.
type CatalogItem struct {
	Key         ItemKey
	Type        string // "Print Book", "Online Book", ...
	Title       string
	Author      string
	PublishDate Date
	Publisher   string
}

// MissingFields returns the names of required fields that are empty.
// A donation of a new key must supply all of them.
func (i CatalogItem) MissingFields() []string {
	var missing []string
	if i.Type == "" {
		missing = append(missing, "type")
	}
	if i.Title == "" {
		missing = append(missing, "title")
	}
	if i.Author == "" {
		missing = append(missing, "author")
	}
	if i.PublishDate.IsZero() {
		missing = append(missing, "publish_date")
	}
	if i.Publisher == "" {
		missing = append(missing, "publisher")
	}
	return missing
}

// ItemAvailability pairs a catalog item with its inventory counts for search
// results. AvailableCopies is derived from the copies ledger, never cached.
type ItemAvailability struct {
	Item            CatalogItem
	TotalCopies     int
	AvailableCopies int
}

// =============================================================================
// COPY RECORD - One loanable instance of a catalog item
// =============================================================================

// SourceDonated is the acquisition source recorded for donated copies.
const SourceDonated = "Donated"

// CopyRecord tracks a single copy. Available is the inventory ledger's
// assertion that no open loan references this copy; only the Engine may
// flip it.
type CopyRecord struct {
	ID              CopyID
	ItemKey         ItemKey
	Available       bool
	ShelfLocation   string
	AcquisitionDate Date
	Condition       string
	Source          string
}

// =============================================================================
// LOAN - Open until ReturnDate is set, then Closed forever
// =============================================================================

// LoanPeriodDays is the standard lending period: due date is the borrow date
// plus this many days.
const LoanPeriodDays = 14

// Loan is a historical record: it transitions Open -> Closed exactly once and
// is never deleted. A copy has at most one open loan at any time; that is the
// central invariant the Engine enforces.
type Loan struct {
	ID         LoanID
	CopyID     CopyID
	MemberID   MemberID
	BorrowDate Date
	DueDate    Date
	ReturnDate Date // zero while the loan is open
}

// Open reports whether the loan has not been returned yet.
func (l Loan) Open() bool { return l.ReturnDate.IsZero() }

// =============================================================================
// FINE - Monetary penalty, 1:1 with a late loan
// =============================================================================

// Fine exists only for loans closed after their due date. PaymentDate zero
// means outstanding. Fines are audit history: settlement sets PaymentDate,
// nothing ever deletes the row.
type Fine struct {
	ID          FineID
	LoanID      LoanID
	Amount      decimal.Decimal
	PaymentDate Date // zero while outstanding
}

// Outstanding reports whether the fine has not been paid.
func (f Fine) Outstanding() bool { return f.PaymentDate.IsZero() }
