/*
engine.go - The circulation state machine

PURPOSE:
  The Engine is the only component with cross-ledger logic. Each operation
  (borrow, return, donate, settle) runs as one atomic transaction so the
  catalog can never contradict itself: a copy is unavailable iff exactly one
  open loan references it, a closed loan always has a return date, and a fine
  exists only for a loan closed past its due date.

CRITICAL INVARIANTS:
  1. ONE OPEN LOAN PER COPY: Enforced twice - by the availability check
     inside the transaction and by the loan store's open-loan uniqueness
     constraint. Two concurrent borrows of the same copy: exactly one wins.
  2. ALL-OR-NOTHING: A failed operation leaves every ledger unchanged.
  3. HISTORY: Loans and fines are never deleted. Returns close, settlements
     mark paid, nothing removes rows.

RACE NOTE:
  The original interactive design read availability, decided, then wrote -
  exploitable under concurrent callers. Here the check and both writes share
  one transaction, and the open-loan unique constraint backstops it at the
  storage layer.

SEE ALSO:
  - store.go: The TxStore contract the Engine drives
  - fine.go: Late-return penalty policy
  - errors.go: The error kinds operations return
*/
package circulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine coordinates the catalog, inventory, loan, and fine ledgers.
// It holds no mutable state of its own; all state lives in the store,
// which is passed in explicitly at construction.
type Engine struct {
	store  TxStore
	policy FinePolicy
}

// NewEngine creates an engine over the given transactional store.
func NewEngine(store TxStore, policy FinePolicy) *Engine {
	return &Engine{store: store, policy: policy}
}

// =============================================================================
// RESULTS
// =============================================================================

// BorrowResult is returned by a successful borrow.
type BorrowResult struct {
	LoanID  LoanID
	DueDate Date
}

// ReturnResult is returned by a successful return.
type ReturnResult struct {
	LoanID       LoanID
	ReturnDate   Date
	DaysLate     int
	FineAmount   decimal.Decimal
	FineRecorded bool
	// Settled means nothing is outstanding from this return: no fine was
	// assessed. Recorded fines stay unsettled until paid separately.
	Settled bool
	// CopyMissing is set when the copy record was removed while the loan was
	// out. The loan still closes; the inventory update is best-effort.
	CopyMissing bool
}

// DonationRequest describes an incoming donation. Details may be nil when the
// item key is already in the catalog.
type DonationRequest struct {
	ItemKey         ItemKey
	Details         *CatalogItem
	ShelfLocation   string
	Condition       string
	AcquisitionDate Date
}

// DonationResult is returned by a successful donation.
type DonationResult struct {
	CopyID      CopyID
	ItemCreated bool
}

// =============================================================================
// BORROW
// =============================================================================

// BorrowCopy lends a copy to a member. The availability check, the loan
// insert, and the availability flip are one atomic unit: under concurrent
// requests for the same copy exactly one succeeds, the rest see
// ErrCopyUnavailable.
func (e *Engine) BorrowCopy(ctx context.Context, copyID CopyID, memberID MemberID, requestDate Date) (BorrowResult, error) {
	var result BorrowResult

	err := e.store.WithTx(ctx, func(s Store) error {
		copy, err := s.Inventory().Get(ctx, copyID)
		if err != nil {
			return err
		}

		if !copy.Available {
			// Surface which loan blocks the borrow when we can find it.
			if open, ok, ferr := s.Loans().FindOpenByCopy(ctx, copyID); ferr == nil && ok {
				return &UnavailableError{CopyID: copyID, OpenLoanID: open.ID}
			}
			return ErrCopyUnavailable
		}

		loan := Loan{
			ID:         NewLoanID(),
			CopyID:     copyID,
			MemberID:   memberID,
			BorrowDate: requestDate,
			DueDate:    requestDate.AddDays(LoanPeriodDays),
		}

		// The open-loan uniqueness constraint turns a lost race into
		// ErrCopyUnavailable here rather than a double lend.
		if err := s.Loans().Open(ctx, loan); err != nil {
			return err
		}
		if err := s.Inventory().SetAvailability(ctx, copyID, false); err != nil {
			return err
		}

		result = BorrowResult{LoanID: loan.ID, DueDate: loan.DueDate}
		return nil
	})
	if err != nil {
		return BorrowResult{}, err
	}
	return result, nil
}

// =============================================================================
// RETURN
// =============================================================================

// ReturnCopy closes a loan, restores the copy's availability, and records a
// fine when the return is past due. Closing the loan, flipping availability,
// and recording the fine are one atomic unit.
//
// A second return of the same loan fails with ErrLoanAlreadyClosed and alters
// nothing. A loan whose copy record has since been removed still closes; the
// result reports the missing copy instead of rejecting the return.
func (e *Engine) ReturnCopy(ctx context.Context, loanID LoanID, returnDate Date) (ReturnResult, error) {
	var result ReturnResult

	err := e.store.WithTx(ctx, func(s Store) error {
		loan, err := s.Loans().Get(ctx, loanID)
		if err != nil {
			return err
		}
		if !loan.Open() {
			return &AlreadyClosedError{LoanID: loanID, ReturnedOn: loan.ReturnDate}
		}

		if err := s.Loans().Close(ctx, loanID, returnDate); err != nil {
			return err
		}

		copyMissing := false
		if err := s.Inventory().SetAvailability(ctx, loan.CopyID, true); err != nil {
			if !errors.Is(err, ErrCopyNotFound) {
				return err
			}
			copyMissing = true
		}

		daysLate, amount := e.policy.Assess(loan.DueDate, returnDate)
		fineRecorded := false
		if daysLate > 0 {
			fine := Fine{ID: NewFineID(), LoanID: loanID, Amount: amount}
			if err := s.Fines().Record(ctx, fine); err != nil {
				return err
			}
			fineRecorded = true
		}

		result = ReturnResult{
			LoanID:       loanID,
			ReturnDate:   returnDate,
			DaysLate:     daysLate,
			FineAmount:   amount,
			FineRecorded: fineRecorded,
			Settled:      !fineRecorded,
			CopyMissing:  copyMissing,
		}
		return nil
	})
	if err != nil {
		return ReturnResult{}, err
	}
	return result, nil
}

// =============================================================================
// DONATE
// =============================================================================

// DonateCopy accepts a donated copy. When the item key is new, the catalog
// item is created from the supplied details first; incomplete details fail
// with MissingDetailsError and nothing is written. The copy always starts
// available with source "Donated".
func (e *Engine) DonateCopy(ctx context.Context, req DonationRequest) (DonationResult, error) {
	var result DonationResult

	err := e.store.WithTx(ctx, func(s Store) error {
		itemCreated := false

		_, err := s.Catalog().Get(ctx, req.ItemKey)
		switch {
		case err == nil:
			// Known title, details (if any) are ignored.
		case errors.Is(err, ErrItemNotFound):
			if req.Details == nil {
				return &MissingDetailsError{
					ItemKey: req.ItemKey,
					Missing: []string{"type", "title", "author", "publish_date", "publisher"},
				}
			}
			item := *req.Details
			item.Key = req.ItemKey
			if missing := item.MissingFields(); len(missing) > 0 {
				return &MissingDetailsError{ItemKey: req.ItemKey, Missing: missing}
			}
			if err := s.Catalog().Insert(ctx, item); err != nil {
				return err
			}
			itemCreated = true
		default:
			return err
		}

		copy := CopyRecord{
			ID:              NewCopyID(),
			ItemKey:         req.ItemKey,
			Available:       true,
			ShelfLocation:   req.ShelfLocation,
			AcquisitionDate: req.AcquisitionDate,
			Condition:       req.Condition,
			Source:          SourceDonated,
		}
		if err := s.Inventory().Add(ctx, copy); err != nil {
			return err
		}

		result = DonationResult{CopyID: copy.ID, ItemCreated: itemCreated}
		return nil
	})
	if err != nil {
		return DonationResult{}, err
	}
	return result, nil
}

// =============================================================================
// FINES
// =============================================================================

// SettleFine marks the fine for a loan as paid. The fine row remains as
// audit history.
func (e *Engine) SettleFine(ctx context.Context, loanID LoanID, paymentDate Date) error {
	return e.store.WithTx(ctx, func(s Store) error {
		return s.Fines().Settle(ctx, loanID, paymentDate)
	})
}

// GetFine returns the fine for a loan.
func (e *Engine) GetFine(ctx context.Context, loanID LoanID) (Fine, error) {
	return e.store.Fines().GetByLoan(ctx, loanID)
}

// OutstandingFines lists all unpaid fines.
func (e *Engine) OutstandingFines(ctx context.Context) ([]Fine, error) {
	return e.store.Fines().ListOutstanding(ctx)
}

// =============================================================================
// READS
// =============================================================================

// FindItem searches the catalog by title or author, with availability counts
// cross-referenced from inventory.
func (e *Engine) FindItem(ctx context.Context, query string) ([]ItemAvailability, error) {
	return e.store.Catalog().Search(ctx, query)
}

// GetLoan returns a loan by ID.
func (e *Engine) GetLoan(ctx context.Context, id LoanID) (Loan, error) {
	return e.store.Loans().Get(ctx, id)
}

// MemberLoans returns a member's loan history, newest first.
func (e *Engine) MemberLoans(ctx context.Context, id MemberID) ([]Loan, error) {
	return e.store.Loans().ListByMember(ctx, id)
}

// CheckInvariant verifies that a copy's availability flag agrees with the
// loan ledger: available == false iff an open loan references the copy.
// Intended for tests and reconciliation tooling.
func (e *Engine) CheckInvariant(ctx context.Context, copyID CopyID) error {
	copy, err := e.store.Inventory().Get(ctx, copyID)
	if err != nil {
		return err
	}
	_, hasOpen, err := e.store.Loans().FindOpenByCopy(ctx, copyID)
	if err != nil {
		return err
	}
	if copy.Available == hasOpen {
		return fmt.Errorf("invariant violation for copy %s: available=%t, open loan=%t",
			copyID, copy.Available, hasOpen)
	}
	return nil
}
