package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/circulation-engine/circulation"
	"github.com/warp/circulation-engine/circulation/store"
)

func testLoan(id circulation.LoanID, copyID circulation.CopyID) circulation.Loan {
	borrow := circulation.NewDate(2025, time.January, 1)
	return circulation.Loan{
		ID:         id,
		CopyID:     copyID,
		MemberID:   "member-1",
		BorrowDate: borrow,
		DueDate:    borrow.AddDays(circulation.LoanPeriodDays),
	}
}

// =============================================================================
// TRANSACTION SEMANTICS
// =============================================================================

func TestWithTx_ErrorRestoresSnapshot(t *testing.T) {
	// GIVEN: A store with one item
	// WHEN: A transaction writes a copy and a loan, then fails
	// THEN: Neither write survives

	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.Catalog().Insert(ctx, circulation.CatalogItem{Key: "k1", Title: "T"}))

	boom := errors.New("boom")
	err := mem.WithTx(ctx, func(s circulation.Store) error {
		if err := s.Inventory().Add(ctx, circulation.CopyRecord{ID: "c1", ItemKey: "k1", Available: true}); err != nil {
			return err
		}
		if err := s.Loans().Open(ctx, testLoan("l1", "c1")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = mem.Inventory().Get(ctx, "c1")
	assert.ErrorIs(t, err, circulation.ErrCopyNotFound, "rolled-back copy must not exist")
	_, err = mem.Loans().Get(ctx, "l1")
	assert.ErrorIs(t, err, circulation.ErrLoanNotFound, "rolled-back loan must not exist")

	// The pre-transaction item is untouched
	_, err = mem.Catalog().Get(ctx, "k1")
	assert.NoError(t, err)
}

func TestWithTx_SuccessCommits(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	err := mem.WithTx(ctx, func(s circulation.Store) error {
		return s.Inventory().Add(ctx, circulation.CopyRecord{ID: "c1", ItemKey: "k1", Available: true})
	})
	require.NoError(t, err)

	copy, err := mem.Inventory().Get(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, copy.Available)
}

// =============================================================================
// LOAN LEDGER CONSTRAINTS
// =============================================================================

func TestLoans_SecondOpenOnSameCopy_Rejected(t *testing.T) {
	// The ledger itself refuses a second open loan per copy, independent of
	// the engine's availability check.
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.Loans().Open(ctx, testLoan("l1", "c1")))

	err := mem.Loans().Open(ctx, testLoan("l2", "c1"))
	assert.ErrorIs(t, err, circulation.ErrCopyUnavailable)

	var unavailable *circulation.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, circulation.LoanID("l1"), unavailable.OpenLoanID)
}

func TestLoans_OpenAfterClose_Allowed(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.Loans().Open(ctx, testLoan("l1", "c1")))
	require.NoError(t, mem.Loans().Close(ctx, "l1", circulation.NewDate(2025, time.January, 5)))
	assert.NoError(t, mem.Loans().Open(ctx, testLoan("l2", "c1")))
}

func TestLoans_CloseTwice_AlreadyClosed(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.Loans().Open(ctx, testLoan("l1", "c1")))
	require.NoError(t, mem.Loans().Close(ctx, "l1", circulation.NewDate(2025, time.January, 5)))

	err := mem.Loans().Close(ctx, "l1", circulation.NewDate(2025, time.January, 6))
	assert.ErrorIs(t, err, circulation.ErrLoanAlreadyClosed)
}

func TestLoans_FindOpenByCopy(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	_, found, err := mem.Loans().FindOpenByCopy(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, mem.Loans().Open(ctx, testLoan("l1", "c1")))

	open, found, err := mem.Loans().FindOpenByCopy(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, circulation.LoanID("l1"), open.ID)
}

// =============================================================================
// FINE LEDGER
// =============================================================================

func TestFines_Record_IdempotentPerLoan(t *testing.T) {
	// A second record for the same loan updates the amount but keeps the
	// original fine identity and payment state.
	mem := store.NewMemory()
	ctx := context.Background()

	first := circulation.Fine{ID: "f1", LoanID: "l1", Amount: decimal.RequireFromString("3.00")}
	require.NoError(t, mem.Fines().Record(ctx, first))

	second := circulation.Fine{ID: "f2", LoanID: "l1", Amount: decimal.RequireFromString("4.50")}
	require.NoError(t, mem.Fines().Record(ctx, second))

	fine, err := mem.Fines().GetByLoan(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, circulation.FineID("f1"), fine.ID)
	assert.True(t, fine.Amount.Equal(decimal.RequireFromString("4.50")))
}

func TestFines_SettleAndListOutstanding(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.Fines().Record(ctx, circulation.Fine{ID: "f1", LoanID: "l1", Amount: decimal.RequireFromString("1.00")}))
	require.NoError(t, mem.Fines().Record(ctx, circulation.Fine{ID: "f2", LoanID: "l2", Amount: decimal.RequireFromString("2.00")}))

	require.NoError(t, mem.Fines().Settle(ctx, "l1", circulation.NewDate(2025, time.February, 1)))

	outstanding, err := mem.Fines().ListOutstanding(ctx)
	require.NoError(t, err)
	require.Len(t, outstanding, 1)
	assert.Equal(t, circulation.LoanID("l2"), outstanding[0].LoanID)

	err = mem.Fines().Settle(ctx, "l3", circulation.NewDate(2025, time.February, 1))
	assert.ErrorIs(t, err, circulation.ErrFineNotFound)
}

// =============================================================================
// CATALOG SEARCH
// =============================================================================

func TestCatalog_Search_CountsCopies(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.Catalog().Insert(ctx, circulation.CatalogItem{
		Key: "k1", Title: "Dune", Author: "Frank Herbert",
	}))
	require.NoError(t, mem.Inventory().Add(ctx, circulation.CopyRecord{ID: "c1", ItemKey: "k1", Available: true}))
	require.NoError(t, mem.Inventory().Add(ctx, circulation.CopyRecord{ID: "c2", ItemKey: "k1", Available: false}))

	results, err := mem.Catalog().Search(ctx, "herbert")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].TotalCopies)
	assert.Equal(t, 1, results[0].AvailableCopies)

	results, err = mem.Catalog().Search(ctx, "asimov")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCatalog_InsertDuplicateKey_Rejected(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.Catalog().Insert(ctx, circulation.CatalogItem{Key: "k1", Title: "A"}))
	err := mem.Catalog().Insert(ctx, circulation.CatalogItem{Key: "k1", Title: "B"})
	assert.ErrorIs(t, err, circulation.ErrItemExists)
}
