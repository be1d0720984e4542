package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/circulation-engine/circulation"
	"github.com/warp/circulation-engine/community"
	"github.com/warp/circulation-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestEngine(t *testing.T) (*circulation.Engine, *sqlite.Store) {
	store := newTestStore(t)
	return circulation.NewEngine(store, circulation.DefaultFinePolicy()), store
}

func seedItemWithCopy(t *testing.T, store *sqlite.Store) circulation.CopyID {
	t.Helper()
	ctx := context.Background()

	item := circulation.CatalogItem{
		Key:         "978-0-7432-7356-5",
		Type:        "Print Book",
		Title:       "The Great Gatsby",
		Author:      "F. Scott Fitzgerald",
		PublishDate: circulation.NewDate(1925, time.April, 10),
		Publisher:   "Scribner",
	}
	require.NoError(t, store.Catalog().Insert(ctx, item))

	copy := circulation.CopyRecord{
		ID:              circulation.NewCopyID(),
		ItemKey:         item.Key,
		Available:       true,
		ShelfLocation:   "A-12",
		AcquisitionDate: circulation.NewDate(2024, time.June, 1),
		Condition:       "Good",
		Source:          "Purchased",
	}
	require.NoError(t, store.Inventory().Add(ctx, copy))
	return copy.ID
}

func jan(day int) circulation.Date {
	return circulation.NewDate(2025, time.January, day)
}

// =============================================================================
// CIRCULATION THROUGH THE ENGINE
// =============================================================================

func TestSQLite_BorrowReturn_FullCycle(t *testing.T) {
	// GIVEN: A seeded item with one copy
	// WHEN: Borrowed Jan 1, returned Jan 21 (due Jan 15)
	// THEN: The loan closes, the copy frees up, and a 3.00 fine is recorded

	engine, store := newTestEngine(t)
	ctx := context.Background()
	copyID := seedItemWithCopy(t, store)

	borrowed, err := engine.BorrowCopy(ctx, copyID, "member-1", jan(1))
	require.NoError(t, err)
	assert.True(t, borrowed.DueDate.Equal(jan(15)))

	available, err := store.Inventory().IsAvailable(ctx, copyID)
	require.NoError(t, err)
	assert.False(t, available)

	result, err := engine.ReturnCopy(ctx, borrowed.LoanID, jan(21))
	require.NoError(t, err)
	assert.Equal(t, 6, result.DaysLate)
	assert.True(t, result.FineAmount.Equal(decimal.RequireFromString("3.00")))

	available, err = store.Inventory().IsAvailable(ctx, copyID)
	require.NoError(t, err)
	assert.True(t, available)

	fine, err := store.Fines().GetByLoan(ctx, borrowed.LoanID)
	require.NoError(t, err)
	assert.True(t, fine.Outstanding())
}

func TestSQLite_DoubleBorrow_RolledBack(t *testing.T) {
	// GIVEN: A copy already on loan
	// WHEN: A second borrow is attempted
	// THEN: It fails and leaves no second loan behind

	engine, store := newTestEngine(t)
	ctx := context.Background()
	copyID := seedItemWithCopy(t, store)

	_, err := engine.BorrowCopy(ctx, copyID, "member-1", jan(1))
	require.NoError(t, err)

	_, err = engine.BorrowCopy(ctx, copyID, "member-2", jan(2))
	assert.ErrorIs(t, err, circulation.ErrCopyUnavailable)

	loans, err := store.Loans().ListByMember(ctx, "member-2")
	require.NoError(t, err)
	assert.Empty(t, loans, "failed borrow must not leave a loan row")
	assert.NoError(t, engine.CheckInvariant(ctx, copyID))
}

func TestSQLite_OpenLoanUniqueIndex(t *testing.T) {
	// The partial unique index rejects a second open loan even when the loan
	// store is driven directly, bypassing the engine's availability check.
	store := newTestStore(t)
	ctx := context.Background()
	copyID := seedItemWithCopy(t, store)

	loan := circulation.Loan{
		ID: circulation.NewLoanID(), CopyID: copyID, MemberID: "member-1",
		BorrowDate: jan(1), DueDate: jan(15),
	}
	require.NoError(t, store.Loans().Open(ctx, loan))

	second := circulation.Loan{
		ID: circulation.NewLoanID(), CopyID: copyID, MemberID: "member-2",
		BorrowDate: jan(2), DueDate: jan(16),
	}
	err := store.Loans().Open(ctx, second)
	assert.ErrorIs(t, err, circulation.ErrCopyUnavailable)

	// Closing the first loan releases the slot.
	require.NoError(t, store.Loans().Close(ctx, loan.ID, jan(5)))
	assert.NoError(t, store.Loans().Open(ctx, second))
}

func TestSQLite_CloseTwice_Disambiguated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	copyID := seedItemWithCopy(t, store)

	loan := circulation.Loan{
		ID: circulation.NewLoanID(), CopyID: copyID, MemberID: "member-1",
		BorrowDate: jan(1), DueDate: jan(15),
	}
	require.NoError(t, store.Loans().Open(ctx, loan))
	require.NoError(t, store.Loans().Close(ctx, loan.ID, jan(5)))

	err := store.Loans().Close(ctx, loan.ID, jan(6))
	assert.ErrorIs(t, err, circulation.ErrLoanAlreadyClosed)

	var closed *circulation.AlreadyClosedError
	require.ErrorAs(t, err, &closed)
	assert.True(t, closed.ReturnedOn.Equal(jan(5)))

	err = store.Loans().Close(ctx, "no-such-loan", jan(6))
	assert.ErrorIs(t, err, circulation.ErrLoanNotFound)
}

func TestSQLite_ReturnAfterCopyRemoved(t *testing.T) {
	// Loans carry no foreign key to copies so weeded inventory cannot strand
	// an open loan.
	engine, store := newTestEngine(t)
	ctx := context.Background()
	copyID := seedItemWithCopy(t, store)

	borrowed, err := engine.BorrowCopy(ctx, copyID, "member-1", jan(1))
	require.NoError(t, err)

	require.NoError(t, store.RemoveCopy(ctx, copyID))

	result, err := engine.ReturnCopy(ctx, borrowed.LoanID, jan(10))
	require.NoError(t, err)
	assert.True(t, result.CopyMissing)

	loan, err := store.Loans().Get(ctx, borrowed.LoanID)
	require.NoError(t, err)
	assert.False(t, loan.Open())
}

func TestSQLite_Donate_NewItemPersisted(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	item := circulation.CatalogItem{
		Type:        "Print Book",
		Title:       "Dune",
		Author:      "Frank Herbert",
		PublishDate: circulation.NewDate(1965, time.August, 1),
		Publisher:   "Chilton Books",
	}
	result, err := engine.DonateCopy(ctx, circulation.DonationRequest{
		ItemKey:         "978-0-441-17271-9",
		Details:         &item,
		Condition:       "Good",
		AcquisitionDate: jan(2),
	})
	require.NoError(t, err)
	assert.True(t, result.ItemCreated)

	copy, err := store.Inventory().Get(ctx, result.CopyID)
	require.NoError(t, err)
	assert.Equal(t, circulation.SourceDonated, copy.Source)
	assert.True(t, copy.Available)

	matches, err := store.Catalog().Search(ctx, "dune")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].AvailableCopies)
}

func TestSQLite_Fines_UpsertAndSettle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	copyID := seedItemWithCopy(t, store)

	loan := circulation.Loan{
		ID: circulation.NewLoanID(), CopyID: copyID, MemberID: "member-1",
		BorrowDate: jan(1), DueDate: jan(15),
	}
	require.NoError(t, store.Loans().Open(ctx, loan))

	first := circulation.Fine{ID: circulation.NewFineID(), LoanID: loan.ID, Amount: decimal.RequireFromString("3.00")}
	require.NoError(t, store.Fines().Record(ctx, first))

	// Re-recording updates the amount, keeps the fine ID.
	second := circulation.Fine{ID: circulation.NewFineID(), LoanID: loan.ID, Amount: decimal.RequireFromString("4.50")}
	require.NoError(t, store.Fines().Record(ctx, second))

	fine, err := store.Fines().GetByLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, fine.ID)
	assert.True(t, fine.Amount.Equal(decimal.RequireFromString("4.50")))

	require.NoError(t, store.Fines().Settle(ctx, loan.ID, circulation.NewDate(2025, time.February, 1)))
	outstanding, err := store.Fines().ListOutstanding(ctx)
	require.NoError(t, err)
	assert.Empty(t, outstanding)

	err = store.Fines().Settle(ctx, "no-such-loan", jan(1))
	assert.ErrorIs(t, err, circulation.ErrFineNotFound)
}

// =============================================================================
// COMMUNITY TABLES
// =============================================================================

func TestSQLite_ReserveSeat_CapacityEnforced(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddRoom(ctx, community.Room{Number: "R102", MaxCapacity: 2}))
	event := community.Event{
		ID: community.NewEventID(), Name: "Poetry Night", Type: "Reading",
		StartDate: circulation.NewDate(2025, time.March, 20), StartTime: "18:30",
		RoomNumber: "R102",
	}
	require.NoError(t, store.AddEvent(ctx, event))

	require.NoError(t, store.ReserveSeat(ctx, event.ID))
	require.NoError(t, store.ReserveSeat(ctx, event.ID))

	err := store.ReserveSeat(ctx, event.ID)
	assert.ErrorIs(t, err, community.ErrCapacityExceeded)

	stored, err := store.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ReservedSeats)

	err = store.ReserveSeat(ctx, "no-such-event")
	assert.ErrorIs(t, err, community.ErrEventNotFound)
}

func TestSQLite_FindLibrarian(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddStaff(ctx, community.StaffMember{
		ID: community.NewPersonnelID(), FirstName: "Ruth", LastName: "Okafor",
		Position: "Head Librarian", StartDate: circulation.NewDate(2019, time.April, 1),
		Salary: decimal.RequireFromString("52000"), RoomNumber: community.FrontDeskRoom,
	}))
	require.NoError(t, store.AddStaff(ctx, community.StaffMember{
		ID: community.NewPersonnelID(), FirstName: "Sam", LastName: "Ortiz",
		Position: "Volunteer", RoomNumber: community.FrontDeskRoom,
	}))

	librarian, found, err := store.FindLibrarian(ctx, community.FrontDeskRoom)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Head Librarian", librarian.Position)

	_, found, err = store.FindLibrarian(ctx, "R999")
	require.NoError(t, err)
	assert.False(t, found)
}

// =============================================================================
// SEED
// =============================================================================

func TestSQLite_SeedDemo_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SeedDemo(ctx))
	require.NoError(t, store.SeedDemo(ctx), "reseeding must not fail")

	matches, err := store.Catalog().Search(ctx, "go programming")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 2, matches[0].TotalCopies)

	events, err := store.SearchEvents(ctx, "reading")
	require.NoError(t, err)
	assert.NotEmpty(t, events)

	_, found, err := store.FindLibrarian(ctx, community.FrontDeskRoom)
	require.NoError(t, err)
	assert.True(t, found)
}
