package community_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/circulation-engine/circulation"
	"github.com/warp/circulation-engine/community"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T) (*community.Service, *community.MemoryStore) {
	t.Helper()
	store := community.NewMemoryStore()
	return community.NewService(store), store
}

func seedEvent(t *testing.T, store *community.MemoryStore, capacity int) community.EventID {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.AddRoom(ctx, community.Room{Number: "R102", MaxCapacity: capacity}))
	event := community.Event{
		ID:         community.NewEventID(),
		Name:       "Poetry Night",
		Type:       "Reading",
		StartDate:  circulation.NewDate(2025, time.March, 20),
		StartTime:  "18:30",
		RoomNumber: "R102",
	}
	require.NoError(t, store.AddEvent(ctx, event))
	return event.ID
}

// =============================================================================
// EVENTS
// =============================================================================

func TestFindEvents_MatchesNameAndType(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedEvent(t, store, 10)

	byName, err := svc.FindEvents(ctx, "poetry")
	require.NoError(t, err)
	assert.Len(t, byName, 1)

	byType, err := svc.FindEvents(ctx, "reading")
	require.NoError(t, err)
	assert.Len(t, byType, 1)

	none, err := svc.FindEvents(ctx, "chess")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRegisterForEvent_FullRoom_Rejected(t *testing.T) {
	// GIVEN: An event in a two-seat room
	// WHEN: Three members register
	// THEN: The third sees ErrCapacityExceeded

	svc, store := newTestService(t)
	ctx := context.Background()
	eventID := seedEvent(t, store, 2)

	require.NoError(t, svc.RegisterForEvent(ctx, eventID))
	require.NoError(t, svc.RegisterForEvent(ctx, eventID))

	err := svc.RegisterForEvent(ctx, eventID)
	assert.ErrorIs(t, err, community.ErrCapacityExceeded)

	event, err := store.GetEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 2, event.ReservedSeats, "rejected registration must not count")
}

func TestRegisterForEvent_Concurrent_NeverOversells(t *testing.T) {
	// GIVEN: Three seats and ten simultaneous registrations
	// WHEN: All race
	// THEN: Exactly three succeed

	svc, store := newTestService(t)
	ctx := context.Background()
	eventID := seedEvent(t, store, 3)

	const attempts = 10
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.RegisterForEvent(ctx, eventID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, community.ErrCapacityExceeded)
		}
	}
	assert.Equal(t, 3, wins)

	event, err := store.GetEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 3, event.ReservedSeats)
}

func TestRegisterForEvent_UnknownEvent(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.RegisterForEvent(context.Background(), "no-such-event")
	assert.ErrorIs(t, err, community.ErrEventNotFound)
}

// =============================================================================
// VOLUNTEERS
// =============================================================================

func TestVolunteer_ZeroSalaryVolunteerPosition(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	member, err := svc.Volunteer(ctx, "Maya", "Chen", "R102", circulation.NewDate(2025, time.April, 1))
	require.NoError(t, err)

	assert.Equal(t, "Volunteer", member.Position)
	assert.True(t, member.Salary.IsZero())
	assert.NotEmpty(t, member.ID)

	// Volunteers are not librarians; help lookup in their room finds nobody.
	_, found, err := store.FindLibrarian(ctx, "R102")
	require.NoError(t, err)
	assert.False(t, found)
}

// =============================================================================
// HELP DESK
// =============================================================================

func TestAskForHelp_DefaultsToFrontDesk(t *testing.T) {
	// GIVEN: A librarian stationed at the front desk
	// WHEN: A member asks for help without naming a room
	// THEN: The front-desk librarian is found

	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.AddStaff(ctx, community.StaffMember{
		ID:         community.NewPersonnelID(),
		FirstName:  "Ruth",
		LastName:   "Okafor",
		Position:   "Head Librarian",
		RoomNumber: community.FrontDeskRoom,
	}))

	librarian, found, err := svc.AskForHelp(ctx, "")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Ruth", librarian.FirstName)
	assert.Equal(t, community.FrontDeskRoom, librarian.RoomNumber)
}

func TestAskForHelp_NoLibrarianOnDuty(t *testing.T) {
	svc, _ := newTestService(t)

	_, found, err := svc.AskForHelp(context.Background(), "R102")
	require.NoError(t, err)
	assert.False(t, found)
}
