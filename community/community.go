/*
Package community covers the library's non-circulation services: event and
room seating, volunteer registration, and librarian help lookup.

These are deliberately thin, single-table operations with one exception:
seat registration must be an atomic conditional update against the room's
capacity, so a full event can never oversell under concurrent requests.
None of this touches the circulation ledgers.
*/
package community

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/circulation-engine/circulation"
)

// FrontDeskRoom is where members are sent when asking for help.
const FrontDeskRoom = "R001"

// =============================================================================
// TYPES
// =============================================================================

type EventID string
type PersonnelID string

func NewEventID() EventID         { return EventID(uuid.NewString()) }
func NewPersonnelID() PersonnelID { return PersonnelID(uuid.NewString()) }

// Event is a scheduled library event held in a room.
type Event struct {
	ID            EventID
	Name          string
	Type          string
	StartDate     circulation.Date
	StartTime     string // "HH:MM", display only
	RoomNumber    string
	ReservedSeats int
}

// Room is a physical room with a seating capacity.
type Room struct {
	Number      string
	MaxCapacity int
}

// StaffMember is a personnel record; volunteers are staff with a zero salary.
type StaffMember struct {
	ID         PersonnelID
	FirstName  string
	LastName   string
	Position   string
	StartDate  circulation.Date
	Salary     decimal.Decimal
	RoomNumber string
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEventNotFound is returned when an event ID is unknown.
	ErrEventNotFound = errors.New("event not found")

	// ErrRoomNotFound is returned when an event references a missing room.
	ErrRoomNotFound = errors.New("room not found")

	// ErrCapacityExceeded is returned when an event's room is fully booked.
	ErrCapacityExceeded = errors.New("event fully booked")
)

// =============================================================================
// STORE
// =============================================================================

// Store is the persistence contract for community records.
type Store interface {
	// AddRoom registers a room.
	AddRoom(ctx context.Context, room Room) error

	// AddEvent registers an event.
	AddEvent(ctx context.Context, event Event) error

	// GetEvent returns an event, or ErrEventNotFound.
	GetEvent(ctx context.Context, id EventID) (Event, error)

	// SearchEvents matches query against event name and type.
	SearchEvents(ctx context.Context, query string) ([]Event, error)

	// ReserveSeat increments ReservedSeats by one iff the room has capacity
	// left. One conditional write: under concurrent registrations for the
	// last seat, exactly one succeeds, the rest see ErrCapacityExceeded.
	ReserveSeat(ctx context.Context, id EventID) error

	// AddStaff inserts a personnel record.
	AddStaff(ctx context.Context, member StaffMember) error

	// FindLibrarian returns a librarian stationed in the given room, if any.
	FindLibrarian(ctx context.Context, roomNumber string) (StaffMember, bool, error)
}

// =============================================================================
// SERVICE
// =============================================================================

// Service exposes the caller-facing community operations over a Store.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// FindEvents searches events by name or type.
func (s *Service) FindEvents(ctx context.Context, query string) ([]Event, error) {
	return s.store.SearchEvents(ctx, query)
}

// RegisterForEvent reserves one seat at the event.
func (s *Service) RegisterForEvent(ctx context.Context, id EventID) error {
	return s.store.ReserveSeat(ctx, id)
}

// Volunteer signs a member up as a volunteer in the given room.
func (s *Service) Volunteer(ctx context.Context, firstName, lastName, roomNumber string, startDate circulation.Date) (StaffMember, error) {
	member := StaffMember{
		ID:         NewPersonnelID(),
		FirstName:  firstName,
		LastName:   lastName,
		Position:   "Volunteer",
		StartDate:  startDate,
		Salary:     decimal.Zero,
		RoomNumber: roomNumber,
	}
	if err := s.store.AddStaff(ctx, member); err != nil {
		return StaffMember{}, err
	}
	return member, nil
}

// AskForHelp reports whether a librarian is available in the given room
// (the front desk when roomNumber is empty).
func (s *Service) AskForHelp(ctx context.Context, roomNumber string) (StaffMember, bool, error) {
	if roomNumber == "" {
		roomNumber = FrontDeskRoom
	}
	return s.store.FindLibrarian(ctx, roomNumber)
}
