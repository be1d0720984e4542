/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/circulation-engine/circulation"
	"github.com/warp/circulation-engine/community"
)

// =============================================================================
// CIRCULATION
// =============================================================================

// BorrowRequest asks to lend a copy to a member.
type BorrowRequest struct {
	CopyID   string `json:"copy_id"`
	MemberID string `json:"member_id"`
	Date     string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

// BorrowResponseDTO is the payload of a successful borrow.
type BorrowResponseDTO struct {
	LoanID  string `json:"loan_id"`
	DueDate string `json:"due_date"`
}

// ReturnRequest asks to close a loan.
type ReturnRequest struct {
	LoanID string `json:"loan_id"`
	Date   string `json:"date,omitempty"`
}

// ReturnResponseDTO is the payload of a successful return.
type ReturnResponseDTO struct {
	LoanID      string `json:"loan_id"`
	ReturnDate  string `json:"return_date"`
	Settled     bool   `json:"settled"`
	DaysLate    int    `json:"days_late,omitempty"`
	FineAmount  string `json:"fine_amount,omitempty"`
	CopyMissing bool   `json:"copy_missing,omitempty"`
}

// DonateRequest registers a donated copy, with item details when the key
// is new to the catalog.
type DonateRequest struct {
	ItemKey       string          `json:"item_key"`
	Details       *ItemDetailsDTO `json:"details,omitempty"`
	ShelfLocation string          `json:"shelf_location"`
	Condition     string          `json:"condition"`
	Date          string          `json:"date,omitempty"`
}

// ItemDetailsDTO carries catalog metadata for a new item key.
type ItemDetailsDTO struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	PublishDate string `json:"publish_date"`
	Publisher   string `json:"publisher"`
}

// DonateResponseDTO is the payload of a successful donation.
type DonateResponseDTO struct {
	CopyID      string `json:"copy_id"`
	ItemCreated bool   `json:"item_created"`
}

// LoanDTO represents a loan record.
type LoanDTO struct {
	LoanID     string `json:"loan_id"`
	CopyID     string `json:"copy_id"`
	MemberID   string `json:"member_id"`
	BorrowDate string `json:"borrow_date"`
	DueDate    string `json:"due_date"`
	ReturnDate string `json:"return_date,omitempty"`
	Open       bool   `json:"open"`
}

// FineDTO represents a fine record.
type FineDTO struct {
	FineID      string `json:"fine_id"`
	LoanID      string `json:"loan_id"`
	Amount      string `json:"amount"`
	PaymentDate string `json:"payment_date,omitempty"`
	Outstanding bool   `json:"outstanding"`
}

// SettleRequest marks a fine paid.
type SettleRequest struct {
	Date string `json:"date,omitempty"`
}

// ItemDTO is a catalog search result with availability counts.
type ItemDTO struct {
	Key             string `json:"key"`
	Type            string `json:"type"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	PublishDate     string `json:"publish_date"`
	Publisher       string `json:"publisher"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
}

// =============================================================================
// COMMUNITY
// =============================================================================

// EventDTO represents a library event.
type EventDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	StartDate     string `json:"start_date"`
	StartTime     string `json:"start_time,omitempty"`
	RoomNumber    string `json:"room_number"`
	ReservedSeats int    `json:"reserved_seats"`
}

// VolunteerRequest signs a member up as a volunteer.
type VolunteerRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	RoomNumber string `json:"room_number"`
	Date       string `json:"date,omitempty"`
}

// VolunteerResponseDTO is the payload of a successful signup.
type VolunteerResponseDTO struct {
	PersonnelID string `json:"personnel_id"`
	Position    string `json:"position"`
}

// HelpResponseDTO says whether a librarian is around.
type HelpResponseDTO struct {
	Available  bool   `json:"available"`
	RoomNumber string `json:"room_number"`
	Librarian  string `json:"librarian,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toLoanDTO(l circulation.Loan) LoanDTO {
	return LoanDTO{
		LoanID:     string(l.ID),
		CopyID:     string(l.CopyID),
		MemberID:   string(l.MemberID),
		BorrowDate: l.BorrowDate.String(),
		DueDate:    l.DueDate.String(),
		ReturnDate: l.ReturnDate.String(),
		Open:       l.Open(),
	}
}

func toFineDTO(f circulation.Fine) FineDTO {
	return FineDTO{
		FineID:      string(f.ID),
		LoanID:      string(f.LoanID),
		Amount:      f.Amount.StringFixed(2),
		PaymentDate: f.PaymentDate.String(),
		Outstanding: f.Outstanding(),
	}
}

func toItemDTO(ia circulation.ItemAvailability) ItemDTO {
	return ItemDTO{
		Key:             string(ia.Item.Key),
		Type:            ia.Item.Type,
		Title:           ia.Item.Title,
		Author:          ia.Item.Author,
		PublishDate:     ia.Item.PublishDate.String(),
		Publisher:       ia.Item.Publisher,
		TotalCopies:     ia.TotalCopies,
		AvailableCopies: ia.AvailableCopies,
	}
}

func toEventDTO(e community.Event) EventDTO {
	return EventDTO{
		ID:            string(e.ID),
		Name:          e.Name,
		Type:          e.Type,
		StartDate:     e.StartDate.String(),
		StartTime:     e.StartTime,
		RoomNumber:    e.RoomNumber,
		ReservedSeats: e.ReservedSeats,
	}
}
