/*
handlers.go - HTTP API handlers for the circulation system

PURPOSE:
  Exposes the circulation engine and community services via REST. Handles
  HTTP request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Catalog:
    GET  /api/catalog?q=                Search items with availability counts

  Circulation:
    POST /api/circulation/borrow        Borrow a copy
    POST /api/circulation/return        Return a copy
    POST /api/donations                 Donate a copy
    GET  /api/loans/{id}                Loan details
    GET  /api/members/{id}/loans        Member loan history
    POST /api/fines/{loanID}/settle     Mark a fine paid
    GET  /api/fines/outstanding         Unpaid fines

  Community:
    GET  /api/events?q=                 Search events
    POST /api/events/{id}/register      Reserve a seat
    POST /api/volunteers                Volunteer signup
    GET  /api/help?room=                Librarian availability

  Admin:
    POST /api/admin/seed                Load demo data

ERROR HANDLING:
  Typed domain errors map to HTTP statuses:
  - 400: MissingDetails, malformed input
  - 404: item/copy/loan/fine/event not found
  - 409: Unavailable, AlreadyClosed, ItemExists, CapacityExceeded
  - 500: StorageFailure and everything else

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/circulation-engine/circulation"
	"github.com/warp/circulation-engine/community"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Seeder is implemented by stores that can load demo data.
type Seeder interface {
	SeedDemo(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine    *circulation.Engine
	Community *community.Service
	Seeder    Seeder // optional
}

// NewHandler creates a handler over the engine and community service.
func NewHandler(engine *circulation.Engine, comm *community.Service) *Handler {
	return &Handler{Engine: engine, Community: comm}
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// SearchCatalog returns items matching ?q= with availability counts.
func (h *Handler) SearchCatalog(w http.ResponseWriter, r *http.Request) {
	results, err := h.Engine.FindItem(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]ItemDTO, len(results))
	for i, ia := range results {
		dtos[i] = toItemDTO(ia)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// CIRCULATION HANDLERS
// =============================================================================

// Borrow lends a copy to a member.
func (h *Handler) Borrow(w http.ResponseWriter, r *http.Request) {
	var req BorrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CopyID == "" || req.MemberID == "" {
		writeError(w, http.StatusBadRequest, "copy_id and member_id are required", nil)
		return
	}
	date, err := dateOrToday(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	result, err := h.Engine.BorrowCopy(r.Context(),
		circulation.CopyID(req.CopyID), circulation.MemberID(req.MemberID), date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, BorrowResponseDTO{
		LoanID:  string(result.LoanID),
		DueDate: result.DueDate.String(),
	})
}

// Return closes a loan and settles the inventory and fine consequences.
func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	var req ReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.LoanID == "" {
		writeError(w, http.StatusBadRequest, "loan_id is required", nil)
		return
	}
	date, err := dateOrToday(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	result, err := h.Engine.ReturnCopy(r.Context(), circulation.LoanID(req.LoanID), date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := ReturnResponseDTO{
		LoanID:      string(result.LoanID),
		ReturnDate:  result.ReturnDate.String(),
		Settled:     result.Settled,
		DaysLate:    result.DaysLate,
		CopyMissing: result.CopyMissing,
	}
	if result.FineRecorded {
		resp.FineAmount = result.FineAmount.StringFixed(2)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Donate accepts a donated copy.
func (h *Handler) Donate(w http.ResponseWriter, r *http.Request) {
	var req DonateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ItemKey == "" {
		writeError(w, http.StatusBadRequest, "item_key is required", nil)
		return
	}
	date, err := dateOrToday(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	donation := circulation.DonationRequest{
		ItemKey:         circulation.ItemKey(req.ItemKey),
		ShelfLocation:   req.ShelfLocation,
		Condition:       req.Condition,
		AcquisitionDate: date,
	}
	if req.Details != nil {
		publishDate, _ := circulation.ParseDate(req.Details.PublishDate)
		donation.Details = &circulation.CatalogItem{
			Type:        req.Details.Type,
			Title:       req.Details.Title,
			Author:      req.Details.Author,
			PublishDate: publishDate,
			Publisher:   req.Details.Publisher,
		}
	}

	result, err := h.Engine.DonateCopy(r.Context(), donation)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, DonateResponseDTO{
		CopyID:      string(result.CopyID),
		ItemCreated: result.ItemCreated,
	})
}

// GetLoan returns a single loan.
func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.Engine.GetLoan(r.Context(), circulation.LoanID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanDTO(loan))
}

// MemberLoans returns a member's loan history.
func (h *Handler) MemberLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.Engine.MemberLoans(r.Context(), circulation.MemberID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]LoanDTO, len(loans))
	for i, l := range loans {
		dtos[i] = toLoanDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SettleFine marks the fine for a loan as paid.
func (h *Handler) SettleFine(w http.ResponseWriter, r *http.Request) {
	// An empty or absent body is fine: the payment date defaults to today.
	var req SettleRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	date, err := dateOrToday(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	loanID := circulation.LoanID(chi.URLParam(r, "loanID"))
	if err := h.Engine.SettleFine(r.Context(), loanID, date); err != nil {
		writeDomainError(w, err)
		return
	}

	fine, err := h.Engine.GetFine(r.Context(), loanID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFineDTO(fine))
}

// OutstandingFines lists unpaid fines.
func (h *Handler) OutstandingFines(w http.ResponseWriter, r *http.Request) {
	fines, err := h.Engine.OutstandingFines(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]FineDTO, len(fines))
	for i, f := range fines {
		dtos[i] = toFineDTO(f)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// COMMUNITY HANDLERS
// =============================================================================

// SearchEvents returns events matching ?q=.
func (h *Handler) SearchEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Community.FindEvents(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]EventDTO, len(events))
	for i, e := range events {
		dtos[i] = toEventDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RegisterForEvent reserves one seat.
func (h *Handler) RegisterForEvent(w http.ResponseWriter, r *http.Request) {
	id := community.EventID(chi.URLParam(r, "id"))
	if err := h.Community.RegisterForEvent(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

// Volunteer signs a member up as a volunteer.
func (h *Handler) Volunteer(w http.ResponseWriter, r *http.Request) {
	var req VolunteerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.FirstName == "" || req.LastName == "" {
		writeError(w, http.StatusBadRequest, "first_name and last_name are required", nil)
		return
	}
	date, err := dateOrToday(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	member, err := h.Community.Volunteer(r.Context(), req.FirstName, req.LastName, req.RoomNumber, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, VolunteerResponseDTO{
		PersonnelID: string(member.ID),
		Position:    member.Position,
	})
}

// AskForHelp reports librarian availability for ?room= (front desk default).
func (h *Handler) AskForHelp(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	librarian, available, err := h.Community.AskForHelp(r.Context(), room)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := HelpResponseDTO{Available: available, RoomNumber: room}
	if resp.RoomNumber == "" {
		resp.RoomNumber = community.FrontDeskRoom
	}
	if available {
		resp.Librarian = librarian.FirstName + " " + librarian.LastName
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// SeedDemo loads demo data into the store.
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	if h.Seeder == nil {
		writeError(w, http.StatusNotImplemented, "Seeding not supported by this store", nil)
		return
	}
	if err := h.Seeder.SeedDemo(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed demo data", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "seeded"})
}

// =============================================================================
// ERROR MAPPING AND HELPERS
// =============================================================================

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case circulation.IsNotFound(err),
		errors.Is(err, community.ErrEventNotFound),
		errors.Is(err, community.ErrRoomNotFound):
		writeErrorCode(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, circulation.ErrCopyUnavailable):
		writeErrorCode(w, http.StatusConflict, "unavailable", err)
	case errors.Is(err, circulation.ErrLoanAlreadyClosed):
		writeErrorCode(w, http.StatusConflict, "already_closed", err)
	case errors.Is(err, circulation.ErrItemExists):
		writeErrorCode(w, http.StatusConflict, "item_exists", err)
	case errors.Is(err, community.ErrCapacityExceeded):
		writeErrorCode(w, http.StatusConflict, "capacity_exceeded", err)
	case errors.Is(err, circulation.ErrMissingDetails):
		writeErrorCode(w, http.StatusBadRequest, "missing_details", err)
	default:
		writeErrorCode(w, http.StatusInternalServerError, "storage_failure", err)
	}
}

func writeErrorCode(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func dateOrToday(s string) (circulation.Date, error) {
	if s == "" {
		return circulation.Today(), nil
	}
	return circulation.ParseDate(s)
}
