/*
handlers.go - HTTP API handlers for the shift tracking service

PURPOSE:
  Exposes the shift lifecycle via REST. Handles HTTP request/response
  and JSON serialization; all behavior lives in the lifecycle service.

ENDPOINTS:
  Lifecycle:
    POST   /api/shifts/clock-in       Open a shift
    POST   /api/shifts/clock-out      Finalize the active shift
    POST   /api/shifts/breaks/start   Open a break
    POST   /api/shifts/breaks/end     Close the open break
    POST   /api/shifts/breaks/manual  Record a fixed-duration break
    POST   /api/shifts/travel/start   Open a travel segment
    POST   /api/shifts/travel/end     Close the open segment
    POST   /api/shifts/auto-travel    Toggle GPS auto-travel
    POST   /api/shifts/locations      Push a GPS sample

  Shifts and corrections:
    POST   /api/shifts                     Record a historical shift
    GET    /api/shifts/{id}                Get a shift
    PUT    /api/shifts/{id}/times          Edit clock-in/out times
    POST   /api/shifts/{id}/breaks         Add a break entry
    DELETE /api/shifts/{id}/breaks/{index} Remove a break by index
    POST   /api/shifts/{id}/travel         Add a travel entry
    DELETE /api/shifts/{id}/travel/{index} Remove a segment by index
    GET    /api/shifts/{id}/locations      Tagged location trail
    GET    /api/shifts/{id}/summary        Entitlement + allocation

  Users:
    GET    /api/users/{id}/active-shift    The single active shift
    GET    /api/users/{id}/summary/week    Weekly aggregate

ERROR HANDLING:
  The shift package's error taxonomy maps onto HTTP statuses:
  - 400: validation errors (bad durations, malformed bodies)
  - 404: unknown shift
  - 409: failed preconditions (already active, no active shift, notes)
  - 500: storage faults

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
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trackdog111/timetrack-nz-sub001/report"
	"github.com/trackdog111/timetrack-nz-sub001/shift"
)

// ShiftLister is the listing surface reporting needs beyond
// shift.Repository. Both stores implement it.
type ShiftLister interface {
	ListShiftsInRange(ctx context.Context, userID string, from, to time.Time) ([]*shift.Shift, error)
}

// Lifecycle is the slice of the lifecycle service the handlers use.
type Lifecycle interface {
	ClockIn(ctx context.Context, userID string) (*shift.Shift, error)
	AttachClockInPhoto(ctx context.Context, shiftID, photoURL string) error
	ClockOut(ctx context.Context, userID, notes string) (*shift.Shift, error)
	StartBreak(ctx context.Context, userID string) (*shift.Shift, error)
	EndBreak(ctx context.Context, userID string) (*shift.Shift, error)
	AddManualBreak(ctx context.Context, userID string, durationMinutes int) (*shift.Shift, error)
	StartTravel(ctx context.Context, userID string) (*shift.Shift, error)
	EndTravel(ctx context.Context, userID string) (*shift.Shift, error)
	SetAutoTravel(ctx context.Context, userID string, enabled bool) error
	ReportLocation(ctx context.Context, userID string, sample shift.Location) error
	Shift(ctx context.Context, id string) (*shift.Shift, error)
	ActiveShift(ctx context.Context, userID string) (*shift.Shift, error)
	CreateManualShift(ctx context.Context, userID string, clockIn, clockOut time.Time, notes string) (*shift.Shift, error)
	EditTimes(ctx context.Context, shiftID string, clockIn, clockOut time.Time, editedBy string) (*shift.Shift, error)
	AddBreakEntry(ctx context.Context, shiftID string, start time.Time, durationMinutes int, editedBy string) (*shift.Shift, error)
	RemoveBreak(ctx context.Context, shiftID string, index int, editedBy string) (*shift.Shift, error)
	AddTravelEntry(ctx context.Context, shiftID string, start time.Time, durationMinutes int, editedBy string) (*shift.Shift, error)
	RemoveTravel(ctx context.Context, shiftID string, index int, editedBy string) (*shift.Shift, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service         Lifecycle
	Lister          ShiftLister
	Clock           shift.Clock
	PaidRestMinutes int
}

// NewHandler creates a handler. A nil clock falls back to the system
// clock; a non-positive paid rest duration falls back to the default.
func NewHandler(service Lifecycle, lister ShiftLister, clock shift.Clock, paidRestMinutes int) *Handler {
	if clock == nil {
		clock = shift.SystemClock{}
	}
	if paidRestMinutes <= 0 {
		paidRestMinutes = shift.DefaultPaidRestMinutes
	}
	return &Handler{
		Service:         service,
		Lister:          lister,
		Clock:           clock,
		PaidRestMinutes: paidRestMinutes,
	}
}

// =============================================================================
// LIFECYCLE HANDLERS
// =============================================================================

// ClockIn opens a shift for the user.
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	var req ClockInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	sh, err := h.Service.ClockIn(r.Context(), req.UserID)
	if err != nil {
		writeDomainError(w, "Failed to clock in", err)
		return
	}

	// The verification photo never blocks the clock-in response.
	if req.PhotoURL != "" {
		go h.Service.AttachClockInPhoto(context.Background(), sh.ID, req.PhotoURL)
	}

	writeJSON(w, http.StatusCreated, toShiftDTO(sh))
}

// ClockOut finalizes the user's active shift.
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	var req ClockOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sh, err := h.Service.ClockOut(r.Context(), req.UserID, req.Notes)
	if err != nil {
		writeDomainError(w, "Failed to clock out", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(sh))
}

// StartBreak opens a break. With no active shift the toggle is a
// no-op and responds 204.
func (h *Handler) StartBreak(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.Service.StartBreak)
}

// EndBreak closes the open break; no-op semantics as StartBreak.
func (h *Handler) EndBreak(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.Service.EndBreak)
}

// StartTravel opens a travel segment; no-op semantics as StartBreak.
func (h *Handler) StartTravel(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.Service.StartTravel)
}

// EndTravel closes the open travel segment; no-op semantics as
// StartBreak.
func (h *Handler) EndTravel(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.Service.EndTravel)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (*shift.Shift, error)) {
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sh, err := op(r.Context(), req.UserID)
	if err != nil {
		writeDomainError(w, "Operation failed", err)
		return
	}
	if sh == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(sh))
}

// AddManualBreak records an already-closed break on the active shift.
func (h *Handler) AddManualBreak(w http.ResponseWriter, r *http.Request) {
	var req ManualBreakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sh, err := h.Service.AddManualBreak(r.Context(), req.UserID, req.DurationMinutes)
	if err != nil {
		writeDomainError(w, "Failed to record break", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(sh))
}

// SetAutoTravel toggles GPS auto-travel detection.
func (h *Handler) SetAutoTravel(w http.ResponseWriter, r *http.Request) {
	var req AutoTravelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Service.SetAutoTravel(r.Context(), req.UserID, req.Enabled); err != nil {
		writeDomainError(w, "Failed to toggle auto-travel", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReportLocation accepts a client-pushed GPS sample. Samples for a
// user without a running tracker respond 204 and are dropped.
func (h *Handler) ReportLocation(w http.ResponseWriter, r *http.Request) {
	var req LocationReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	sample := shift.Location{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
		Timestamp: time.UnixMilli(req.Timestamp),
		Source:    shift.SourceTracking,
	}
	if err := h.Service.ReportLocation(r.Context(), req.UserID, sample); err != nil {
		if errors.Is(err, shift.ErrNoActiveShift) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeDomainError(w, "Failed to record location", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

// CreateShift records a completed historical shift.
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req CreateShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	sh, err := h.Service.CreateManualShift(r.Context(), req.UserID,
		time.UnixMilli(req.ClockIn), time.UnixMilli(req.ClockOut), req.Notes)
	if err != nil {
		writeDomainError(w, "Failed to record shift", err)
		return
	}
	writeJSON(w, http.StatusCreated, toShiftDTO(sh))
}

// GetShift returns a shift by ID.
func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	sh, err := h.Service.Shift(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get shift", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(sh))
}

// GetActiveShift returns the user's active shift, or 404.
func (h *Handler) GetActiveShift(w http.ResponseWriter, r *http.Request) {
	sh, err := h.Service.ActiveShift(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get active shift", err)
		return
	}
	if sh == nil {
		writeError(w, http.StatusNotFound, "No active shift", nil)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(sh))
}

// EditTimes corrects a shift's clock-in/out times.
func (h *Handler) EditTimes(w http.ResponseWriter, r *http.Request) {
	var req EditTimesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sh, err := h.Service.EditTimes(r.Context(), chi.URLParam(r, "id"),
		time.UnixMilli(req.ClockIn), time.UnixMilli(req.ClockOut), req.EditedBy)
	if err != nil {
		writeDomainError(w, "Failed to edit shift times", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(sh))
}

// AddBreakEntry appends a historical break to a shift.
func (h *Handler) AddBreakEntry(w http.ResponseWriter, r *http.Request) {
	h.addEntry(w, r, h.Service.AddBreakEntry)
}

// AddTravelEntry appends a historical travel segment to a shift.
func (h *Handler) AddTravelEntry(w http.ResponseWriter, r *http.Request) {
	h.addEntry(w, r, h.Service.AddTravelEntry)
}

func (h *Handler) addEntry(w http.ResponseWriter, r *http.Request,
	op func(context.Context, string, time.Time, int, string) (*shift.Shift, error)) {
	var req AddEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sh, err := op(r.Context(), chi.URLParam(r, "id"),
		time.UnixMilli(req.Start), req.DurationMinutes, req.EditedBy)
	if err != nil {
		writeDomainError(w, "Failed to add entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(sh))
}

// RemoveBreak deletes a break by index.
func (h *Handler) RemoveBreak(w http.ResponseWriter, r *http.Request) {
	h.removeEntry(w, r, h.Service.RemoveBreak)
}

// RemoveTravel deletes a travel segment by index.
func (h *Handler) RemoveTravel(w http.ResponseWriter, r *http.Request) {
	h.removeEntry(w, r, h.Service.RemoveTravel)
}

func (h *Handler) removeEntry(w http.ResponseWriter, r *http.Request,
	op func(context.Context, string, int, string) (*shift.Shift, error)) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid index", err)
		return
	}

	sh, err := op(r.Context(), chi.URLParam(r, "id"), index, r.URL.Query().Get("edited_by"))
	if err != nil {
		writeDomainError(w, "Failed to remove entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(sh))
}

// GetLocations returns the shift's tagged location trail for map
// reconstruction.
func (h *Handler) GetLocations(w http.ResponseWriter, r *http.Request) {
	sh, err := h.Service.Shift(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get shift", err)
		return
	}

	dtos := make([]LocationDTO, len(sh.LocationHistory))
	for i := range sh.LocationHistory {
		dtos[i] = *toLocationDTO(&sh.LocationHistory[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetSummary returns entitlement and allocation for one shift.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	sh, err := h.Service.Shift(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get shift", err)
		return
	}

	sum := report.Summarize(sh, h.Clock.Now(), h.PaidRestMinutes)
	writeJSON(w, http.StatusOK, toSummaryDTO(sum))
}

// GetWeekSummary aggregates a user's shifts over seven days starting
// at ?start= (epoch ms, defaults to seven days ago).
func (h *Handler) GetWeekSummary(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	now := h.Clock.Now()

	from := now.AddDate(0, 0, -7)
	if raw := r.URL.Query().Get("start"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start (epoch ms)", err)
			return
		}
		from = time.UnixMilli(ms)
	}
	to := from.AddDate(0, 0, 7)

	shifts, err := h.Lister.ListShiftsInRange(r.Context(), userID, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list shifts", err)
		return
	}

	week := report.SummarizeWeek(userID, shifts, from, to, now, h.PaidRestMinutes)
	writeJSON(w, http.StatusOK, toWeekSummaryDTO(week))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the shift error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case shift.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case shift.IsClientError(err):
		status := http.StatusConflict
		if isValidation(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func isValidation(err error) bool {
	return errors.Is(err, shift.ErrInvalidDuration) || errors.Is(err, shift.ErrNoSuchEntry)
}
