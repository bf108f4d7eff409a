/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external contract. Timestamps on the
  wire are epoch milliseconds, matching the mobile clients.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/trackdog111/timetrack-nz-sub001/report"
	"github.com/trackdog111/timetrack-nz-sub001/shift"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// LocationDTO is a tagged GPS fix.
type LocationDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"`
	Source    string  `json:"source,omitempty"`
}

// BreakDTO is one break within a shift.
type BreakDTO struct {
	StartTime       int64        `json:"start_time"`
	EndTime         *int64       `json:"end_time,omitempty"`
	DurationMinutes *int         `json:"duration_minutes,omitempty"`
	ManualEntry     bool         `json:"manual_entry,omitempty"`
	StartLocation   *LocationDTO `json:"start_location,omitempty"`
	EndLocation     *LocationDTO `json:"end_location,omitempty"`
}

// TravelSegmentDTO is one travel interval within a shift.
type TravelSegmentDTO struct {
	StartTime       int64        `json:"start_time"`
	EndTime         *int64       `json:"end_time,omitempty"`
	DurationMinutes *int         `json:"duration_minutes,omitempty"`
	StartLocation   *LocationDTO `json:"start_location,omitempty"`
	EndLocation     *LocationDTO `json:"end_location,omitempty"`
	AutoStarted     bool         `json:"auto_started,omitempty"`
	AutoEnded       bool         `json:"auto_ended,omitempty"`
}

// ShiftDTO is the full shift document.
type ShiftDTO struct {
	ID               string             `json:"id"`
	UserID           string             `json:"user_id"`
	ClockIn          int64              `json:"clock_in"`
	ClockOut         *int64             `json:"clock_out,omitempty"`
	Status           string             `json:"status"`
	Notes            string             `json:"notes,omitempty"`
	ClockInPhotoURL  string             `json:"clock_in_photo_url,omitempty"`
	Breaks           []BreakDTO         `json:"breaks"`
	TravelSegments   []TravelSegmentDTO `json:"travel_segments"`
	ClockInLocation  *LocationDTO       `json:"clock_in_location,omitempty"`
	ClockOutLocation *LocationDTO       `json:"clock_out_location,omitempty"`
	EditedAt         *int64             `json:"edited_at,omitempty"`
	EditedBy         string             `json:"edited_by,omitempty"`
}

// EntitlementDTO mirrors shift.EntitlementResult.
type EntitlementDTO struct {
	PaidBreaks      int `json:"paid_breaks"`
	UnpaidBreaks    int `json:"unpaid_breaks"`
	PaidMinutes     int `json:"paid_minutes"`
	UnpaidMinutes   int `json:"unpaid_minutes"`
	PaidRestMinutes int `json:"paid_rest_minutes"`
}

// AllocationDTO mirrors shift.AllocationResult.
type AllocationDTO struct {
	Paid   int `json:"paid"`
	Unpaid int `json:"unpaid"`
	Total  int `json:"total"`
}

// SummaryDTO is the derived reporting view of one shift.
type SummaryDTO struct {
	ShiftID       string         `json:"shift_id"`
	UserID        string         `json:"user_id"`
	Status        string         `json:"status"`
	HoursWorked   string         `json:"hours_worked"`
	BreakMinutes  int            `json:"break_minutes"`
	TravelMinutes int            `json:"travel_minutes"`
	Entitlement   EntitlementDTO `json:"entitlement"`
	Allocation    AllocationDTO  `json:"allocation"`
}

// WeekSummaryDTO aggregates shift summaries over a window.
type WeekSummaryDTO struct {
	UserID        string       `json:"user_id"`
	From          int64        `json:"from"`
	To            int64        `json:"to"`
	Shifts        []SummaryDTO `json:"shifts"`
	TotalHours    string       `json:"total_hours"`
	PaidMinutes   int          `json:"paid_minutes"`
	UnpaidMinutes int          `json:"unpaid_minutes"`
	TravelMinutes int          `json:"travel_minutes"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ClockInRequest opens a shift.
type ClockInRequest struct {
	UserID string `json:"user_id"`
	// Optional verification photo, attached asynchronously after the
	// clock-in completes.
	PhotoURL string `json:"photo_url,omitempty"`
}

// ClockOutRequest finalizes the user's active shift.
type ClockOutRequest struct {
	UserID string `json:"user_id"`
	Notes  string `json:"notes,omitempty"`
}

// UserRequest identifies the acting user for break/travel toggles.
type UserRequest struct {
	UserID string `json:"user_id"`
}

// ManualBreakRequest records an already-closed break.
type ManualBreakRequest struct {
	UserID          string `json:"user_id"`
	DurationMinutes int    `json:"duration_minutes"`
}

// LocationReportRequest is a GPS sample pushed by a client while its
// user is on an active shift. Timestamp is epoch milliseconds.
type LocationReportRequest struct {
	UserID    string  `json:"user_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"`
}

// AutoTravelRequest toggles GPS auto-travel detection.
type AutoTravelRequest struct {
	UserID  string `json:"user_id"`
	Enabled bool   `json:"enabled"`
}

// CreateShiftRequest records a completed historical shift.
type CreateShiftRequest struct {
	UserID   string `json:"user_id"`
	ClockIn  int64  `json:"clock_in"`
	ClockOut int64  `json:"clock_out"`
	Notes    string `json:"notes,omitempty"`
}

// EditTimesRequest corrects clock-in/out times.
type EditTimesRequest struct {
	ClockIn  int64  `json:"clock_in"`
	ClockOut int64  `json:"clock_out"`
	EditedBy string `json:"edited_by"`
}

// AddEntryRequest appends a historical break or travel entry.
type AddEntryRequest struct {
	Start           int64  `json:"start"`
	DurationMinutes int    `json:"duration_minutes"`
	EditedBy        string `json:"edited_by"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toLocationDTO(l *shift.Location) *LocationDTO {
	if l == nil {
		return nil
	}
	return &LocationDTO{
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		Accuracy:  l.Accuracy,
		Timestamp: l.Timestamp.UnixMilli(),
		Source:    string(l.Source),
	}
}

func toShiftDTO(s *shift.Shift) ShiftDTO {
	dto := ShiftDTO{
		ID:               s.ID,
		UserID:           s.UserID,
		ClockIn:          s.ClockIn.UnixMilli(),
		Status:           string(s.Status),
		Notes:            s.Notes,
		ClockInPhotoURL:  s.ClockInPhotoURL,
		Breaks:           make([]BreakDTO, len(s.Breaks)),
		TravelSegments:   make([]TravelSegmentDTO, len(s.TravelSegments)),
		ClockInLocation:  toLocationDTO(s.ClockInLocation),
		ClockOutLocation: toLocationDTO(s.ClockOutLocation),
		EditedBy:         s.EditedBy,
	}
	dto.ClockOut = msOrNil(s.ClockOut)
	dto.EditedAt = msOrNil(s.EditedAt)

	for i, b := range s.Breaks {
		dto.Breaks[i] = BreakDTO{
			StartTime:       b.StartTime.UnixMilli(),
			EndTime:         msOrNil(b.EndTime),
			DurationMinutes: b.DurationMinutes,
			ManualEntry:     b.ManualEntry,
			StartLocation:   toLocationDTO(b.StartLocation),
			EndLocation:     toLocationDTO(b.EndLocation),
		}
	}
	for i, t := range s.TravelSegments {
		dto.TravelSegments[i] = TravelSegmentDTO{
			StartTime:       t.StartTime.UnixMilli(),
			EndTime:         msOrNil(t.EndTime),
			DurationMinutes: t.DurationMinutes,
			StartLocation:   toLocationDTO(t.StartLocation),
			EndLocation:     toLocationDTO(t.EndLocation),
			AutoStarted:     t.AutoStarted,
			AutoEnded:       t.AutoEnded,
		}
	}
	return dto
}

func toSummaryDTO(s report.Summary) SummaryDTO {
	return SummaryDTO{
		ShiftID:       s.ShiftID,
		UserID:        s.UserID,
		Status:        string(s.Status),
		HoursWorked:   s.HoursWorked.StringFixed(2),
		BreakMinutes:  s.BreakMinutes,
		TravelMinutes: s.TravelMinutes,
		Entitlement: EntitlementDTO{
			PaidBreaks:      s.Entitlement.PaidBreaks,
			UnpaidBreaks:    s.Entitlement.UnpaidBreaks,
			PaidMinutes:     s.Entitlement.PaidMinutes,
			UnpaidMinutes:   s.Entitlement.UnpaidMinutes,
			PaidRestMinutes: s.Entitlement.PaidRestMinutes,
		},
		Allocation: AllocationDTO{
			Paid:   s.Allocation.Paid,
			Unpaid: s.Allocation.Unpaid,
			Total:  s.Allocation.Total,
		},
	}
}

func toWeekSummaryDTO(w report.WeekSummary) WeekSummaryDTO {
	dto := WeekSummaryDTO{
		UserID:        w.UserID,
		From:          w.From.UnixMilli(),
		To:            w.To.UnixMilli(),
		Shifts:        make([]SummaryDTO, len(w.Shifts)),
		TotalHours:    w.TotalHours.StringFixed(2),
		PaidMinutes:   w.PaidMinutes,
		UnpaidMinutes: w.UnpaidMinutes,
		TravelMinutes: w.TravelMinutes,
	}
	for i, s := range w.Shifts {
		dto.Shifts[i] = toSummaryDTO(s)
	}
	return dto
}

func msOrNil(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}
