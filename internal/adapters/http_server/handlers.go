package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"staycal/internal/app"
	"staycal/internal/domain"
)

type Handlers struct {
	Avail    *app.AvailabilityService
	Quote    *app.QuoteService
	Bookings *app.BookingService
	Listings *app.ListingService

	// BookingRPS/BookingBurst bound booking-creation throughput.
	BookingRPS   float64
	BookingBurst int
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/room-types/{id}/availability", h.getAvailability)
	s.mux.Get("/v1/room-types/{id}/quote", h.getQuote)
	s.mux.Group(func(r chi.Router) {
		if h.BookingRPS > 0 {
			r.Use(RateLimit(h.BookingRPS, h.BookingBurst))
		}
		r.Post("/v1/bookings", h.createBooking)
	})
	s.mux.Post("/v1/bookings/{id}/confirm", h.confirmBooking)
	s.mux.Post("/v1/bookings/{id}/cancel", h.cancelBooking)
	s.mux.Post("/v1/listings/{id}/publish", h.publishListing)
	s.mux.Post("/v1/listings/{id}/unpublish", h.unpublishListing)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeDomainErr maps the engine's typed errors onto HTTP statuses.
func writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrInvalidRange):
		writeProblem(w, http.StatusBadRequest, "Invalid Range", err.Error())
	case errors.Is(err, domain.ErrBlockedDateConflict),
		errors.Is(err, domain.ErrOverlapConflict),
		errors.Is(err, domain.ErrActiveBookingsExist),
		errors.Is(err, domain.ErrInvalidTransition):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, domain.ErrIncompleteListing),
		errors.Is(err, domain.ErrListingNotPublished),
		errors.Is(err, domain.ErrUnitUnavailable),
		errors.Is(err, domain.ErrMissingBasePrice):
		writeProblem(w, http.StatusUnprocessableEntity, "Unprocessable", err.Error())
	default:
		log.Error().Err(err).Msg("internal error")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", s)
	return t, err == nil
}

type availabilityDay struct {
	Date        string       `json:"date"`
	NightlyRate domain.Cents `json:"nightly_rate_cents"`
	MinStay     int          `json:"min_stay"`
	IsBlocked   bool         `json:"is_blocked"`
}

func (h *Handlers) getAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	start, ok1 := parseDate(r.URL.Query().Get("start"))
	end, ok2 := parseDate(r.URL.Query().Get("end"))
	if !ok1 || !ok2 || end.Before(start) {
		writeProblem(w, http.StatusBadRequest, "Invalid Dates", "start and end must be YYYY-MM-DD with end >= start")
		return
	}

	entries, err := h.Avail.GetAvailability(r.Context(), id, start, end)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]availabilityDay, 0, len(entries))
	for _, e := range entries {
		out = append(out, availabilityDay{
			Date:        e.Date.Format("2006-01-02"),
			NightlyRate: e.NightlyRateCents,
			MinStay:     e.MinStay,
			IsBlocked:   e.IsBlocked,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) getQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	in, ok1 := parseDate(r.URL.Query().Get("check_in"))
	out, ok2 := parseDate(r.URL.Query().Get("check_out"))
	if !ok1 || !ok2 {
		writeProblem(w, http.StatusBadRequest, "Invalid Dates", "check_in and check_out must be YYYY-MM-DD")
		return
	}

	q, err := h.Quote.Quote(r.Context(), id, in, out)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type createBookingRequest struct {
	UnitID     int64  `json:"unit_id"`
	GuestID    string `json:"guest_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	GuestCount int    `json:"guest_count"`
}

type bookingResponse struct {
	ID            string `json:"id"`
	UnitID        int64  `json:"unit_id"`
	RoomTypeID    int64  `json:"room_type_id"`
	GuestID       string `json:"guest_id"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	GuestCount    int    `json:"guest_count"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

func toBookingResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:            b.ID,
		UnitID:        b.UnitID,
		RoomTypeID:    b.RoomTypeID,
		GuestID:       b.GuestID,
		CheckIn:       b.CheckIn.Format("2006-01-02"),
		CheckOut:      b.CheckOut.Format("2006-01-02"),
		GuestCount:    b.GuestCount,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
	}
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	in, ok1 := parseDate(req.CheckIn)
	out, ok2 := parseDate(req.CheckOut)
	if !ok1 || !ok2 {
		writeProblem(w, http.StatusBadRequest, "Invalid Dates", "check_in and check_out must be YYYY-MM-DD")
		return
	}
	if req.GuestID == "" || req.GuestCount <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "guest_id and positive guest_count required")
		return
	}

	b, err := h.Bookings.Create(r.Context(), app.CreateBookingParams{
		UnitID:     req.UnitID,
		GuestID:    req.GuestID,
		CheckIn:    in,
		CheckOut:   out,
		GuestCount: req.GuestCount,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(b))
}

func (h *Handlers) confirmBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Bookings.Confirm(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(domain.BookingConfirmed)})
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Bookings.Cancel(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(domain.BookingCancelled)})
}

func (h *Handlers) publishListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if err := h.Listings.Publish(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.ListingPublished)})
}

type unpublishRequest struct {
	TargetStatus string `json:"target_status"`
}

func (h *Handlers) unpublishListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	target := domain.ListingDraft
	var req unpublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.TargetStatus != "" {
		target = domain.ListingStatus(req.TargetStatus)
	}
	switch target {
	case domain.ListingDraft, domain.ListingPendingReview, domain.ListingArchived:
	default:
		writeProblem(w, http.StatusBadRequest, "Invalid Status", "target_status must be draft, pending_review or archived")
		return
	}
	if err := h.Listings.Unpublish(r.Context(), id, target); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(target)})
}
