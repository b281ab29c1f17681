package appointments

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dhermica-backend/internal/cache"
	"dhermica-backend/internal/httpx"
	"dhermica-backend/internal/middleware"
	"dhermica-backend/internal/transport"
	"dhermica-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
	val     *validation.Validator
	cache   cache.Cache
	log     *slog.Logger
}

func NewHandler(service *Service, val *validation.Validator, c cache.Cache, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		val:     val,
		cache:   c,
		log:     log,
	}
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}

type CreateRequest struct {
	ClientName     string  `json:"clientName"`
	ClientID       string  `json:"clientId"`
	Treatment      string  `json:"treatment"`
	Date           string  `json:"date" validate:"omitempty,date"`
	Time           string  `json:"time" validate:"omitempty,clock"`
	Duration       float64 `json:"duration" validate:"omitempty,halfhour"`
	ProfessionalID string  `json:"professionalId"`
	Notes          string  `json:"notes"`
	Price          float64 `json:"price" validate:"gte=0"`
	PaymentMethod  string  `json:"paymentMethod"`
	IsPaid         bool    `json:"isPaid"`
}

// writeServiceError maps the error taxonomy onto the wire: validation
// lists are 422 structured data, conflicts 409, everything else a generic
// 500.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		log.Warn(op+": validation error", slog.Int("violations", len(vErr.Messages)))
		transport.WriteValidationMessages(w, vErr.Messages)
		return
	}
	var cErr *ConflictError
	if errors.As(err, &cErr) {
		log.Warn(op+": slot conflict", slog.String("date", cErr.Date), slog.String("time", cErr.Time))
		transport.WriteError(w, http.StatusConflict, "slot overlaps an existing appointment", nil)
		return
	}
	log.Error(op+": database error", slog.String("error", err.Error()))
	transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
}

func (h *Handler) invalidateSchedule(ctx context.Context, dates ...string) {
	for _, date := range dates {
		if date == "" {
			continue
		}
		_ = h.cache.DeletePrefix(ctx, "schedule:"+date)
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("appointments create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("appointments create: malformed fields")
		details := httpx.ValidationDetails(h.val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	item := Appointment{
		ClientName:     strings.TrimSpace(req.ClientName),
		ClientID:       strings.TrimSpace(req.ClientID),
		Treatment:      strings.TrimSpace(req.Treatment),
		Date:           req.Date,
		Time:           req.Time,
		Duration:       req.Duration,
		ProfessionalID: strings.TrimSpace(req.ProfessionalID),
		Notes:          req.Notes,
		Price:          req.Price,
		PaymentMethod:  req.PaymentMethod,
		IsPaid:         req.IsPaid,
	}

	id, err := h.service.Create(ctx, item)
	if err != nil {
		writeServiceError(w, log, "appointments create", err)
		return
	}

	h.invalidateSchedule(r.Context(), req.Date)

	log.Info("appointments create: booked",
		slog.String("appointment_id", id),
		slog.String("date", req.Date),
		slog.String("time", req.Time),
	)
	transport.WriteJSON(w, http.StatusCreated, map[string]interface{}{"id": id})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	var patch Patch
	if err := httpx.DecodeJSON(r.Body, &patch); err != nil {
		log.Warn("appointments update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(patch); err != nil {
		log.Warn("appointments update: malformed fields")
		details := httpx.ValidationDetails(h.val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	// Read before the write so a date move invalidates the day the
	// appointment leaves as well as the one it lands on.
	existing, _ := h.service.GetByID(ctx, id)

	if err := h.service.Update(ctx, id, patch); err != nil {
		writeServiceError(w, log, "appointments update", err)
		return
	}

	dates := []string{}
	if existing != nil {
		dates = append(dates, existing.Date)
	}
	if patch.Date != nil && (existing == nil || *patch.Date != existing.Date) {
		dates = append(dates, *patch.Date)
	}
	h.invalidateSchedule(r.Context(), dates...)

	log.Info("appointments update: ok", slog.String("appointment_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"updated": true})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	existing, _ := h.service.GetByID(ctx, id)

	if err := h.service.Delete(ctx, id); err != nil {
		writeServiceError(w, log, "appointments delete", err)
		return
	}

	if existing != nil {
		h.invalidateSchedule(r.Context(), existing.Date)
	}

	log.Info("appointments delete: ok", slog.String("appointment_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.GetByID(ctx, id)
	if err != nil {
		writeServiceError(w, log, "appointments get", err)
		return
	}
	if item == nil {
		log.Warn("appointments get: not found", slog.String("appointment_id", id))
		transport.WriteError(w, http.StatusNotFound, "appointment not found", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, item)
}

type rangeQuery struct {
	From string `validate:"required,date"`
	To   string `validate:"required,date"`
}

func (h *Handler) ListByRange(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	q := rangeQuery{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}
	if err := h.val.Struct(q); err != nil {
		log.Warn("appointments range: invalid query")
		details := httpx.ValidationDetails(h.val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "invalid query", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, err := h.service.GetByDateRange(ctx, q.From, q.To)
	if err != nil {
		writeServiceError(w, log, "appointments range", err)
		return
	}

	log.Info("appointments range: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

type searchQueryParams struct {
	Term string `validate:"required,min=2"`
	Date string `validate:"omitempty,date"`
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	q := searchQueryParams{
		Term: strings.TrimSpace(r.URL.Query().Get("q")),
		Date: r.URL.Query().Get("date"),
	}
	if err := h.val.Struct(q); err != nil {
		log.Warn("appointments search: invalid query")
		details := httpx.ValidationDetails(h.val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "invalid query", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, err := h.service.Search(ctx, q.Term, q.Date)
	if err != nil {
		writeServiceError(w, log, "appointments search", err)
		return
	}

	log.Info("appointments search: ok", slog.String("term", q.Term), slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

