package grid

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"dhermica-backend/internal/appointments"
	"dhermica-backend/internal/cache"
	"dhermica-backend/internal/httpx"
	"dhermica-backend/internal/middleware"
	"dhermica-backend/internal/professionals"
	"dhermica-backend/internal/transport"
	"dhermica-backend/internal/validation"
)

type Handler struct {
	service   *appointments.Service
	directory professionals.Directory
	val       *validation.Validator
	cache     cache.Cache
	log       *slog.Logger
	cacheTTL  time.Duration
}

func NewHandler(service *appointments.Service, directory professionals.Directory, val *validation.Validator, c cache.Cache, log *slog.Logger, cacheTTL time.Duration) *Handler {
	return &Handler{
		service:   service,
		directory: directory,
		val:       val,
		cache:     c,
		log:       log,
		cacheTTL:  cacheTTL,
	}
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}

type dayQuery struct {
	Date string `validate:"required,date"`
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	q := dayQuery{Date: r.URL.Query().Get("date")}
	if err := h.val.Struct(q); err != nil {
		log.Warn("schedule: invalid query")
		details := httpx.ValidationDetails(h.val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "invalid query", details)
		return
	}

	cacheKey := "schedule:" + q.Date
	if cached, ok, err := h.cache.Get(r.Context(), cacheKey); err == nil && ok {
		log.Info("schedule: cache hit", slog.String("date", q.Date))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(cached)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	pros, err := h.directory.List(ctx, true)
	if err != nil {
		log.Error("schedule: directory error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	items, err := h.service.GetDay(ctx, q.Date)
	if err != nil {
		log.Error("schedule: day read error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	day := Build(q.Date, pros, items)

	if payload, err := json.Marshal(day); err == nil {
		_ = h.cache.Set(r.Context(), cacheKey, payload, h.cacheTTL)
	}

	log.Info("schedule: ok", slog.String("date", q.Date), slog.Int("appointments", len(items)))
	transport.WriteJSON(w, http.StatusOK, day)
}

// StreamSchedule serves the realtime day feed over SSE. Every event
// carries the complete merged appointment list for the date, never a
// diff; closing the request tears down every underlying feed.
func (h *Handler) StreamSchedule(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	q := dayQuery{Date: r.URL.Query().Get("date")}
	if err := h.val.Struct(q); err != nil {
		log.Warn("schedule stream: invalid query")
		transport.WriteError(w, http.StatusBadRequest, "invalid query", nil)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		transport.WriteError(w, http.StatusInternalServerError, "streaming unsupported", nil)
		return
	}

	events := make(chan []appointments.Appointment, 1)
	unsubscribe, err := h.service.SubscribeByDate(r.Context(), q.Date, func(items []appointments.Appointment) {
		// Replace any pending event; only the latest snapshot matters.
		// The send must never block: teardown waits on every feed
		// goroutine, so a producer stuck here after the client went
		// away would wedge unsubscribe and leak the whole stream.
		for {
			select {
			case events <- items:
				return
			case <-r.Context().Done():
				return
			default:
			}
			select {
			case <-events:
			default:
			}
		}
	})
	if err != nil {
		log.Error("schedule stream: subscribe failed", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "subscribe failed", nil)
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log.Info("schedule stream: open", slog.String("date", q.Date))

	for {
		select {
		case <-r.Context().Done():
			log.Info("schedule stream: closed", slog.String("date", q.Date))
			return
		case items := <-events:
			payload, err := json.Marshal(map[string]interface{}{
				"date":  q.Date,
				"items": items,
			})
			if err != nil {
				continue
			}
			if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
