package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/lavapp/api/internal/database"
	"github.com/lavapp/api/internal/enum"
)

// DashboardStore provides the status counters shown at the top of the
// dashboard. Satisfied by *database.Queries.
type DashboardStore interface {
	CountOrdersByStatus(ctx context.Context) ([]database.OrderStatusCount, error)
}

// DashboardHandler serves the landing page summary: per-status counters and
// the pickups and deliveries scheduled for today.
type DashboardHandler struct {
	store DashboardStore
	svc   OrderService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(store DashboardStore, svc OrderService) *DashboardHandler {
	return &DashboardHandler{store: store, svc: svc}
}

// RegisterRoutes registers the dashboard endpoint on the given Chi router.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Summary)
}

type dashboardResponse struct {
	StatusCounts map[string]int64        `json:"status_counts"`
	Today        []calendarEventResponse `json:"today"`
}

// Summary returns the status counters and today's schedule.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.CountOrdersByStatus(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("count orders by status")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	statusCounts := map[string]int64{
		enum.OrderStatusReceived:  0,
		enum.OrderStatusWashing:   0,
		enum.OrderStatusReady:     0,
		enum.OrderStatusDelivered: 0,
		enum.OrderStatusCancelled: 0,
	}
	for _, c := range counts {
		statusCounts[c.Status] = c.Count
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	events, err := fetchCalendarEvents(r, h.svc, today, today)
	if err != nil {
		log.Error().Err(err).Msg("dashboard today")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		StatusCounts: statusCounts,
		Today:        toEventResponses(events, canViewPrices(r)),
	})
}
