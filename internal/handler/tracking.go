package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/lavapp/api/internal/enum"
	"github.com/lavapp/api/internal/service"
)

// OrderTracker is the phone lookup behind the public tracking page.
// Satisfied by *service.OrderService.
type OrderTracker interface {
	TrackByPhone(ctx context.Context, phone string) ([]service.OrderDetail, error)
}

// TrackingHandler serves the public, unauthenticated order lookup.
type TrackingHandler struct {
	svc OrderTracker
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(svc OrderTracker) *TrackingHandler {
	return &TrackingHandler{svc: svc}
}

// RegisterRoutes registers the tracking endpoint on the given Chi router.
func (h *TrackingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tracking", h.Track)
}

// trackedOrderResponse is the public view of an order: status and schedule
// only, no prices, no customer data beyond what the caller already knows.
type trackedOrderResponse struct {
	Code         string `json:"code"`
	Status       string `json:"status"`
	StatusLabel  string `json:"status_label"`
	DeliveryType string `json:"delivery_type"`
	PickupDate   string `json:"pickup_date"`
	PickupTime   string `json:"pickup_time"`
	DeliveryDate string `json:"delivery_date"`
	DeliveryTime string `json:"delivery_time"`
	ItemCount    int32  `json:"item_count"`
}

// Track returns the orders of every customer whose phone contains the given
// digits: GET /tracking?phone=11999998888.
func (h *TrackingHandler) Track(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if len(phone) < 8 {
		writeError(w, http.StatusBadRequest, "phone must have at least 8 digits")
		return
	}

	details, err := h.svc.TrackByPhone(r.Context(), phone)
	if err != nil {
		log.Error().Err(err).Msg("track by phone")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]trackedOrderResponse, len(details))
	for i, d := range details {
		var count int32
		for _, item := range d.Items {
			count += item.Quantity
		}
		resp[i] = trackedOrderResponse{
			Code:         d.Order.Code,
			Status:       d.Order.Status,
			StatusLabel:  enum.OrderStatusLabels[d.Order.Status],
			DeliveryType: d.Order.DeliveryType,
			PickupDate:   d.Order.PickupDate.Format("2006-01-02"),
			PickupTime:   d.Order.PickupTime,
			DeliveryDate: d.Order.DeliveryDate.Format("2006-01-02"),
			DeliveryTime: d.Order.DeliveryTime,
			ItemCount:    count,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
