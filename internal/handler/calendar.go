package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"

	"github.com/lavapp/api/internal/calendar"
	"github.com/lavapp/api/internal/database"
)

// CalendarHandler serves the month and week calendar projections.
type CalendarHandler struct {
	svc OrderService
}

// NewCalendarHandler creates a new CalendarHandler.
func NewCalendarHandler(svc OrderService) *CalendarHandler {
	return &CalendarHandler{svc: svc}
}

// RegisterRoutes registers calendar endpoints on the given Chi router.
func (h *CalendarHandler) RegisterRoutes(r chi.Router) {
	r.Get("/month", h.Month)
	r.Get("/week", h.Week)
}

// --- Response types ---

type calendarEventResponse struct {
	Order   orderResponse `json:"order"`
	Type    string        `json:"type"`
	Date    string        `json:"date"`
	Time    string        `json:"time"`
	Overdue bool          `json:"overdue"`
}

type calendarDayResponse struct {
	Date           string                  `json:"date"`
	Events         []calendarEventResponse `json:"events"`
	IsToday        bool                    `json:"is_today"`
	IsCurrentMonth bool                    `json:"is_current_month"`
}

type hourSlotResponse struct {
	Hour   int                     `json:"hour"`
	Events []calendarEventResponse `json:"events"`
}

type weekDayResponse struct {
	Date    string             `json:"date"`
	IsToday bool               `json:"is_today"`
	Slots   []hourSlotResponse `json:"slots"`
}

func toEventResponses(events []calendar.Event, viewPrices bool) []calendarEventResponse {
	out := make([]calendarEventResponse, len(events))
	for i, e := range events {
		out[i] = calendarEventResponse{
			Order:   toOrderResponse(e.Order, viewPrices),
			Type:    e.Type,
			Date:    e.Date.Format("2006-01-02"),
			Time:    e.Time,
			Overdue: e.Overdue,
		}
	}
	return out
}

func parseFilters(r *http.Request) calendar.Filters {
	return calendar.Filters{
		Status:        r.URL.Query().Get("status"),
		OperationType: r.URL.Query().Get("operation"),
		CustomerID:    r.URL.Query().Get("customer_id"),
	}
}

// fetchCalendarEvents loads the orders of a window and projects them. Also
// used by the dashboard for today's schedule.
func fetchCalendarEvents(r *http.Request, svc OrderService, start, end time.Time) ([]calendar.Event, error) {
	// The window caps the rows; the calendar never pages.
	details, err := svc.ListOrders(r.Context(), database.ListOrdersParams{
		StartDate: pgtype.Date{Time: start, Valid: true},
		EndDate:   pgtype.Date{Time: end, Valid: true},
		Limit:     1000,
	})
	if err != nil {
		return nil, err
	}
	return calendar.Project(details, start, end, parseFilters(r), time.Now()), nil
}

// --- Handlers ---

// Month returns the 42-cell grid for ?year=YYYY&month=M, defaulting to the
// current month.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year, month := now.Year(), now.Month()
	if s := r.URL.Query().Get("year"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = v
	}
	if s := r.URL.Query().Get("month"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > 12 {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = time.Month(v)
	}

	start, end := calendar.MonthDateRange(year, month)
	events, err := fetchCalendarEvents(r, h.svc, start, end)
	if err != nil {
		log.Error().Err(err).Msg("calendar month")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	viewPrices := canViewPrices(r)
	days := calendar.MonthGrid(year, month, events, time.Now())
	resp := make([]calendarDayResponse, len(days))
	for i, d := range days {
		resp[i] = calendarDayResponse{
			Date:           d.Date.Format("2006-01-02"),
			Events:         toEventResponses(d.Events, viewPrices),
			IsToday:        d.IsToday,
			IsCurrentMonth: d.IsCurrentMonth,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Week returns seven day columns with hour slots for ?date=YYYY-MM-DD,
// defaulting to the week containing today.
func (h *CalendarHandler) Week(w http.ResponseWriter, r *http.Request) {
	anchor := time.Now()
	if s := r.URL.Query().Get("date"); s != "" {
		v, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date")
			return
		}
		anchor = v
	}

	start := calendar.StartOfWeek(anchor)
	end := start.AddDate(0, 0, 6)
	events, err := fetchCalendarEvents(r, h.svc, start, end)
	if err != nil {
		log.Error().Err(err).Msg("calendar week")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	viewPrices := canViewPrices(r)
	days := calendar.WeekGrid(start, events, time.Now())
	resp := make([]weekDayResponse, len(days))
	for i, d := range days {
		slots := make([]hourSlotResponse, len(d.Slots))
		for j, slot := range d.Slots {
			slots[j] = hourSlotResponse{
				Hour:   slot.Hour,
				Events: toEventResponses(slot.Events, viewPrices),
			}
		}
		resp[i] = weekDayResponse{
			Date:    d.Date.Format("2006-01-02"),
			IsToday: d.IsToday,
			Slots:   slots,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
