package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/lavapp/api/internal/database"
	"github.com/lavapp/api/internal/enum"
)

// ReportStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries.
type ReportStore interface {
	GetFinancialSummary(ctx context.Context, arg database.GetFinancialSummaryParams) (database.GetFinancialSummaryRow, error)
	GetPaymentMethodSummary(ctx context.Context, arg database.GetPaymentMethodSummaryParams) ([]database.GetPaymentMethodSummaryRow, error)
	GetRevenueSeries(ctx context.Context, arg database.GetRevenueSeriesParams) ([]database.GetRevenueSeriesRow, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
}

// ReportHandler handles financial reporting endpoints.
type ReportHandler struct {
	store ReportStore
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(store ReportStore) *ReportHandler {
	return &ReportHandler{store: store}
}

// RegisterRoutes registers report endpoints on the given Chi router.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/summary", h.Summary)
	r.Get("/revenue", h.Revenue)
	r.Get("/export", h.Export)
}

// --- Response types ---

type paymentMethodSummary struct {
	PaymentMethod string `json:"payment_method"`
	OrderCount    int64  `json:"order_count"`
	TotalAmount   string `json:"total_amount"`
}

type summaryResponse struct {
	TotalOrders     int64                  `json:"total_orders"`
	PaidOrders      int64                  `json:"paid_orders"`
	TotalRevenue    string                 `json:"total_revenue"`
	PaidRevenue     string                 `json:"paid_revenue"`
	UnpaidRevenue   string                 `json:"unpaid_revenue"`
	PaymentRate     string                 `json:"payment_rate"`
	ByPaymentMethod []paymentMethodSummary `json:"by_payment_method"`
}

type revenueBucketResponse struct {
	Bucket       string `json:"bucket"`
	OrderCount   int64  `json:"order_count"`
	TotalRevenue string `json:"total_revenue"`
	PaidRevenue  string `json:"paid_revenue"`
}

// parseReportRange reads start_date/end_date (both YYYY-MM-DD, end inclusive)
// and returns a half-open [start, end) pair, defaulting to the last 30 days.
func parseReportRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -30)
	end := now.AddDate(0, 0, 1)

	if s := r.URL.Query().Get("start_date"); s != "" {
		v, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date")
		}
		start = v
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		v, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date")
		}
		end = v.AddDate(0, 0, 1)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date must not be before start_date")
	}
	return start, end, nil
}

// --- Handlers ---

// Summary returns the aggregate financial picture for a period.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseReportRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	row, err := h.store.GetFinancialSummary(r.Context(), database.GetFinancialSummaryParams{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		log.Error().Err(err).Msg("financial summary")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	byMethod, err := h.store.GetPaymentMethodSummary(r.Context(), database.GetPaymentMethodSummaryParams{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		log.Error().Err(err).Msg("payment method summary")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := summaryResponse{
		TotalOrders:     row.TotalOrders,
		PaidOrders:      row.PaidOrders,
		TotalRevenue:    numericToString(row.TotalRevenue),
		PaidRevenue:     numericToString(row.PaidRevenue),
		UnpaidRevenue:   numericToString(row.UnpaidRevenue),
		PaymentRate:     paymentRate(row.PaidOrders, row.TotalOrders),
		ByPaymentMethod: make([]paymentMethodSummary, len(byMethod)),
	}
	for i, m := range byMethod {
		resp.ByPaymentMethod[i] = paymentMethodSummary{
			PaymentMethod: m.PaymentMethod,
			OrderCount:    m.OrderCount,
			TotalAmount:   numericToString(m.TotalAmount),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// paymentRate returns paid/total as a percentage with one decimal, "0.0" when
// there are no orders.
func paymentRate(paid, total int64) string {
	if total == 0 {
		return "0.0"
	}
	rate := decimal.NewFromInt(paid).Div(decimal.NewFromInt(total)).Mul(decimal.NewFromInt(100))
	return rate.StringFixed(1)
}

// Revenue returns the revenue series bucketed by ?period=day|week|month.
func (h *ReportHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "day"
	}
	switch period {
	case "day", "week", "month":
	default:
		writeError(w, http.StatusBadRequest, "period must be day, week or month")
		return
	}

	start, end, err := parseReportRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.store.GetRevenueSeries(r.Context(), database.GetRevenueSeriesParams{
		Bucket:    period,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		log.Error().Err(err).Msg("revenue series")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]revenueBucketResponse, len(rows))
	for i, row := range rows {
		resp[i] = revenueBucketResponse{
			Bucket:       row.Bucket.Format("2006-01-02"),
			OrderCount:   row.OrderCount,
			TotalRevenue: numericToString(row.TotalRevenue),
			PaidRevenue:  numericToString(row.PaidRevenue),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Export streams the period's orders as an xlsx spreadsheet.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseReportRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := h.store.ListOrders(r.Context(), database.ListOrdersParams{
		StartDate: pgtype.Date{Time: start, Valid: true},
		EndDate:   pgtype.Date{Time: end.AddDate(0, 0, -1), Valid: true},
		Limit:     10000,
	})
	if err != nil {
		log.Error().Err(err).Msg("export orders")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Pedidos"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Código", "Status", "Tipo", "Data Coleta", "Data Entrega", "Pago", "Forma de Pagamento", "Total (R$)"}
	for i, hdr := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, hdr)
	}

	for i, o := range orders {
		paid := "Não"
		if o.IsPaid {
			paid = "Sim"
		}
		total, _ := numericFloat(o.Total)
		values := []any{
			o.Code,
			enum.OrderStatusLabels[o.Status],
			enum.DeliveryTypeLabels[o.DeliveryType],
			o.PickupDate.Format("02/01/2006"),
			o.DeliveryDate.Format("02/01/2006"),
			paid,
			o.PaymentMethod.String,
			total,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	if err := h.addSummarySheet(r.Context(), f, start, end); err != nil {
		log.Error().Err(err).Msg("export summary sheet")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	filename := fmt.Sprintf("pedidos_%s_%s.xlsx",
		start.Format("2006-01-02"), end.AddDate(0, 0, -1).Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := f.Write(w); err != nil {
		log.Error().Err(err).Msg("write xlsx")
	}
}

// addSummarySheet appends a "Resumo" sheet with the period totals and the
// per-payment-method breakdown.
func (h *ReportHandler) addSummarySheet(ctx context.Context, f *excelize.File, start, end time.Time) error {
	row, err := h.store.GetFinancialSummary(ctx, database.GetFinancialSummaryParams{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return err
	}
	byMethod, err := h.store.GetPaymentMethodSummary(ctx, database.GetPaymentMethodSummaryParams{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return err
	}

	const sheet = "Resumo"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	totalRevenue, _ := numericFloat(row.TotalRevenue)
	paidRevenue, _ := numericFloat(row.PaidRevenue)
	unpaidRevenue, _ := numericFloat(row.UnpaidRevenue)

	lines := [][]any{
		{"Período", fmt.Sprintf("%s a %s", start.Format("02/01/2006"), end.AddDate(0, 0, -1).Format("02/01/2006"))},
		{"Total de Pedidos", row.TotalOrders},
		{"Pedidos Pagos", row.PaidOrders},
		{"Receita Total (R$)", totalRevenue},
		{"Receita Paga (R$)", paidRevenue},
		{"Receita Pendente (R$)", unpaidRevenue},
		{"Taxa de Pagamento (%)", paymentRate(row.PaidOrders, row.TotalOrders)},
		{},
		{"Forma de Pagamento", "Pedidos", "Total (R$)"},
	}
	for _, m := range byMethod {
		amount, _ := numericFloat(m.TotalAmount)
		lines = append(lines, []any{enum.PaymentMethodLabels[m.PaymentMethod], m.OrderCount, amount})
	}

	for i, line := range lines {
		for j, v := range line {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// numericFloat converts a NUMERIC to float64 for spreadsheet cells.
func numericFloat(n pgtype.Numeric) (float64, error) {
	v, err := n.Float64Value()
	if err != nil {
		return 0, err
	}
	return v.Float64, nil
}
