package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lavapp/api/internal/database"
	"github.com/lavapp/api/internal/handler"
)

// --- Mock store ---

type mockReportStore struct {
	summary   database.GetFinancialSummaryRow
	byMethod  []database.GetPaymentMethodSummaryRow
	series    []database.GetRevenueSeriesRow
	orders    []database.Order
	bucket    string
	rangeFrom time.Time
	rangeTo   time.Time
}

func (m *mockReportStore) GetFinancialSummary(_ context.Context, arg database.GetFinancialSummaryParams) (database.GetFinancialSummaryRow, error) {
	m.rangeFrom, m.rangeTo = arg.StartDate, arg.EndDate
	return m.summary, nil
}

func (m *mockReportStore) GetPaymentMethodSummary(_ context.Context, _ database.GetPaymentMethodSummaryParams) ([]database.GetPaymentMethodSummaryRow, error) {
	return m.byMethod, nil
}

func (m *mockReportStore) GetRevenueSeries(_ context.Context, arg database.GetRevenueSeriesParams) ([]database.GetRevenueSeriesRow, error) {
	m.bucket = arg.Bucket
	return m.series, nil
}

func (m *mockReportStore) ListOrders(_ context.Context, _ database.ListOrdersParams) ([]database.Order, error) {
	return m.orders, nil
}

// --- Helpers ---

func setupReportRouter(store *mockReportStore) *chi.Mux {
	h := handler.NewReportHandler(store)
	r := chi.NewRouter()
	r.Route("/reports", h.RegisterRoutes)
	return r
}

func makeReportNumeric(s string) pgtype.Numeric {
	var n pgtype.Numeric
	n.Scan(s)
	return n
}

// --- Tests ---

func TestReportSummary(t *testing.T) {
	store := &mockReportStore{
		summary: database.GetFinancialSummaryRow{
			TotalOrders:   8,
			PaidOrders:    6,
			TotalRevenue:  makeReportNumeric("400.00"),
			PaidRevenue:   makeReportNumeric("300.00"),
			UnpaidRevenue: makeReportNumeric("100.00"),
		},
		byMethod: []database.GetPaymentMethodSummaryRow{
			{PaymentMethod: "PIX", OrderCount: 4, TotalAmount: makeReportNumeric("200.00")},
			{PaymentMethod: "CASH", OrderCount: 2, TotalAmount: makeReportNumeric("100.00")},
		},
	}
	router := setupReportRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/reports/summary?start_date=2026-06-01&end_date=2026-06-30", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["total_revenue"] != "400.00" {
		t.Errorf("total_revenue: got %v, want 400.00", resp["total_revenue"])
	}
	if resp["payment_rate"] != "75.0" {
		t.Errorf("payment_rate: got %v, want 75.0", resp["payment_rate"])
	}
	byMethod := resp["by_payment_method"].([]interface{})
	if len(byMethod) != 2 {
		t.Fatalf("expected 2 payment methods, got %d", len(byMethod))
	}
	first := byMethod[0].(map[string]interface{})
	if first["payment_method"] != "PIX" || first["total_amount"] != "200.00" {
		t.Errorf("unexpected first method row: %v", first)
	}

	// end_date is inclusive in the API, exclusive in the query.
	if store.rangeTo.Format("2006-01-02") != "2026-07-01" {
		t.Errorf("query end: got %s, want 2026-07-01", store.rangeTo.Format("2006-01-02"))
	}
}

func TestReportSummaryNoOrders(t *testing.T) {
	router := setupReportRouter(&mockReportStore{})

	req := httptest.NewRequest(http.MethodGet, "/reports/summary", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	resp := decodeResponse(t, rr)
	if resp["payment_rate"] != "0.0" {
		t.Errorf("payment_rate: got %v, want 0.0", resp["payment_rate"])
	}
	if resp["total_revenue"] != "0.00" {
		t.Errorf("total_revenue: got %v, want 0.00", resp["total_revenue"])
	}
}

func TestReportSummaryBadRange(t *testing.T) {
	router := setupReportRouter(&mockReportStore{})

	req := httptest.NewRequest(http.MethodGet, "/reports/summary?start_date=2026-06-30&end_date=2026-06-01", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestReportRevenue(t *testing.T) {
	store := &mockReportStore{
		series: []database.GetRevenueSeriesRow{
			{
				Bucket:       time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
				OrderCount:   3,
				TotalRevenue: makeReportNumeric("150.00"),
				PaidRevenue:  makeReportNumeric("100.00"),
			},
		},
	}
	router := setupReportRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/reports/revenue?period=week&start_date=2026-06-01&end_date=2026-06-30", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", rr.Code, rr.Body.String())
	}
	if store.bucket != "week" {
		t.Errorf("bucket: got %s, want week", store.bucket)
	}

	resp := decodeListResponse(t, rr)
	if len(resp) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(resp))
	}
	if resp[0]["bucket"] != "2026-06-01" {
		t.Errorf("bucket date: got %v, want 2026-06-01", resp[0]["bucket"])
	}
	if resp[0]["total_revenue"] != "150.00" {
		t.Errorf("total_revenue: got %v, want 150.00", resp[0]["total_revenue"])
	}
}

func TestReportRevenueInvalidPeriod(t *testing.T) {
	router := setupReportRouter(&mockReportStore{})

	req := httptest.NewRequest(http.MethodGet, "/reports/revenue?period=year", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestReportExport(t *testing.T) {
	store := &mockReportStore{
		orders: []database.Order{{
			Code:         "LAV-0001",
			Status:       "DELIVERED",
			DeliveryType: "PICKUP",
			Total:        makeReportNumeric("50.00"),
			PickupDate:   time.Date(2026, 6, 8, 0, 0, 0, 0, time.UTC),
			DeliveryDate: time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC),
			IsPaid:       true,
		}},
		summary: database.GetFinancialSummaryRow{
			TotalOrders:  1,
			PaidOrders:   1,
			TotalRevenue: makeReportNumeric("50.00"),
			PaidRevenue:  makeReportNumeric("50.00"),
		},
	}
	router := setupReportRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/reports/export?start_date=2026-06-01&end_date=2026-06-30", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("unexpected content type %q", ct)
	}
	cd := rr.Header().Get("Content-Disposition")
	if cd != `attachment; filename="pedidos_2026-06-01_2026-06-30.xlsx"` {
		t.Errorf("unexpected content disposition %q", cd)
	}
	if rr.Body.Len() == 0 {
		t.Error("expected a non-empty spreadsheet body")
	}
}
