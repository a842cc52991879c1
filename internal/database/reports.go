package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type GetFinancialSummaryParams struct {
	StartDate time.Time
	EndDate   time.Time
}

type GetFinancialSummaryRow struct {
	TotalOrders   int64
	PaidOrders    int64
	TotalRevenue  pgtype.Numeric
	PaidRevenue   pgtype.Numeric
	UnpaidRevenue pgtype.Numeric
}

// GetFinancialSummary aggregates revenue over orders created in
// [StartDate, EndDate). EndDate is exclusive.
func (q *Queries) GetFinancialSummary(ctx context.Context, arg GetFinancialSummaryParams) (GetFinancialSummaryRow, error) {
	var row GetFinancialSummaryRow
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE is_paid),
			COALESCE(SUM(total), 0),
			COALESCE(SUM(total) FILTER (WHERE is_paid), 0),
			COALESCE(SUM(total) FILTER (WHERE NOT is_paid), 0)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2`,
		arg.StartDate, arg.EndDate).
		Scan(&row.TotalOrders, &row.PaidOrders, &row.TotalRevenue, &row.PaidRevenue, &row.UnpaidRevenue)
	return row, err
}

type GetPaymentMethodSummaryParams struct {
	StartDate time.Time
	EndDate   time.Time
}

type GetPaymentMethodSummaryRow struct {
	PaymentMethod string
	OrderCount    int64
	TotalAmount   pgtype.Numeric
}

// GetPaymentMethodSummary breaks revenue down by payment method. Orders with
// no payment method recorded are excluded.
func (q *Queries) GetPaymentMethodSummary(ctx context.Context, arg GetPaymentMethodSummaryParams) ([]GetPaymentMethodSummaryRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT payment_method, COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2 AND payment_method IS NOT NULL
		GROUP BY payment_method
		ORDER BY payment_method`,
		arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []GetPaymentMethodSummaryRow
	for rows.Next() {
		var r GetPaymentMethodSummaryRow
		if err := rows.Scan(&r.PaymentMethod, &r.OrderCount, &r.TotalAmount); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

type GetRevenueSeriesParams struct {
	Bucket    string // day, week, or month; passed to date_trunc
	StartDate time.Time
	EndDate   time.Time
}

type GetRevenueSeriesRow struct {
	Bucket       time.Time
	OrderCount   int64
	TotalRevenue pgtype.Numeric
	PaidRevenue  pgtype.Numeric
}

// GetRevenueSeries returns per-bucket revenue over orders created in
// [StartDate, EndDate), bucketed by date_trunc.
func (q *Queries) GetRevenueSeries(ctx context.Context, arg GetRevenueSeriesParams) ([]GetRevenueSeriesRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT date_trunc($1, created_at) AS bucket,
			COUNT(*),
			COALESCE(SUM(total), 0),
			COALESCE(SUM(total) FILTER (WHERE is_paid), 0)
		FROM orders
		WHERE created_at >= $2 AND created_at < $3
		GROUP BY bucket
		ORDER BY bucket`,
		arg.Bucket, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []GetRevenueSeriesRow
	for rows.Next() {
		var r GetRevenueSeriesRow
		if err := rows.Scan(&r.Bucket, &r.OrderCount, &r.TotalRevenue, &r.PaidRevenue); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
