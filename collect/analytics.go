package collect

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// AnalyticsSource is the key under which analytics results are stored.
const AnalyticsSource = "analytics_store"

// DefaultWindowDays is the trailing window used when no period is given.
const DefaultWindowDays = 30

// Analytics collects order counts, revenue, and top products from the sales
// database over a trailing time window.
//
// Works against any database/sql driver whose dialect supports the ANSI
// subset used here (tested with SQLite and MySQL). A failed or empty query
// degrades to zero values.
type Analytics struct {
	db         *sql.DB
	windowDays int
	logger     *slog.Logger
}

// NewAnalytics creates the analytics collector. windowDays <= 0 selects
// DefaultWindowDays; a nil logger selects slog.Default().
func NewAnalytics(db *sql.DB, windowDays int, logger *slog.Logger) *Analytics {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{db: db, windowDays: windowDays, logger: logger}
}

// Name implements Collector.
func (a *Analytics) Name() string {
	return AnalyticsSource
}

// Collect queries order count, revenue, and the top five products for the
// trailing window. params["period"] selects the window ("last_7_days",
// "last_30_days", "last_90_days", "last_365_days"); anything else falls back
// to the configured default.
func (a *Analytics) Collect(ctx context.Context, _ string, params map[string]any) Result {
	days := a.windowDays
	if period, ok := params["period"].(string); ok {
		if parsed := parsePeriodDays(period); parsed > 0 {
			days = parsed
		}
	}
	since := time.Now().AddDate(0, 0, -days)

	zero := map[string]any{
		"orders":       0,
		"revenue":      0.0,
		"top_products": []map[string]any{},
		"window_days":  days,
	}

	if a.db == nil {
		return emptyResult(AnalyticsSource, "analytics store unavailable", zero)
	}

	orders, revenue, err := a.queryTotals(ctx, since)
	if err != nil {
		a.logger.Warn("analytics totals query failed", "error", err)
		return emptyResult(AnalyticsSource, "analytics store unavailable", zero)
	}

	topProducts, err := a.queryTopProducts(ctx, since)
	if err != nil {
		a.logger.Warn("analytics top products query failed", "error", err)
		topProducts = []map[string]any{}
	}

	fields := map[string]any{
		"orders":       orders,
		"revenue":      revenue,
		"top_products": topProducts,
		"window_days":  days,
	}

	if orders == 0 && len(topProducts) == 0 {
		return emptyResult(AnalyticsSource, fmt.Sprintf("no sales recorded in the last %d days", days), fields)
	}

	var names []string
	for _, p := range topProducts {
		if name, ok := p["product"].(string); ok {
			names = append(names, name)
		}
	}
	summary := fmt.Sprintf("%d orders totaling $%.2f in the last %d days", orders, revenue, days)
	if len(names) > 0 {
		summary += "; top products: " + strings.Join(names, ", ")
	}

	return Result{Source: AnalyticsSource, Summary: summary, Fields: fields}
}

func (a *Analytics) queryTotals(ctx context.Context, since time.Time) (int, float64, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		WHERE created_at >= ?
	`
	var orders int
	var revenue float64
	if err := a.db.QueryRowContext(ctx, query, since).Scan(&orders, &revenue); err != nil {
		return 0, 0, err
	}
	return orders, revenue, nil
}

func (a *Analytics) queryTopProducts(ctx context.Context, since time.Time) ([]map[string]any, error) {
	query := `
		SELECT oi.product_name, SUM(oi.quantity) AS units, COALESCE(SUM(oi.subtotal), 0) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.created_at >= ?
		GROUP BY oi.product_name
		ORDER BY units DESC
		LIMIT 5
	`
	rows, err := a.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []map[string]any{}
	for rows.Next() {
		var name string
		var units int
		var revenue float64
		if err := rows.Scan(&name, &units, &revenue); err != nil {
			return nil, err
		}
		products = append(products, map[string]any{
			"product": name,
			"units":   units,
			"revenue": revenue,
		})
	}
	return products, rows.Err()
}

// parsePeriodDays maps a period label to a day count, 0 when unrecognized.
func parsePeriodDays(period string) int {
	switch period {
	case "last_7_days":
		return 7
	case "last_30_days":
		return 30
	case "last_90_days":
		return 90
	case "last_365_days", "last_year":
		return 365
	default:
		return 0
	}
}
