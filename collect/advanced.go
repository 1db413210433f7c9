package collect

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

// AdvancedSource is the key under which advanced analytics are stored.
const AdvancedSource = "advanced_analytics"

// advancedKeywords activate the collector. Requests that never mention
// trends, comparisons, or regions skip the heavier queries.
var advancedKeywords = []string{
	"trend", "trends", "growth", "compare", "comparison", "versus", "vs",
	"region", "regional", "market share", "pattern", "over time",
}

// Advanced computes trend, regional, and period-comparison analytics over
// the sales database.
//
// All sections degrade independently: a failed trend query still lets the
// regional and comparison sections report.
type Advanced struct {
	db         *sql.DB
	windowDays int
	logger     *slog.Logger
}

// NewAdvanced creates the advanced analytics collector. windowDays <= 0
// selects DefaultWindowDays; a nil logger selects slog.Default().
func NewAdvanced(db *sql.DB, windowDays int, logger *slog.Logger) *Advanced {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Advanced{db: db, windowDays: windowDays, logger: logger}
}

// Name implements Collector.
func (a *Advanced) Name() string {
	return AdvancedSource
}

// Activates reports whether the query text asks for trend, comparison, or
// regional analysis.
func (a *Advanced) Activates(query string) bool {
	lower := strings.ToLower(query)
	for _, kw := range advancedKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Collect runs the trend, regional, and comparison sections and derives
// insight strings from whatever succeeded.
func (a *Advanced) Collect(ctx context.Context, _ string, params map[string]any) Result {
	days := a.windowDays
	if period, ok := params["period"].(string); ok {
		if parsed := parsePeriodDays(period); parsed > 0 {
			days = parsed
		}
	}
	now := time.Now()
	since := now.AddDate(0, 0, -days)
	prevSince := since.AddDate(0, 0, -days)

	if a.db == nil {
		return emptyResult(AdvancedSource, "advanced analytics unavailable", map[string]any{
			"insights": []string{},
		})
	}

	fields := map[string]any{"window_days": days}
	var insights []string

	trends, err := a.queryDailyTrends(ctx, since)
	if err != nil {
		a.logger.Warn("trend analysis failed", "error", err)
	} else if len(trends) > 0 {
		fields["daily_trends"] = trends
		if rate, ok := weeklyGrowthRate(trends); ok {
			fields["weekly_growth_rate"] = rate
			if rate > 0 {
				insights = append(insights, fmt.Sprintf("Positive trend: %.1f%% weekly revenue growth", rate))
			}
		}
	}

	regions, err := a.queryRegional(ctx, since)
	if err != nil {
		a.logger.Warn("regional analysis failed", "error", err)
	} else if len(regions) > 0 {
		addMarketShare(regions)
		fields["regional_performance"] = regions
		top := regions[0]
		insights = append(insights, fmt.Sprintf("Leading region: %v with %.1f%% market share",
			top["region"], top["market_share_pct"]))
	}

	comparison, err := a.queryComparison(ctx, since, prevSince)
	if err != nil {
		a.logger.Warn("period comparison failed", "error", err)
	} else if comparison != nil {
		fields["period_comparison"] = comparison
		if changes, ok := comparison["changes"].(map[string]any); ok {
			if pct, ok := changes["revenue_change_pct"].(float64); ok && pct != 0 {
				direction := "growth"
				if pct < 0 {
					direction = "decline"
				}
				insights = append(insights, fmt.Sprintf("Revenue %s: %.1f%% vs previous period", direction, pct))
			}
		}
	}

	fields["insights"] = insights

	if len(fields) <= 2 { // only window_days and insights
		return emptyResult(AdvancedSource, "no advanced analytics available", fields)
	}

	return Result{
		Source:  AdvancedSource,
		Summary: fmt.Sprintf("advanced analytics over %d days: %s", days, strings.Join(insights, "; ")),
		Fields:  fields,
	}
}

func (a *Advanced) queryDailyTrends(ctx context.Context, since time.Time) ([]map[string]any, error) {
	query := `
		SELECT DATE(created_at) AS day, COUNT(*) AS orders, COALESCE(SUM(total), 0) AS revenue
		FROM orders
		WHERE created_at >= ?
		GROUP BY DATE(created_at)
		ORDER BY day DESC
	`
	rows, err := a.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var trends []map[string]any
	for rows.Next() {
		var day string
		var orders int
		var revenue float64
		if err := rows.Scan(&day, &orders, &revenue); err != nil {
			return nil, err
		}
		trends = append(trends, map[string]any{
			"date":    day,
			"orders":  orders,
			"revenue": revenue,
		})
	}
	return trends, rows.Err()
}

func (a *Advanced) queryRegional(ctx context.Context, since time.Time) ([]map[string]any, error) {
	query := `
		SELECT region, COUNT(*) AS orders, COALESCE(SUM(total), 0) AS revenue
		FROM orders
		WHERE created_at >= ? AND region IS NOT NULL
		GROUP BY region
		ORDER BY revenue DESC
	`
	rows, err := a.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var regions []map[string]any
	for rows.Next() {
		var region string
		var orders int
		var revenue float64
		if err := rows.Scan(&region, &orders, &revenue); err != nil {
			return nil, err
		}
		regions = append(regions, map[string]any{
			"region":  region,
			"orders":  orders,
			"revenue": revenue,
		})
	}
	return regions, rows.Err()
}

func (a *Advanced) queryComparison(ctx context.Context, since, prevSince time.Time) (map[string]any, error) {
	totals := func(from, to time.Time) (int, float64, error) {
		query := `
			SELECT COUNT(*), COALESCE(SUM(total), 0)
			FROM orders
			WHERE created_at >= ? AND created_at < ?
		`
		var orders int
		var revenue float64
		err := a.db.QueryRowContext(ctx, query, from, to).Scan(&orders, &revenue)
		return orders, revenue, err
	}

	now := time.Now()
	curOrders, curRevenue, err := totals(since, now)
	if err != nil {
		return nil, err
	}
	prevOrders, prevRevenue, err := totals(prevSince, since)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{
		"orders_change_pct":  pctChange(float64(prevOrders), float64(curOrders)),
		"revenue_change_pct": pctChange(prevRevenue, curRevenue),
	}
	return map[string]any{
		"current":  map[string]any{"orders": curOrders, "revenue": curRevenue},
		"previous": map[string]any{"orders": prevOrders, "revenue": prevRevenue},
		"changes":  changes,
	}, nil
}

// weeklyGrowthRate compares the most recent 7 days of revenue to the 7 days
// before them. Needs at least 7 days of data; with fewer than 14, the
// previous week defaults to the recent one and the rate is 0.
func weeklyGrowthRate(trends []map[string]any) (float64, bool) {
	if len(trends) < 7 {
		return 0, false
	}
	sum := func(from, to int) float64 {
		var total float64
		for i := from; i < to && i < len(trends); i++ {
			if rev, ok := trends[i]["revenue"].(float64); ok {
				total += rev
			}
		}
		return total
	}
	recent := sum(0, 7)
	previous := recent
	if len(trends) >= 14 {
		previous = sum(7, 14)
	}
	if previous <= 0 {
		return 0, false
	}
	return roundPct((recent - previous) / previous * 100), true
}

func addMarketShare(regions []map[string]any) {
	var total float64
	for _, r := range regions {
		if rev, ok := r["revenue"].(float64); ok {
			total += rev
		}
	}
	if total <= 0 {
		return
	}
	for _, r := range regions {
		if rev, ok := r["revenue"].(float64); ok {
			r["market_share_pct"] = roundPct(rev / total * 100)
		}
	}
}

func pctChange(prev, cur float64) float64 {
	if prev <= 0 {
		return 0
	}
	return roundPct((cur - prev) / prev * 100)
}

func roundPct(v float64) float64 {
	return math.Round(v*100) / 100
}
