package collect

import (
	"context"
	"testing"
	"time"
)

func TestAdvancedActivates(t *testing.T) {
	a := NewAdvanced(nil, 30, nil)

	tests := []struct {
		query string
		want  bool
	}{
		{"show me sales trends", true},
		{"compare this month to last month", true},
		{"regional performance breakdown", true},
		{"what is our market share by region", true},
		{"growth over time", true},
		{"give me a sales report", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := a.Activates(tt.query); got != tt.want {
			t.Errorf("Activates(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestAdvancedCollect(t *testing.T) {
	db := newSalesDB(t)
	// Two regions, current period heavier than previous.
	seedOrder(t, db, 500, "north", 2*24*time.Hour, nil)
	seedOrder(t, db, 300, "north", 5*24*time.Hour, nil)
	seedOrder(t, db, 200, "south", 10*24*time.Hour, nil)
	seedOrder(t, db, 100, "south", 45*24*time.Hour, nil)

	a := NewAdvanced(db, 30, nil)
	result := a.Collect(context.Background(), "sales trends by region", nil)

	if result.Empty {
		t.Fatal("expected non-empty result")
	}

	regions, ok := result.Fields["regional_performance"].([]map[string]any)
	if !ok || len(regions) != 2 {
		t.Fatalf("expected 2 regions, got %v", result.Fields["regional_performance"])
	}
	if regions[0]["region"] != "north" {
		t.Errorf("expected north first by revenue, got %v", regions[0]["region"])
	}
	share, ok := regions[0]["market_share_pct"].(float64)
	if !ok || share <= 50 || share > 100 {
		t.Errorf("expected north majority share, got %v", regions[0]["market_share_pct"])
	}

	comparison, ok := result.Fields["period_comparison"].(map[string]any)
	if !ok {
		t.Fatal("expected period comparison")
	}
	current, _ := comparison["current"].(map[string]any)
	if current["orders"] != 3 {
		t.Errorf("expected 3 current period orders, got %v", current["orders"])
	}

	insights, ok := result.Fields["insights"].([]string)
	if !ok || len(insights) == 0 {
		t.Errorf("expected derived insights, got %v", result.Fields["insights"])
	}
}

func TestAdvancedDegradesOnFailure(t *testing.T) {
	db := newSalesDB(t)
	_ = db.Close()

	a := NewAdvanced(db, 30, nil)
	result := a.Collect(context.Background(), "trends", nil)

	if !result.Empty {
		t.Error("expected Empty on backend failure")
	}
	insights, ok := result.Fields["insights"].([]string)
	if !ok || len(insights) != 0 {
		t.Errorf("expected empty insights, got %v", result.Fields["insights"])
	}
}

func TestWeeklyGrowthRate(t *testing.T) {
	day := func(revenue float64) map[string]any {
		return map[string]any{"revenue": revenue}
	}

	t.Run("too few days", func(t *testing.T) {
		if _, ok := weeklyGrowthRate([]map[string]any{day(1), day(2)}); ok {
			t.Error("expected no rate with fewer than 7 days")
		}
	})

	t.Run("two full weeks", func(t *testing.T) {
		var trends []map[string]any
		for i := 0; i < 7; i++ {
			trends = append(trends, day(200)) // recent week
		}
		for i := 0; i < 7; i++ {
			trends = append(trends, day(100)) // previous week
		}
		rate, ok := weeklyGrowthRate(trends)
		if !ok {
			t.Fatal("expected a growth rate")
		}
		if rate != 100.0 {
			t.Errorf("expected 100%% growth, got %v", rate)
		}
	})
}

func TestPctChange(t *testing.T) {
	if got := pctChange(100, 150); got != 50.0 {
		t.Errorf("expected 50, got %v", got)
	}
	if got := pctChange(100, 75); got != -25.0 {
		t.Errorf("expected -25, got %v", got)
	}
	if got := pctChange(0, 100); got != 0.0 {
		t.Errorf("expected 0 for zero baseline, got %v", got)
	}
}
