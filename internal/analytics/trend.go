package analytics

import (
	"fmt"
	"sort"
	"time"

	"stockbook/backend/internal/domain"
)

const trendWeeks = 6

type weekBucket struct {
	start      time.Time
	revenue    float64
	profit     float64
	soldStocks int
}

// WeeklyTrend buckets each product's lifetime revenue, profit and sold units
// into the Sunday-aligned calendar week (local midnight in loc) of the
// product's creation date, and returns the most recent six buckets in
// chronological order. The series reflects when inventory was added, not when
// it was sold.
func WeeklyTrend(products []domain.Product, loc *time.Location) domain.TrendSeries {
	if len(products) == 0 {
		return domain.TrendSeries{
			Labels:     []string{"Week 1"},
			Revenue:    []float64{0},
			Profit:     []float64{0},
			SoldStocks: []int{0},
		}
	}
	if loc == nil {
		loc = time.Local
	}

	buckets := make(map[string]*weekBucket)
	for _, p := range products {
		start := WeekStart(p.CreatedAt, loc)
		key := start.Format("2006-01-02")
		b, ok := buckets[key]
		if !ok {
			b = &weekBucket{start: start}
			buckets[key] = b
		}
		b.revenue += p.Revenue
		b.profit += p.Profit
		b.soldStocks += p.SoldUnits
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if len(keys) > trendWeeks {
		keys = keys[len(keys)-trendWeeks:]
	}

	series := domain.TrendSeries{
		Labels:     make([]string, 0, len(keys)),
		Revenue:    make([]float64, 0, len(keys)),
		Profit:     make([]float64, 0, len(keys)),
		SoldStocks: make([]int, 0, len(keys)),
	}
	for _, key := range keys {
		b := buckets[key]
		series.Labels = append(series.Labels, fmt.Sprintf("%d/%d", int(b.start.Month()), b.start.Day()))
		series.Revenue = append(series.Revenue, b.revenue)
		series.Profit = append(series.Profit, b.profit)
		series.SoldStocks = append(series.SoldStocks, b.soldStocks)
	}
	return series
}

// WeekStart rolls t back to the most recent Sunday at midnight in loc.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d-int(local.Weekday()), 0, 0, 0, 0, loc)
}
