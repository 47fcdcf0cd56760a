package httpapi

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockbook/backend/internal/domain"
)

var customerCSVHeader = []string{
	"phone", "name", "visits", "total_revenue", "total_profit",
	"first_visit", "last_visit", "frequency", "top_products",
}

// customerInsightsCSV renders one row per customer. Money columns use two
// decimals; top products are "name x qty" joined by "; ".
func customerInsightsCSV(insights []domain.CustomerInsight) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(customerCSVHeader); err != nil {
		return nil, err
	}

	for _, c := range insights {
		top := make([]string, 0, len(c.TopProducts))
		for _, p := range c.TopProducts {
			top = append(top, p.Name+" x "+strconv.Itoa(p.Quantity))
		}
		row := []string{
			c.Phone,
			c.Name,
			strconv.Itoa(c.VisitCount),
			money(c.TotalRevenue),
			money(c.TotalProfit),
			c.FirstVisit.UTC().Format(time.RFC3339),
			c.LastVisit.UTC().Format(time.RFC3339),
			string(c.VisitFrequency),
			strings.Join(top, "; "),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
