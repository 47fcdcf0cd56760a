package analytics

import "stockbook/backend/internal/domain"

// SummarizeInventory reduces the product collection into portfolio metrics.
// Revenue and profit come from the lifetime counters on each product, not
// from invoices.
func SummarizeInventory(products []domain.Product) domain.InventorySummary {
	summary := domain.InventorySummary{
		TotalProducts:        len(products),
		CategoryDistribution: CategoryDistribution(products),
	}

	for _, p := range products {
		summary.InventoryValue += float64(p.CurrentStock) * p.BuyingPrice
		summary.TotalRevenue += p.Revenue
		summary.TotalProfit += p.Profit

		switch ClassifyStock(p) {
		case domain.StockOutOfStock, domain.StockCritical:
			summary.CriticalStockCount++
		case domain.StockLow:
			summary.LowStockCount++
		}
		if p.CurrentStock == 0 {
			summary.OutOfStockCount++
		}
	}

	summary.AverageMargin = Margin(summary.TotalProfit, summary.TotalRevenue)
	return summary
}

// Margin returns profit/revenue as a percentage, or 0 when revenue is not positive.
func Margin(profit float64, revenue float64) float64 {
	if revenue <= 0 {
		return 0
	}
	return profit / revenue * 100
}

// CategoryDistribution counts products per category in first-seen order.
func CategoryDistribution(products []domain.Product) []domain.CategoryCount {
	index := make(map[string]int)
	counts := make([]domain.CategoryCount, 0)
	for _, p := range products {
		i, ok := index[p.Category]
		if !ok {
			i = len(counts)
			index[p.Category] = i
			counts = append(counts, domain.CategoryCount{Category: p.Category})
		}
		counts[i].Count++
	}
	return counts
}
