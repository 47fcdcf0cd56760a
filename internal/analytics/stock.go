// Package analytics derives business metrics from raw product and invoice
// collections. Every function is pure: results are recomputed from the inputs
// on each call and nothing is retained between calls.
package analytics

import "stockbook/backend/internal/domain"

// ClassifyStock maps a product's stock counters to exactly one class.
// Precedence: out of stock, critical, low, in stock. An out-of-stock product
// is also counted as "critical or worse" by SummarizeInventory.
func ClassifyStock(p domain.Product) domain.StockClass {
	switch {
	case p.CurrentStock <= 0:
		return domain.StockOutOfStock
	case p.CurrentStock <= p.CriticalStock:
		return domain.StockCritical
	case p.CurrentStock <= p.MinStock:
		return domain.StockLow
	default:
		return domain.StockInStock
	}
}

// Severity ranks stock classes, higher is worse.
func Severity(class domain.StockClass) int {
	switch class {
	case domain.StockOutOfStock:
		return 3
	case domain.StockCritical:
		return 2
	case domain.StockLow:
		return 1
	default:
		return 0
	}
}
