package analytics

import (
	"slices"

	"stockbook/backend/internal/domain"
)

// ProductTransactions collects every invoice line that references productID,
// newest first, together with aggregate totals.
func ProductTransactions(productID string, invoices []domain.Invoice) ([]domain.TransactionRecord, domain.TransactionTotals) {
	records := make([]domain.TransactionRecord, 0)
	var totals domain.TransactionTotals

	for _, inv := range invoices {
		for _, item := range inv.Items {
			if item.ProductID != productID {
				continue
			}
			record := domain.TransactionRecord{
				InvoiceID:     inv.ID,
				InvoiceNumber: inv.InvoiceNumber,
				CustomerName:  inv.CustomerName,
				Quantity:      item.Quantity,
				Price:         item.Price,
				Total:         item.Total,
				Profit:        item.LineProfit(),
				Date:          inv.CreatedAt,
			}
			records = append(records, record)

			totals.Revenue += record.Total
			totals.Profit += record.Profit
			totals.QuantitySold += record.Quantity
		}
	}
	totals.TransactionCount = len(records)

	slices.SortStableFunc(records, func(a, b domain.TransactionRecord) int {
		return b.Date.Compare(a.Date)
	})
	return records, totals
}
