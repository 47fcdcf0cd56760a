package analytics

import (
	"math"
	"slices"
	"strings"
	"time"

	"stockbook/backend/internal/domain"
)

const topProductLimit = 5

type customerAccumulator struct {
	analytics    domain.CustomerAnalytics
	productQty   map[string]int
	productOrder []string
}

// BuildCustomerAnalytics groups invoices by customer phone (invoices without
// a phone share the "unknown" key) and accumulates lifetime metrics per group.
// Groups are returned in the order their first invoice was seen.
//
// The display name is taken from the last processed invoice of the group.
// Customer records are only consulted when that invoice carries no name.
func BuildCustomerAnalytics(customers []domain.Customer, invoices []domain.Invoice) []domain.CustomerAnalytics {
	namesByPhone := make(map[string]string, len(customers))
	for _, c := range customers {
		if _, seen := namesByPhone[c.Phone]; !seen {
			namesByPhone[c.Phone] = c.Name
		}
	}

	groups := make(map[string]*customerAccumulator)
	order := make([]string, 0)

	for _, inv := range invoices {
		key := inv.CustomerPhone
		if key == "" {
			key = domain.UnknownCustomerKey
		}

		acc, ok := groups[key]
		if !ok {
			acc = &customerAccumulator{
				analytics: domain.CustomerAnalytics{
					Phone:      key,
					FirstVisit: inv.CreatedAt,
					LastVisit:  inv.CreatedAt,
					InvoiceIDs: make([]string, 0, 4),
				},
				productQty: make(map[string]int),
			}
			groups[key] = acc
			order = append(order, key)
		}

		a := &acc.analytics
		a.Name = inv.CustomerName
		if a.Name == "" {
			a.Name = namesByPhone[inv.CustomerPhone]
		}
		a.TotalRevenue += inv.Total
		a.TotalProfit += inv.Profit
		a.VisitCount++
		a.InvoiceIDs = append(a.InvoiceIDs, inv.ID)
		if inv.CreatedAt.Before(a.FirstVisit) {
			a.FirstVisit = inv.CreatedAt
		}
		if inv.CreatedAt.After(a.LastVisit) {
			a.LastVisit = inv.CreatedAt
		}

		for _, name := range invoiceProductOrder(inv) {
			if _, seen := acc.productQty[name]; !seen {
				acc.productOrder = append(acc.productOrder, name)
			}
		}
		for _, item := range inv.Items {
			acc.productQty[item.ProductName] += item.Quantity
		}
	}

	result := make([]domain.CustomerAnalytics, 0, len(order))
	for _, key := range order {
		acc := groups[key]
		acc.analytics.TopProducts = topProducts(acc.productOrder, acc.productQty, topProductLimit)
		result = append(result, acc.analytics)
	}
	return result
}

func invoiceProductOrder(inv domain.Invoice) []string {
	names := make([]string, 0, len(inv.Items))
	for _, item := range inv.Items {
		if !slices.Contains(names, item.ProductName) {
			names = append(names, item.ProductName)
		}
	}
	return names
}

// topProducts sorts by quantity descending; ties keep first-encounter order.
func topProducts(order []string, qty map[string]int, limit int) []domain.ProductQuantity {
	list := make([]domain.ProductQuantity, 0, len(order))
	for _, name := range order {
		list = append(list, domain.ProductQuantity{Name: name, Quantity: qty[name]})
	}
	slices.SortStableFunc(list, func(a, b domain.ProductQuantity) int {
		return b.Quantity - a.Quantity
	})
	if len(list) > limit {
		list = list[:limit]
	}
	return list
}

// VisitFrequency classifies how often a customer visits, relative to now.
// The band decays as time passes without new visits.
func VisitFrequency(c domain.CustomerAnalytics, now time.Time) domain.VisitFrequency {
	daysSinceFirst := int(math.Floor(now.Sub(c.FirstVisit).Hours() / 24))
	if daysSinceFirst <= 0 {
		return domain.FrequencyNew
	}

	visitsPerDay := float64(c.VisitCount) / float64(daysSinceFirst)
	switch {
	case visitsPerDay >= 1:
		return domain.FrequencyDaily
	case visitsPerDay >= 0.25:
		return domain.FrequencyWeekly
	case visitsPerDay >= 0.1:
		return domain.FrequencyMonthly
	default:
		return domain.FrequencyOccasional
	}
}

// SortCustomers orders the list in place, descending by the chosen key.
// Unknown keys fall back to revenue.
func SortCustomers(list []domain.CustomerAnalytics, by domain.CustomerSort) {
	var cmp func(a, b domain.CustomerAnalytics) int
	switch by {
	case domain.SortByVisits:
		cmp = func(a, b domain.CustomerAnalytics) int { return b.VisitCount - a.VisitCount }
	case domain.SortByRecent:
		cmp = func(a, b domain.CustomerAnalytics) int { return b.LastVisit.Compare(a.LastVisit) }
	default:
		cmp = func(a, b domain.CustomerAnalytics) int { return compareFloat(b.TotalRevenue, a.TotalRevenue) }
	}
	slices.SortStableFunc(list, cmp)
}

// FilterCustomers keeps entries whose name or phone contains query, ignoring case.
func FilterCustomers(list []domain.CustomerAnalytics, query string) []domain.CustomerAnalytics {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list
	}
	filtered := make([]domain.CustomerAnalytics, 0, len(list))
	for _, c := range list {
		if strings.Contains(strings.ToLower(c.Name), query) || strings.Contains(strings.ToLower(c.Phone), query) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func compareFloat(a float64, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
