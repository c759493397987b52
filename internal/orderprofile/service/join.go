package service

import (
	orderdomain "github.com/smallbiznis/orderpulse/internal/order/domain"
	"github.com/smallbiznis/orderpulse/internal/orderprofile/domain"
)

// JoinPayments attaches aggregated payment totals to each order. The
// join is outer on the order side: an order without any successful
// payment keeps zero totals and stays in the stream.
func JoinPayments(orders []orderdomain.Order, transactions []orderdomain.Transaction) []domain.EnrichedOrder {
	type paymentSummary struct {
		total float64
		count int
	}

	byOrder := make(map[string]paymentSummary, len(orders))
	for _, t := range transactions {
		s := byOrder[t.OrderID]
		s.total += t.Amount
		s.count++
		byOrder[t.OrderID] = s
	}

	out := make([]domain.EnrichedOrder, 0, len(orders))
	for _, o := range orders {
		s := byOrder[o.OrderID]
		out = append(out, domain.EnrichedOrder{
			Order:            o,
			TotalPaid:        s.total,
			TransactionCount: s.count,
		})
	}
	return out
}
