package service

import (
	orderdomain "github.com/smallbiznis/orderpulse/internal/order/domain"
)

// FilterOrders keeps the orders that count toward monthly activity:
// completed and still-pending ones. Cancelled orders are out of scope.
func FilterOrders(orders []orderdomain.Order) []orderdomain.Order {
	out := make([]orderdomain.Order, 0, len(orders))
	for _, o := range orders {
		switch o.Status {
		case orderdomain.OrderStatusCompleted, orderdomain.OrderStatusPending:
			out = append(out, o)
		}
	}
	return out
}

// FilterTransactions keeps successful payments only.
func FilterTransactions(transactions []orderdomain.Transaction) []orderdomain.Transaction {
	out := make([]orderdomain.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if t.Status == orderdomain.TransactionStatusSuccess {
			out = append(out, t)
		}
	}
	return out
}
