package service

import (
	"sort"
	"time"

	"github.com/smallbiznis/orderpulse/internal/orderprofile/domain"
)

// TruncateMonth normalizes a date to the first of its month, UTC.
func TruncateMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

type monthKey struct {
	accountID string
	month     time.Time
}

// AggregateMonthly groups enriched orders by (account, calendar month)
// and sums totals. A group exists only when at least one in-scope order
// falls into it. Output ordering is deterministic: account id, then
// month ascending.
func AggregateMonthly(orders []domain.EnrichedOrder) []domain.MonthlyAggregate {
	byKey := make(map[monthKey]*domain.MonthlyAggregate)
	for _, o := range orders {
		key := monthKey{accountID: o.AccountID, month: TruncateMonth(o.OrderDate)}
		agg, ok := byKey[key]
		if !ok {
			agg = &domain.MonthlyAggregate{
				AccountID: key.accountID,
				Month:     key.month,
			}
			byKey[key] = agg
		}

		agg.MonthlyTotal += o.TotalAmount
		agg.OrderCount++
		agg.TotalProducts += o.ProductCount
		agg.TotalPaid += o.TotalPaid
		agg.TransactionCount += o.TransactionCount
		if o.OrderDate.After(agg.LatestOrderDate) {
			agg.LatestOrderDate = o.OrderDate
		}
	}

	out := make([]domain.MonthlyAggregate, 0, len(byKey))
	for _, agg := range byKey {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AccountID != out[j].AccountID {
			return out[i].AccountID < out[j].AccountID
		}
		return out[i].Month.Before(out[j].Month)
	})
	return out
}
