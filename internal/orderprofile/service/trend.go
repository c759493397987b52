package service

import (
	"sort"

	"github.com/smallbiznis/orderpulse/internal/orderprofile/domain"
)

// ComputeTrends derives the month-over-month change for every aggregate
// row. The comparison baseline is the account's previous *present* row
// in its chronologically ordered series, not the previous calendar
// month: a gap in activity compares against the last month that had
// orders.
//
// PercentageChange is nil for an account's first row and whenever the
// previous total is exactly zero (the ratio is undefined); otherwise it
// is (current-previous)/previous*100 at full float64 precision.
func ComputeTrends(aggs []domain.MonthlyAggregate) []domain.TrendRecord {
	byAccount := make(map[string][]domain.MonthlyAggregate)
	accountIDs := make([]string, 0)
	for _, agg := range aggs {
		if _, ok := byAccount[agg.AccountID]; !ok {
			accountIDs = append(accountIDs, agg.AccountID)
		}
		byAccount[agg.AccountID] = append(byAccount[agg.AccountID], agg)
	}
	sort.Strings(accountIDs)

	out := make([]domain.TrendRecord, 0, len(aggs))
	for _, accountID := range accountIDs {
		series := byAccount[accountID]
		sort.Slice(series, func(i, j int) bool {
			return series[i].Month.Before(series[j].Month)
		})

		var prev *domain.MonthlyAggregate
		for i := range series {
			rec := domain.TrendRecord{MonthlyAggregate: series[i]}
			if prev != nil {
				prevTotal := prev.MonthlyTotal
				rec.PreviousMonthTotal = &prevTotal
				if prevTotal != 0 {
					change := (series[i].MonthlyTotal - prevTotal) / prevTotal * 100
					rec.PercentageChange = &change
				}
			}
			out = append(out, rec)
			prev = &series[i]
		}
	}
	return out
}
