package service

import (
	"math"
	"sort"
	"time"

	"github.com/smallbiznis/orderpulse/internal/orderprofile/domain"
)

// LatestMonth returns the maximum month across the whole aggregate
// history. The reported window is dataset-wide: an account whose last
// activity predates it simply has no row in the latest outputs.
func LatestMonth(aggs []domain.MonthlyAggregate) (time.Time, bool) {
	var latest time.Time
	for _, agg := range aggs {
		if agg.Month.After(latest) {
			latest = agg.Month
		}
	}
	return latest, !latest.IsZero()
}

// RoundPercentage rounds to two decimals for presentation. Stored
// values keep full precision.
func RoundPercentage(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortResults(rows []*domain.ResultRecord) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].AccountID < rows[j].AccountID
	})
}

func sortHeld(rows []*domain.HeldRecord) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].HoldReason != rows[j].HoldReason {
			return rows[i].HoldReason < rows[j].HoldReason
		}
		return rows[i].AccountID < rows[j].AccountID
	})
}

// sortRAG orders by severity, then percentage change descending with
// unknown changes last, then account id as the tiebreak.
func sortRAG(rows []*domain.RAGRecord) {
	sort.Slice(rows, func(i, j int) bool {
		pi := domain.RAGStatus(rows[i].RAGStatus).Priority()
		pj := domain.RAGStatus(rows[j].RAGStatus).Priority()
		if pi != pj {
			return pi < pj
		}
		ci, cj := rows[i].PercentageChange, rows[j].PercentageChange
		switch {
		case ci != nil && cj != nil && *ci != *cj:
			return *ci > *cj
		case ci != nil && cj == nil:
			return true
		case ci == nil && cj != nil:
			return false
		}
		return rows[i].AccountID < rows[j].AccountID
	})
}
