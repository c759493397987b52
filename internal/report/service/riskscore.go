package service

import (
	"context"
	"sort"

	profiledomain "github.com/smallbiznis/orderpulse/internal/orderprofile/domain"
	"github.com/smallbiznis/orderpulse/internal/report/domain"
)

// Scoring weights and category boundaries. The weights cap at 45, so
// HIGH_RISK stays empty until an additional scoring signal is added.
const (
	overLimitPoints         = 20
	highSpendPoints         = 15
	validationFailurePoints = 10

	highSpendThreshold = 10000.0

	highRiskFloor   = 50
	mediumRiskFloor = 25
)

// scoreRecord computes the additive risk score and its category. An
// unknown order limit contributes nothing: the comparison cannot hold.
func scoreRecord(row domain.RiskScoreRow) (int, string) {
	score := 0
	if row.OrderLimit != nil && row.OrderCount > *row.OrderLimit {
		score += overLimitPoints
	}
	if row.MonthlyTotal > highSpendThreshold {
		score += highSpendPoints
	}
	if row.ValidationFailed {
		score += validationFailurePoints
	}

	switch {
	case score >= highRiskFloor:
		return score, domain.RiskCategoryHigh
	case score >= mediumRiskFloor:
		return score, domain.RiskCategoryMedium
	default:
		return score, domain.RiskCategoryLow
	}
}

// RiskScores scores every validated latest-month record of the most
// recent succeeded run: accepted records as they stand, held records
// with the validation-failure penalty on top.
func (s *Service) RiskScores(ctx context.Context) (*domain.RiskScoreReport, error) {
	run, err := s.latestRun(ctx)
	if err != nil {
		return nil, err
	}

	results, err := s.resultRepo.Find(ctx, &profiledomain.ResultRecord{RunID: run.ID})
	if err != nil {
		return nil, err
	}
	held, err := s.heldRepo.Find(ctx, &profiledomain.HeldRecord{RunID: run.ID})
	if err != nil {
		return nil, err
	}

	rows := make([]domain.RiskScoreRow, 0, len(results)+len(held))
	for _, rec := range results {
		name := rec.CustomerName
		limit := rec.OrderLimit
		rows = append(rows, domain.RiskScoreRow{
			AccountID:    rec.AccountID,
			CustomerName: &name,
			OrderMonth:   rec.OrderMonth,
			MonthlyTotal: rec.MonthlyTotal,
			OrderCount:   rec.OrderCount,
			OrderLimit:   &limit,
		})
	}
	for _, rec := range held {
		rows = append(rows, domain.RiskScoreRow{
			AccountID:        rec.AccountID,
			CustomerName:     rec.CustomerName,
			OrderMonth:       rec.OrderMonth,
			MonthlyTotal:     rec.MonthlyTotal,
			OrderCount:       rec.OrderCount,
			OrderLimit:       rec.OrderLimit,
			ValidationFailed: true,
		})
	}

	for i := range rows {
		rows[i].RiskScore, rows[i].RiskCategory = scoreRecord(rows[i])
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].RiskScore != rows[j].RiskScore {
			return rows[i].RiskScore > rows[j].RiskScore
		}
		return rows[i].AccountID < rows[j].AccountID
	})

	return &domain.RiskScoreReport{
		RunID:       run.ID.String(),
		LatestMonth: run.LatestMonth,
		Records:     rows,
	}, nil
}
