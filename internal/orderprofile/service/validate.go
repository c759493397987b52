package service

import (
	"time"

	"github.com/smallbiznis/orderpulse/internal/clock"
	"github.com/smallbiznis/orderpulse/internal/orderprofile/domain"
)

type validationRule struct {
	Reason domain.HoldReason
	Match  func(rec domain.EnrichedAggregate, now time.Time) bool
}

// validationRules returns the ordered rule chain. Order is load
// bearing: rules evaluate top to bottom and the first match wins, so a
// record missing both its account and its limit is held for the
// account, not the limit.
func validationRules(staleOrderDays int) []validationRule {
	rules := []validationRule{
		{domain.HoldReasonMissingAccountID, func(rec domain.EnrichedAggregate, _ time.Time) bool {
			return rec.AccountID == ""
		}},
		{domain.HoldReasonMissingCustomerName, func(rec domain.EnrichedAggregate, _ time.Time) bool {
			return rec.CustomerName == nil
		}},
		{domain.HoldReasonNegativeAmount, func(rec domain.EnrichedAggregate, _ time.Time) bool {
			return rec.MonthlyTotal < 0
		}},
		{domain.HoldReasonInvalidOrderCount, func(rec domain.EnrichedAggregate, _ time.Time) bool {
			return rec.OrderCount <= 0
		}},
		{domain.HoldReasonMissingOrderLimit, func(rec domain.EnrichedAggregate, _ time.Time) bool {
			return rec.OrderLimit == nil
		}},
	}

	if staleOrderDays > 0 {
		maxAge := time.Duration(staleOrderDays) * 24 * time.Hour
		rules = append(rules, validationRule{domain.HoldReasonStaleOrderDate, func(rec domain.EnrichedAggregate, now time.Time) bool {
			return now.Sub(rec.LatestOrderDate) > maxAge
		}})
	}
	return rules
}

// Validate runs every enriched aggregate through the rule chain. Held
// records are stamped with the injected clock so reruns against a
// fixed clock reproduce identical output.
func Validate(aggs []domain.EnrichedAggregate, clk clock.Clock, staleOrderDays int) []domain.ValidatedRecord {
	rules := validationRules(staleOrderDays)

	out := make([]domain.ValidatedRecord, 0, len(aggs))
	for _, agg := range aggs {
		rec := domain.ValidatedRecord{EnrichedAggregate: agg}
		now := clk.Now()
		for _, rule := range rules {
			if rule.Match(agg, now) {
				reason := rule.Reason
				ts := now
				rec.HoldReason = &reason
				rec.HoldTimestamp = &ts
				break
			}
		}
		out = append(out, rec)
	}
	return out
}

// Route splits validated records into the accepted and held streams.
func Route(records []domain.ValidatedRecord) (accepted, held []domain.ValidatedRecord) {
	for _, rec := range records {
		if rec.HoldReason != nil {
			held = append(held, rec)
			continue
		}
		accepted = append(accepted, rec)
	}
	return accepted, held
}
