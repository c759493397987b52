package service

import (
	"strings"

	accountdomain "github.com/smallbiznis/orderpulse/internal/account/domain"
	"github.com/smallbiznis/orderpulse/internal/config"
	"github.com/smallbiznis/orderpulse/internal/orderprofile/domain"
)

// Classify assigns a RAG tier and limit flag to every trend record
// whose account resolves: the account exists with a usable customer
// name and order limit. Unresolved records are excluded here; the
// validation path reports them.
func Classify(trends []domain.TrendRecord, accounts map[string]accountdomain.Account, th config.RAGThresholds) []domain.ClassifiedRecord {
	out := make([]domain.ClassifiedRecord, 0, len(trends))
	for _, t := range trends {
		acc, ok := accounts[t.AccountID]
		if !ok {
			continue
		}
		name := strings.TrimSpace(acc.CustomerName)
		if name == "" || acc.OrderLimit <= 0 {
			continue
		}

		out = append(out, domain.ClassifiedRecord{
			TrendRecord:   t,
			CustomerName:  name,
			OrderLimit:    acc.OrderLimit,
			RAGStatus:     ragTier(t.PercentageChange, th),
			LimitExceeded: t.OrderCount > acc.OrderLimit,
		})
	}
	return out
}

// ragTier maps a month-over-month change onto the configured
// thresholds. No baseline means no measurable growth, which is GREEN.
// Boundary values belong to the higher tier: change == red is RED,
// change == amber is AMBER.
func ragTier(change *float64, th config.RAGThresholds) domain.RAGStatus {
	switch {
	case change == nil:
		return domain.RAGStatusGreen
	case *change >= th.Red:
		return domain.RAGStatusRed
	case *change >= th.Amber:
		return domain.RAGStatusAmber
	default:
		return domain.RAGStatusGreen
	}
}
