package service

import (
	"strings"

	accountdomain "github.com/smallbiznis/orderpulse/internal/account/domain"
	"github.com/smallbiznis/orderpulse/internal/orderprofile/domain"
)

// AccountsByID indexes reference accounts for the classification path.
func AccountsByID(accounts []accountdomain.Account) map[string]accountdomain.Account {
	index := make(map[string]accountdomain.Account, len(accounts))
	for _, a := range accounts {
		index[a.AccountID] = a
	}
	return index
}

// EnrichWithAccounts left-joins aggregates with account reference data.
// A missing account row, a blank customer name, or a non-positive order
// limit leave the corresponding field nil so the validation rule chain
// can name what is missing.
func EnrichWithAccounts(aggs []domain.MonthlyAggregate, accounts map[string]accountdomain.Account) []domain.EnrichedAggregate {
	out := make([]domain.EnrichedAggregate, 0, len(aggs))
	for _, agg := range aggs {
		rec := domain.EnrichedAggregate{MonthlyAggregate: agg}
		if acc, ok := accounts[agg.AccountID]; ok {
			if name := strings.TrimSpace(acc.CustomerName); name != "" {
				rec.CustomerName = &name
			}
			if acc.OrderLimit > 0 {
				limit := acc.OrderLimit
				rec.OrderLimit = &limit
			}
		}
		out = append(out, rec)
	}
	return out
}
