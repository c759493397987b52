package service

import (
	"context"
	"time"

	accountdomain "github.com/smallbiznis/orderpulse/internal/account/domain"
	orderdomain "github.com/smallbiznis/orderpulse/internal/order/domain"
	"github.com/smallbiznis/orderpulse/internal/orderprofile/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type pipelineOutputs struct {
	latestMonth *time.Time
	results     []*domain.ResultRecord
	held        []*domain.HeldRecord
	rag         []*domain.RAGRecord
	stats       datatypes.JSONMap
}

// compute runs the pure pipeline stages over a snapshot of the input
// tables and builds the persisted latest-month rows.
func (s *Service) compute(ctx context.Context) (*pipelineOutputs, error) {
	accounts, err := s.loadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.loadOrders(ctx)
	if err != nil {
		return nil, err
	}
	transactions, err := s.loadTransactions(ctx)
	if err != nil {
		return nil, err
	}

	riskCfg := s.risk.Get()

	inScopeOrders := FilterOrders(orders)
	inScopeTxns := FilterTransactions(transactions)
	enrichedOrders := JoinPayments(inScopeOrders, inScopeTxns)
	aggregates := AggregateMonthly(enrichedOrders)

	stats := datatypes.JSONMap{
		"accounts":              len(accounts),
		"orders":                len(orders),
		"orders_in_scope":       len(inScopeOrders),
		"transactions":          len(transactions),
		"transactions_in_scope": len(inScopeTxns),
		"aggregates":            len(aggregates),
	}

	if len(aggregates) == 0 {
		return &pipelineOutputs{stats: stats}, nil
	}

	latest, _ := LatestMonth(aggregates)

	accountIndex := AccountsByID(accounts)
	trends := ComputeTrends(aggregates)
	classified := Classify(trends, accountIndex, riskCfg.Thresholds)

	enriched := EnrichWithAccounts(aggregates, accountIndex)
	validated := Validate(enriched, s.clock, riskCfg.Validation.StaleOrderDays)
	accepted, held := Route(validated)

	out := &pipelineOutputs{
		latestMonth: &latest,
		stats:       stats,
	}

	for _, rec := range accepted {
		if !rec.Month.Equal(latest) {
			continue
		}
		out.results = append(out.results, &domain.ResultRecord{
			AccountID:     rec.AccountID,
			CustomerName:  *rec.CustomerName,
			OrderMonth:    rec.Month,
			MonthlyTotal:  rec.MonthlyTotal,
			OrderCount:    rec.OrderCount,
			TotalProducts: rec.TotalProducts,
			OrderLimit:    *rec.OrderLimit,
		})
	}
	for _, rec := range held {
		if !rec.Month.Equal(latest) {
			continue
		}
		out.held = append(out.held, &domain.HeldRecord{
			AccountID:     rec.AccountID,
			CustomerName:  rec.CustomerName,
			OrderMonth:    rec.Month,
			MonthlyTotal:  rec.MonthlyTotal,
			OrderCount:    rec.OrderCount,
			TotalProducts: rec.TotalProducts,
			OrderLimit:    rec.OrderLimit,
			HoldReason:    string(*rec.HoldReason),
			HoldTimestamp: *rec.HoldTimestamp,
		})
	}
	for _, rec := range classified {
		if !rec.Month.Equal(latest) {
			continue
		}
		out.rag = append(out.rag, &domain.RAGRecord{
			AccountID:          rec.AccountID,
			CustomerName:       rec.CustomerName,
			OrderMonth:         rec.Month,
			CurrentMonthTotal:  rec.MonthlyTotal,
			PreviousMonthTotal: rec.PreviousMonthTotal,
			PercentageChange:   rec.PercentageChange,
			OrderCount:         rec.OrderCount,
			OrderLimit:         rec.OrderLimit,
			RAGStatus:          string(rec.RAGStatus),
			LimitExceeded:      rec.LimitExceeded,
		})
	}

	sortResults(out.results)
	sortHeld(out.held)
	sortRAG(out.rag)

	// ids are minted after sorting so id order is the canonical stream
	// order
	for _, rec := range out.results {
		rec.ID = s.genID.Generate()
	}
	for _, rec := range out.held {
		rec.ID = s.genID.Generate()
	}
	for _, rec := range out.rag {
		rec.ID = s.genID.Generate()
	}

	stats["latest_month"] = latest.Format("2006-01")
	stats["result_count"] = len(out.results)
	stats["held_count"] = len(out.held)
	stats["rag_count"] = len(out.rag)

	return out, nil
}

func (s *Service) loadAccounts(ctx context.Context) ([]accountdomain.Account, error) {
	rows, err := s.accountRepo.Find(ctx, &accountdomain.Account{})
	if err != nil {
		return nil, err
	}
	return deref(rows), nil
}

func (s *Service) loadOrders(ctx context.Context) ([]orderdomain.Order, error) {
	rows, err := s.orderRepo.Find(ctx, &orderdomain.Order{})
	if err != nil {
		return nil, err
	}
	return deref(rows), nil
}

func (s *Service) loadTransactions(ctx context.Context) ([]orderdomain.Transaction, error) {
	rows, err := s.transactionRepo.Find(ctx, &orderdomain.Transaction{})
	if err != nil {
		return nil, err
	}
	return deref(rows), nil
}

func deref[T any](rows []*T) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	return out
}

func (s *Service) failRun(ctx context.Context, run *domain.PipelineRun, cause error) {
	finishedAt := s.clock.Now()
	if err := s.db.WithContext(ctx).Model(&domain.PipelineRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]interface{}{
			"status":      domain.RunStatusFailed,
			"finished_at": finishedAt,
			"error":       cause.Error(),
		}).Error; err != nil {
		s.log.Warn("failed to mark run as failed",
			zap.String("run_id", run.ID.String()),
			zap.Error(err),
		)
	}
	s.metrics.IncPipelineRun(ctx, domain.RunStatusFailed)
}

func (s *Service) recordRunMetrics(ctx context.Context, out *pipelineOutputs) {
	s.metrics.IncPipelineRun(ctx, domain.RunStatusSucceeded)
	s.metrics.AddRouted(ctx, "result", "", len(out.results))

	heldByReason := make(map[string]int)
	for _, rec := range out.held {
		heldByReason[rec.HoldReason]++
	}
	for reason, n := range heldByReason {
		s.metrics.AddRouted(ctx, "held", reason, n)
	}

	ragByStatus := make(map[string]int)
	for _, rec := range out.rag {
		ragByStatus[rec.RAGStatus]++
	}
	for status, n := range ragByStatus {
		s.metrics.AddRAG(ctx, status, n)
	}
}
