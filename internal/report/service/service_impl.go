package service

import (
	"context"

	orderdomain "github.com/smallbiznis/orderpulse/internal/order/domain"
	profiledomain "github.com/smallbiznis/orderpulse/internal/orderprofile/domain"
	profileservice "github.com/smallbiznis/orderpulse/internal/orderprofile/service"
	"github.com/smallbiznis/orderpulse/internal/report/domain"
	"github.com/smallbiznis/orderpulse/pkg/db/option"
	"github.com/smallbiznis/orderpulse/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ragOrder ranks RED before AMBER before GREEN, largest change first
// within a tier, unknown changes last.
const ragOrder = `CASE rag_status WHEN 'RED' THEN 1 WHEN 'AMBER' THEN 2 ELSE 3 END,
	(percentage_change IS NULL) ASC, percentage_change DESC, account_id ASC`

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	runRepo    repository.Repository[profiledomain.PipelineRun]
	resultRepo repository.Repository[profiledomain.ResultRecord]
	heldRepo   repository.Repository[profiledomain.HeldRecord]
}

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("report.service"),

		runRepo:    repository.ProvideStore[profiledomain.PipelineRun](p.DB),
		resultRepo: repository.ProvideStore[profiledomain.ResultRecord](p.DB),
		heldRepo:   repository.ProvideStore[profiledomain.HeldRecord](p.DB),
	}
}

// latestRun resolves the most recent succeeded run. Reports never read
// from running or failed runs.
func (s *Service) latestRun(ctx context.Context) (*profiledomain.PipelineRun, error) {
	run, err := s.runRepo.FindOne(ctx,
		&profiledomain.PipelineRun{Status: profiledomain.RunStatusSucceeded},
		option.WithOrder("id DESC"),
	)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, domain.ErrNoCompletedRun
	}
	return run, nil
}

func (s *Service) LatestResults(ctx context.Context) (*domain.ResultsReport, error) {
	run, err := s.latestRun(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.resultRepo.Find(ctx,
		&profiledomain.ResultRecord{RunID: run.ID},
		option.WithOrder("account_id ASC"),
	)
	if err != nil {
		return nil, err
	}

	report := &domain.ResultsReport{
		RunID:       run.ID.String(),
		LatestMonth: run.LatestMonth,
		Records:     make([]profiledomain.ResultRecord, 0, len(rows)),
	}
	for _, row := range rows {
		report.Records = append(report.Records, *row)
	}
	return report, nil
}

func (s *Service) LatestHeld(ctx context.Context) (*domain.HeldReport, error) {
	run, err := s.latestRun(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.heldRepo.Find(ctx,
		&profiledomain.HeldRecord{RunID: run.ID},
		option.WithOrder("hold_reason ASC, account_id ASC"),
	)
	if err != nil {
		return nil, err
	}

	report := &domain.HeldReport{
		RunID:       run.ID.String(),
		LatestMonth: run.LatestMonth,
		Records:     make([]profiledomain.HeldRecord, 0, len(rows)),
	}
	for _, row := range rows {
		report.Records = append(report.Records, *row)
	}
	return report, nil
}

func (s *Service) LatestRAG(ctx context.Context) (*domain.RAGReport, error) {
	run, err := s.latestRun(ctx)
	if err != nil {
		return nil, err
	}

	var rows []profiledomain.RAGRecord
	if err := s.db.WithContext(ctx).
		Where("run_id = ?", run.ID).
		Order(ragOrder).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	report := &domain.RAGReport{
		RunID:       run.ID.String(),
		LatestMonth: run.LatestMonth,
		Records:     make([]domain.RAGRow, 0, len(rows)),
	}
	for _, row := range rows {
		out := domain.RAGRow{
			AccountID:          row.AccountID,
			CustomerName:       row.CustomerName,
			OrderMonth:         row.OrderMonth,
			CurrentMonthTotal:  row.CurrentMonthTotal,
			PreviousMonthTotal: row.PreviousMonthTotal,
			OrderCount:         row.OrderCount,
			OrderLimit:         row.OrderLimit,
			RAGStatus:          row.RAGStatus,
			LimitExceeded:      row.LimitExceeded,
		}
		if row.PercentageChange != nil {
			rounded := profileservice.RoundPercentage(*row.PercentageChange)
			out.PercentageChange = &rounded
		}
		report.Records = append(report.Records, out)
	}
	return report, nil
}

func (s *Service) Summary(ctx context.Context) (*domain.Summary, error) {
	run, err := s.latestRun(ctx)
	if err != nil {
		return nil, err
	}

	summary := &domain.Summary{
		RunID:       run.ID.String(),
		LatestMonth: run.LatestMonth,
		Holding:     []domain.HoldingBreakdown{},
		RAG:         []domain.RAGDistribution{},
	}

	if err := s.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS total_records,
		       COALESCE(SUM(monthly_total), 0) AS total_amount,
		       COALESCE(SUM(order_count), 0) AS total_orders
		FROM result_records
		WHERE run_id = ?`, run.ID).
		Scan(&summary.Results).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Raw(`
		SELECT hold_reason, COUNT(*) AS count
		FROM held_records
		WHERE run_id = ?
		GROUP BY hold_reason
		ORDER BY count DESC, hold_reason ASC`, run.ID).
		Scan(&summary.Holding).Error; err != nil {
		return nil, err
	}

	var tiers []struct {
		RAGStatus    string
		Count        int
		TotalRevenue float64
		AvgChange    *float64
	}
	if err := s.db.WithContext(ctx).Raw(`
		SELECT rag_status, COUNT(*) AS count,
		       COALESCE(SUM(current_month_total), 0) AS total_revenue,
		       AVG(percentage_change) AS avg_change
		FROM rag_records
		WHERE run_id = ?
		GROUP BY rag_status
		ORDER BY CASE rag_status WHEN 'RED' THEN 1 WHEN 'AMBER' THEN 2 ELSE 3 END`, run.ID).
		Scan(&tiers).Error; err != nil {
		return nil, err
	}

	total := 0
	for _, tier := range tiers {
		total += tier.Count
	}
	for _, tier := range tiers {
		dist := domain.RAGDistribution{
			RAGStatus:    tier.RAGStatus,
			Count:        tier.Count,
			TotalRevenue: tier.TotalRevenue,
		}
		if total > 0 {
			dist.Percentage = profileservice.RoundPercentage(float64(tier.Count) / float64(total) * 100)
		}
		if tier.AvgChange != nil {
			avg := profileservice.RoundPercentage(*tier.AvgChange)
			dist.AvgChange = &avg
		}
		summary.RAG = append(summary.RAG, dist)
	}
	return summary, nil
}

func (s *Service) RiskSummary(ctx context.Context) (*domain.RiskSummary, error) {
	run, err := s.latestRun(ctx)
	if err != nil {
		return nil, err
	}

	summary := &domain.RiskSummary{
		RunID:       run.ID.String(),
		LatestMonth: run.LatestMonth,
	}
	if err := s.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS total_accounts,
		       COALESCE(SUM(CASE WHEN rag_status = 'RED' THEN 1 ELSE 0 END), 0) AS red_accounts,
		       COALESCE(SUM(CASE WHEN rag_status = 'AMBER' THEN 1 ELSE 0 END), 0) AS amber_accounts,
		       COALESCE(SUM(CASE WHEN rag_status = 'GREEN' THEN 1 ELSE 0 END), 0) AS green_accounts,
		       COALESCE(SUM(CASE WHEN limit_exceeded THEN 1 ELSE 0 END), 0) AS limit_exceeded
		FROM rag_records
		WHERE run_id = ?`, run.ID).
		Scan(summary).Error; err != nil {
		return nil, err
	}
	return summary, nil
}

// CustomerSummaries reads the input tables directly: it is a lifetime
// view across all months, not a run artifact.
func (s *Service) CustomerSummaries(ctx context.Context) ([]domain.CustomerOrderSummary, error) {
	rows := []domain.CustomerOrderSummary{}
	if err := s.db.WithContext(ctx).Raw(`
		SELECT a.account_id,
		       a.customer_name,
		       COUNT(o.order_id) AS total_orders,
		       COALESCE(SUM(o.total_amount), 0) AS total_spend,
		       COALESCE(AVG(o.total_amount), 0) AS avg_order_value,
		       MIN(o.order_date) AS first_order_date,
		       MAX(o.order_date) AS last_order_date
		FROM accounts a
		LEFT JOIN orders o
		       ON o.account_id = a.account_id
		      AND o.status IN (?, ?)
		GROUP BY a.account_id, a.customer_name
		ORDER BY a.account_id`,
		orderdomain.OrderStatusCompleted, orderdomain.OrderStatusPending).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
