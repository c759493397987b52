package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	accountdomain "github.com/smallbiznis/orderpulse/internal/account/domain"
	"github.com/smallbiznis/orderpulse/internal/clock"
	"github.com/smallbiznis/orderpulse/internal/config"
	obsmetrics "github.com/smallbiznis/orderpulse/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/orderpulse/internal/order/domain"
	"github.com/smallbiznis/orderpulse/internal/orderprofile/domain"
	"github.com/smallbiznis/orderpulse/pkg/db/option"
	"github.com/smallbiznis/orderpulse/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// listRunsLimit caps the run listing.
const listRunsLimit = 20

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	risk    *config.RiskConfigHolder
	metrics *obsmetrics.Metrics

	accountRepo     repository.Repository[accountdomain.Account]
	orderRepo       repository.Repository[orderdomain.Order]
	transactionRepo repository.Repository[orderdomain.Transaction]
	runRepo         repository.Repository[domain.PipelineRun]
	resultRepo      repository.Repository[domain.ResultRecord]
	heldRepo        repository.Repository[domain.HeldRecord]
	ragRepo         repository.Repository[domain.RAGRecord]
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Risk    *config.RiskConfigHolder
	Metrics *obsmetrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("orderprofile.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		risk:    p.Risk,
		metrics: p.Metrics,

		accountRepo:     repository.ProvideStore[accountdomain.Account](p.DB),
		orderRepo:       repository.ProvideStore[orderdomain.Order](p.DB),
		transactionRepo: repository.ProvideStore[orderdomain.Transaction](p.DB),
		runRepo:         repository.ProvideStore[domain.PipelineRun](p.DB),
		resultRepo:      repository.ProvideStore[domain.ResultRecord](p.DB),
		heldRepo:        repository.ProvideStore[domain.HeldRecord](p.DB),
		ragRepo:         repository.ProvideStore[domain.RAGRecord](p.DB),
	}
}

// Run executes the pipeline end to end: load inputs, compute the
// latest-month outputs, persist them under a fresh run id, and close
// the run row out. The compute stages are pure; everything the run
// depends on (inputs, thresholds, clock) is captured before they start,
// so a rerun over unchanged inputs yields identical output streams.
func (s *Service) Run(ctx context.Context) (*domain.PipelineRun, error) {
	run := &domain.PipelineRun{
		ID:        s.genID.Generate(),
		TraceID:   uuid.NewString(),
		Status:    domain.RunStatusRunning,
		StartedAt: s.clock.Now(),
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, err
	}

	log := s.log.With(
		zap.String("run_id", run.ID.String()),
		zap.String("trace_id", run.TraceID),
	)
	log.Info("pipeline run started")

	out, err := s.compute(ctx)
	if err != nil {
		s.failRun(ctx, run, err)
		log.Error("pipeline run failed", zap.Error(err))
		return nil, err
	}

	finishedAt := s.clock.Now()
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range out.results {
			rec.RunID = run.ID
		}
		for _, rec := range out.held {
			rec.RunID = run.ID
		}
		for _, rec := range out.rag {
			rec.RunID = run.ID
		}

		if err := s.resultRepo.WithTrx(tx).BatchCreate(ctx, out.results); err != nil {
			return err
		}
		if err := s.heldRepo.WithTrx(tx).BatchCreate(ctx, out.held); err != nil {
			return err
		}
		if err := s.ragRepo.WithTrx(tx).BatchCreate(ctx, out.rag); err != nil {
			return err
		}

		return tx.Model(&domain.PipelineRun{}).
			Where("id = ?", run.ID).
			Updates(map[string]interface{}{
				"status":       domain.RunStatusSucceeded,
				"finished_at":  finishedAt,
				"latest_month": out.latestMonth,
				"result_count": len(out.results),
				"held_count":   len(out.held),
				"rag_count":    len(out.rag),
				"stats":        out.stats,
			}).Error
	}); err != nil {
		s.failRun(ctx, run, err)
		log.Error("pipeline run failed", zap.Error(err))
		return nil, err
	}

	run.Status = domain.RunStatusSucceeded
	run.FinishedAt = &finishedAt
	run.LatestMonth = out.latestMonth
	run.ResultCount = len(out.results)
	run.HeldCount = len(out.held)
	run.RAGCount = len(out.rag)
	run.Stats = out.stats

	s.recordRunMetrics(ctx, out)
	log.Info("pipeline run succeeded",
		zap.Int("result_count", run.ResultCount),
		zap.Int("held_count", run.HeldCount),
		zap.Int("rag_count", run.RAGCount),
	)
	return run, nil
}

func (s *Service) GetRun(ctx context.Context, id string) (*domain.PipelineRun, error) {
	runID, err := snowflake.ParseString(id)
	if err != nil {
		return nil, domain.ErrInvalidRunID
	}

	run, err := s.runRepo.FindOne(ctx, &domain.PipelineRun{ID: runID})
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, domain.ErrRunNotFound
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Service) ListRuns(ctx context.Context) ([]*domain.PipelineRun, error) {
	return s.runRepo.Find(ctx, &domain.PipelineRun{},
		option.WithOrder("id DESC"),
		option.WithLimit(listRunsLimit),
	)
}
