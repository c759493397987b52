// Package scheduler triggers pipeline runs on a fixed interval for
// deployments that want fresh reports without an external cron.
package scheduler

import (
	"context"
	"errors"
	"time"

	profiledomain "github.com/smallbiznis/orderpulse/internal/orderprofile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	Log        *zap.Logger
	ProfileSvc profiledomain.Service
	Config     Config `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	profileSvc profiledomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.ProfileSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler"),
		cfg:        p.Config.withDefaults(),
		profileSvc: p.ProfileSvc,
	}, nil
}

// RunOnce executes a single pipeline run under the configured timeout.
// A timeout is logged and swallowed so the loop keeps its cadence.
func (s *Scheduler) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.RunTimeout)
	defer cancel()

	run, err := s.profileSvc.Run(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.log.Warn("scheduled run timed out", zap.Duration("timeout", s.cfg.RunTimeout))
			return nil
		}
		return err
	}

	s.log.Info("scheduled run completed",
		zap.String("run_id", run.ID.String()),
		zap.Int("result_count", run.ResultCount),
		zap.Int("held_count", run.HeldCount),
	)
	return nil
}

// RunForever loops until the context is cancelled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	s.log.Info("scheduler started", zap.Duration("interval", s.cfg.RunInterval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.log.Error("scheduled run failed", zap.Error(err))
			}
		}
	}
}
