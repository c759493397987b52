package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/orderpulse/internal/config"
	ingestdomain "github.com/smallbiznis/orderpulse/internal/ingest/domain"
	"github.com/smallbiznis/orderpulse/internal/observability"
	obsmiddleware "github.com/smallbiznis/orderpulse/internal/observability/logger"
	obstracing "github.com/smallbiznis/orderpulse/internal/observability/tracing"
	profiledomain "github.com/smallbiznis/orderpulse/internal/orderprofile/domain"
	reportdomain "github.com/smallbiznis/orderpulse/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug: obsCfg.Debug(),
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	ingestSvc  ingestdomain.Service
	profileSvc profiledomain.Service
	reportSvc  reportdomain.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	IngestSvc  ingestdomain.Service
	ProfileSvc profiledomain.Service
	ReportSvc  reportdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		ingestSvc:  p.IngestSvc,
		profileSvc: p.ProfileSvc,
		reportSvc:  p.ReportSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	api.POST("/ingest", s.Ingest)

	api.POST("/runs", s.CreateRun)
	api.GET("/runs", s.ListRuns)
	api.GET("/runs/:id", s.GetRun)

	reports := api.Group("/reports/latest")
	reports.GET("/results", s.LatestResults)
	reports.GET("/held", s.LatestHeld)
	reports.GET("/rag", s.LatestRAG)
	reports.GET("/summary", s.Summary)
	reports.GET("/risk", s.RiskSummary)
	reports.GET("/scores", s.RiskScores)
	reports.GET("/customers", s.CustomerSummaries)
}
