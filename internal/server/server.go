// Package server exposes the analysis reports over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cohortdomain "github.com/gioariciaga/sql-analysis/internal/cohort/domain"
	"github.com/gioariciaga/sql-analysis/internal/config"
	"github.com/gioariciaga/sql-analysis/internal/observability"
	obsmiddleware "github.com/gioariciaga/sql-analysis/internal/observability/logger"
	obstracing "github.com/gioariciaga/sql-analysis/internal/observability/tracing"
	scoringdomain "github.com/gioariciaga/sql-analysis/internal/scoring/domain"
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
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
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

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
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
	scoringSvc scoringdomain.Service
	cohortSvc  cohortdomain.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	ScoringSvc scoringdomain.Service
	CohortSvc  cohortdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		scoringSvc: p.ScoringSvc,
		cohortSvc:  p.CohortSvc,
	}

	svc.registerReportRoutes()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerReportRoutes() {
	reports := s.engine.Group("/v1/reports")

	reports.GET("/health", s.GetHealthReport)
	reports.GET("/churn", s.GetChurnReport)
	reports.GET("/expansion", s.GetExpansionReport)
	reports.GET("/trend", s.GetTrendReport)
	reports.GET("/cohorts", s.GetCohortReport)
}
