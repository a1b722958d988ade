package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/quickinvoice/internal/clock"
	"github.com/smallbiznis/quickinvoice/internal/config"
	"github.com/smallbiznis/quickinvoice/internal/invoice"
	"github.com/smallbiznis/quickinvoice/internal/invoice/render"
	"github.com/smallbiznis/quickinvoice/internal/observability"
	obsmiddleware "github.com/smallbiznis/quickinvoice/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/quickinvoice/internal/observability/metrics"
	obstracing "github.com/smallbiznis/quickinvoice/internal/observability/tracing"
	"github.com/smallbiznis/quickinvoice/internal/ratelimit"
	"github.com/smallbiznis/quickinvoice/internal/wizard"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	config.Module,
	clock.Module,
	invoice.Module,
	ratelimit.Module,
	wizard.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
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
	engine   *gin.Engine
	cfg      config.Config
	log      *zap.Logger
	store    *wizard.Store
	renderer render.Renderer
	defaults *config.InvoiceDefaultsHolder
	clock    clock.Clock
	limiter  *ratelimit.GenerateLimiter
	metrics  *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin      *gin.Engine
	Cfg      config.Config
	Log      *zap.Logger
	Store    *wizard.Store
	Renderer render.Renderer
	Defaults *config.InvoiceDefaultsHolder `optional:"true"`
	Limiter  *ratelimit.GenerateLimiter    `optional:"true"`
	Metrics  *obsmetrics.Metrics           `optional:"true"`
	Clock    clock.Clock                   `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	svc := &Server{
		engine:   p.Gin,
		cfg:      p.Cfg,
		log:      log.Named("wizard.http"),
		store:    p.Store,
		renderer: p.Renderer,
		defaults: p.Defaults,
		clock:    clk,
		limiter:  p.Limiter,
		metrics:  p.Metrics,
	}
	svc.RegisterRoutes()
	return svc
}

func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api")

	wizards := api.Group("/wizards")
	wizards.POST("", s.CreateWizard)
	wizards.GET("/:id", s.GetWizard)
	wizards.DELETE("/:id", s.DeleteWizard)

	wizards.PATCH("/:id/business", s.UpdateBusiness)
	wizards.PATCH("/:id/customer", s.UpdateCustomer)
	wizards.PATCH("/:id/meta", s.UpdateMeta)

	wizards.POST("/:id/items", s.AddItem)
	wizards.PATCH("/:id/items/:itemId", s.UpdateItem)
	wizards.DELETE("/:id/items/:itemId", s.RemoveItem)

	wizards.POST("/:id/advance", s.Advance)
	wizards.POST("/:id/retreat", s.Retreat)
	wizards.POST("/:id/jump", s.JumpTo)

	wizards.GET("/:id/preview", s.Preview)
	wizards.POST("/:id/generate", s.GenerateRateLimit(), s.Generate)
}
