package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/trackheat/internal/api"
	"github.com/jengzang/trackheat/internal/config"
	"github.com/jengzang/trackheat/internal/database"
	"github.com/jengzang/trackheat/internal/density"
	"github.com/jengzang/trackheat/internal/handler"
	"github.com/jengzang/trackheat/internal/location"
	"github.com/jengzang/trackheat/internal/logging"
	"github.com/jengzang/trackheat/internal/middleware"
	"github.com/jengzang/trackheat/internal/repository"
	"github.com/jengzang/trackheat/internal/service"
	"github.com/jengzang/trackheat/internal/supervisor"
	"github.com/jengzang/trackheat/internal/tracking"
)

var issueToken = flag.String("issue-token", "", "Print a bearer token for the given subject and exit")

func main() {
	flag.Parse()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Caller: cfg.Log.Caller})
	log := logging.Component("main")

	if *issueToken != "" {
		token, err := middleware.IssueToken([]byte(cfg.Auth.JWTSecret), *issueToken, cfg.Auth.TokenTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to issue token")
		}
		fmt.Println(token)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logging.Component("main")

	// 初始化数据库
	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	source, closer, err := newSource(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	accuracy, err := location.ParseAccuracy(cfg.Tracking.Accuracy)
	if err != nil {
		return err
	}

	session := tracking.NewSession(repository.NewLocationRepository(db), source, tracking.Config{
		Sampler: tracking.SamplerConfig{
			Interval:        cfg.Tracking.Interval,
			FixTimeout:      cfg.Tracking.FixTimeout,
			FirstFixTimeout: cfg.Tracking.FirstFixTimeout,
			InsertTimeout:   cfg.Tracking.InsertTimeout,
			Accuracy:        accuracy,
		},
		FailureAlertThreshold: cfg.Tracking.FailureAlertThreshold,
	})

	engine := density.NewEngine(density.Config{IndexMinPoints: cfg.Density.IndexMinPoints})

	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, 0)
		defer limiter.Stop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.SetupRouter(cfg, api.Handlers{
		Tracking: handler.NewTrackingHandler(session),
		Heatmap:  handler.NewHeatmapHandler(service.NewHeatmapService(session, engine)),
	}, limiter)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.Component("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.Add(supervisor.NewTrackingService(session, cfg.Tracking.Autostart))
	tree.Add(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	log.Info().
		Str("addr", cfg.Server.Port).
		Str("provider", cfg.Location.Provider).
		Bool("auth", cfg.Auth.Enabled).
		Msg("server starting")

	err = tree.Serve(ctx)
	session.Stop()
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
