package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/layout-planner/internal/application"
	"github.com/eugenenazirov/layout-planner/internal/config"
	"github.com/eugenenazirov/layout-planner/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("layout-planner", "Print Layout Planner - computes layouts and print runs covering item demand with the fewest total runs")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	port := kingpinApp.Flag("port", "HTTP port exposed by the service").String()
	maxLayoutsFlag := kingpinApp.Flag("max-layouts", "Maximum number of distinct layouts per plan").Default("0").Int()
	capacityFlag := kingpinApp.Flag("capacity", "Number of item slots on one sheet of a layout").Default("0").Int()
	maxPrintRunsFlag := kingpinApp.Flag("max-print-runs", "Upper bound on print runs per layout").Default("0").Int()
	timeBudgetFlag := kingpinApp.Flag("time-budget", "Wall-clock budget per solve (e.g. 300s)").Default("0").Duration()
	rateLimitRPSFlag := kingpinApp.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := kingpinApp.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}

	if *port != "" {
		overrides.Port = port
	}

	if *maxLayoutsFlag > 0 {
		overrides.MaxLayouts = maxLayoutsFlag
	}

	if *capacityFlag > 0 {
		overrides.Capacity = capacityFlag
	}

	if *maxPrintRunsFlag > 0 {
		overrides.MaxPrintRuns = maxPrintRunsFlag
	}

	if *timeBudgetFlag > 0 {
		overrides.TimeBudget = timeBudgetFlag
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
