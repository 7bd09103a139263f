// Package main provides the entry point for the gridline reconciler service.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/gridline/internal/analysis"
	"github.com/yourusername/gridline/internal/betting"
	"github.com/yourusername/gridline/internal/config"
	"github.com/yourusername/gridline/internal/database"
	"github.com/yourusername/gridline/internal/health"
	"github.com/yourusername/gridline/internal/ledger"
	applogger "github.com/yourusername/gridline/internal/logger"
	"github.com/yourusername/gridline/internal/metrics"
	"github.com/yourusername/gridline/internal/models"
	"github.com/yourusername/gridline/internal/reconciler"
	"github.com/yourusername/gridline/internal/repository"
	"github.com/yourusername/gridline/internal/resultsource"
	"github.com/yourusername/gridline/internal/schedule"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile  string
	reportLimit int
	logger      *logrus.Logger
	cfg         *config.Config
	db          *database.DB
	repos       *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	reportCmd.Flags().IntVarP(&reportLimit, "limit", "n", 10, "Number of recent races to include")
}

var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "F1 prediction reconciliation service",
	Long:  `Polls for completed races, records final classifications, scores predictions, and settles wagers.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the polling service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runService()
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd.Context())
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the accuracy report for recent races",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd.Context())
	},
}

func main() {
	rootCmd.AddCommand(runCmd, checkCmd, reportCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger = applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	return nil
}

func setupDatabase(ctx context.Context) error {
	var err error
	db, err = database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	repos, err = repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}
	return nil
}

// buildChain constructs the provider fallback chain in config order
func buildChain() (*resultsource.Chain, []*resultsource.RateLimitedHTTPClient) {
	var (
		sources []resultsource.ResultSource
		clients []*resultsource.RateLimitedHTTPClient
	)

	for _, p := range cfg.Providers {
		httpCfg := resultsource.HTTPClientConfig{
			Timeout:           time.Duration(p.TimeoutSeconds) * time.Second,
			MaxRetries:        p.MaxRetries,
			RetryWait:         time.Duration(p.RetryBackoffSeconds) * time.Second,
			RateLimit:         p.RateLimitPerSecond,
			CircuitBreakerMax: resultsource.DefaultHTTPClientConfig().CircuitBreakerMax,
		}
		httpClient := resultsource.NewRateLimitedHTTPClient(httpCfg, logger)

		switch p.Name {
		case "f1_official":
			sources = append(sources, resultsource.NewF1OfficialClient(httpClient, p.BaseURL, p.APIKey, p.Enabled, logger))
		case "openf1":
			sources = append(sources, resultsource.NewOpenF1Client(httpClient, p.BaseURL, p.Enabled, logger))
		case "ergast":
			sources = append(sources, resultsource.NewErgastClient(httpClient, p.BaseURL, p.Enabled, logger))
		default:
			logger.WithField("provider", p.Name).Warn("Unknown provider in configuration, skipping")
			continue
		}
		clients = append(clients, httpClient)
	}

	return resultsource.NewChain(logger, sources...), clients
}

func runService() error {
	metrics.InitRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := setupDatabase(ctx); err != nil {
		return err
	}
	defer db.Close()

	logger.WithFields(logrus.Fields{
		"version":     Version,
		"environment": cfg.App.Environment,
		"season":      cfg.Schedule.Season,
	}).Info("Gridline reconciler starting")

	chain, clients := buildChain()
	defer func() {
		for _, c := range clients {
			if err := c.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close provider client")
			}
		}
	}()

	calendarClient := resultsource.NewRateLimitedHTTPClient(resultsource.DefaultHTTPClientConfig(), logger)
	calendar := schedule.NewCalendarClient(calendarClient, cfg.Schedule.CalendarURL, logger)
	tracker := schedule.NewTracker(calendar, repos.Event, schedule.TrackerConfig{
		Season:        cfg.Schedule.Season,
		MinHoursAfter: float64(cfg.Schedule.DueWindowMinHours),
		MaxDaysAfter:  float64(cfg.Schedule.DueWindowMaxDays),
		RefreshTTL:    time.Duration(cfg.Schedule.RefreshIntervalHours) * time.Hour,
	}, logger)

	processing := ledger.NewProcessingLedger(repos.ProcessedEvent, logger)
	bets := betting.NewLedger(repos.Wager, repos.Feedback, logger)

	analyzer := analysis.NewAnalyzer(analysis.Config{
		BucketCount:   cfg.Analysis.BucketCount,
		BiasThreshold: cfg.Analysis.BiasThreshold,
		Weights: analysis.Weights{
			Exact:         cfg.Analysis.Weights.Exact,
			Within3:       cfg.Analysis.Weights.Within3,
			Top3:          cfg.Analysis.Weights.Top3,
			Calibration:   cfg.Analysis.Weights.Calibration,
			Top3Precision: cfg.Analysis.Weights.Top3Precision,
		},
	}, logger)
	reporter := analysis.NewReporter(cfg.Analysis.ReportPath, logger)

	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Port:        strconv.Itoa(cfg.Metrics.Port),
		MetricsPath: metricsPath(),
		Logger:      logger,
		DB:          db,
	})
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	rec := reconciler.New(reconciler.Deps{
		Tracker:     tracker,
		Chain:       chain,
		Events:      repos.Event,
		Predictions: repos.Prediction,
		Results:     repos.Result,
		Accuracy:    repos.Accuracy,
		Insights:    repos.Insight,
		Processing:  processing,
		Bets:        bets,
		Analyzer:    analyzer,
		Reporter:    reporter,
		Observer:    healthServer,
	}, cfg.PollInterval(), logger)

	if err := rec.Start(ctx); err != nil {
		return fmt.Errorf("failed to start reconciler: %w", err)
	}
	healthServer.SetReady(true)

	logger.WithField("poll_interval", cfg.PollInterval().String()).Info("Reconciler is running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.WithField("signal", sig.String()).Info("Shutdown signal received")

	healthServer.SetReady(false)
	cancel()
	rec.Stop()

	if err := healthServer.Shutdown(); err != nil {
		logger.WithError(err).Error("Error during health server shutdown")
	}

	logger.Info("Gridline reconciler shut down successfully")
	return nil
}

func metricsPath() string {
	if !cfg.Metrics.Enabled {
		return ""
	}
	return cfg.Metrics.Path
}

func runCheck(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := setupDatabase(checkCtx); err != nil {
		return err
	}
	defer db.Close()

	fmt.Printf("Configuration: OK (%s, season %d)\n", cfg.App.Environment, cfg.Schedule.Season)

	if err := db.Ping(checkCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	fmt.Println("Database: OK")

	chain, clients := buildChain()
	defer func() {
		for _, c := range clients {
			_ = c.Close()
		}
	}()

	enabled := 0
	for _, source := range chain.Sources() {
		state := "disabled"
		if source.Enabled() {
			state = "enabled"
			enabled++
		}
		fmt.Printf("Provider %-12s %s\n", source.Name()+":", state)
	}
	if enabled == 0 {
		return fmt.Errorf("no result providers are enabled")
	}
	return nil
}

func runReport(ctx context.Context) error {
	reportCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := setupDatabase(reportCtx); err != nil {
		return err
	}
	defer db.Close()

	records, err := repos.Accuracy.GetRecent(reportCtx, reportLimit)
	if err != nil {
		return fmt.Errorf("failed to load accuracy records: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No accuracy records yet.")
		return nil
	}

	var insights []models.Insight
	for _, record := range records {
		batch, err := repos.Insight.GetByEventID(reportCtx, record.EventID)
		if err != nil {
			return fmt.Errorf("failed to load insights: %w", err)
		}
		insights = append(insights, batch...)
	}

	fmt.Print(analysis.Render(records, insights))
	return nil
}
