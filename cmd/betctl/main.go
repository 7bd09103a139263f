// Package main provides betctl, a CLI for the wager ledger.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/gridline/internal/betting"
	"github.com/yourusername/gridline/internal/config"
	"github.com/yourusername/gridline/internal/database"
	applogger "github.com/yourusername/gridline/internal/logger"
	"github.com/yourusername/gridline/internal/models"
	"github.com/yourusername/gridline/internal/repository"
)

var (
	configFile string
	logger     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories
	bets       *betting.Ledger
)

var (
	season      int
	round       int
	driver      string
	betType     string
	odds        float64
	stake       float64
	probability float64
	bookmaker   string
	reasoning   string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	placeCmd.Flags().IntVar(&season, "season", 0, "Race season")
	placeCmd.Flags().IntVar(&round, "round", 0, "Race round")
	placeCmd.Flags().StringVar(&driver, "driver", "", "Driver the bet is on")
	placeCmd.Flags().StringVar(&betType, "type", "win", "Bet type (win, podium, points, topN, pN)")
	placeCmd.Flags().Float64Var(&odds, "odds", 0, "Decimal odds")
	placeCmd.Flags().Float64Var(&stake, "stake", 0, "Stake amount")
	placeCmd.Flags().Float64Var(&probability, "probability", 0, "Model probability for the outcome")
	placeCmd.Flags().StringVar(&bookmaker, "bookmaker", "", "Bookmaker the bet was placed with")
	placeCmd.Flags().StringVar(&reasoning, "reasoning", "", "Why the bet was placed")
	for _, name := range []string{"season", "round", "driver", "odds", "stake"} {
		_ = placeCmd.MarkFlagRequired(name)
	}

	settleCmd.Flags().IntVar(&season, "season", 0, "Race season")
	settleCmd.Flags().IntVar(&round, "round", 0, "Race round")
	_ = settleCmd.MarkFlagRequired("season")
	_ = settleCmd.MarkFlagRequired("round")
}

var rootCmd = &cobra.Command{
	Use:   "betctl",
	Short: "Manage wagers against predicted race outcomes",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

var placeCmd = &cobra.Command{
	Use:   "place",
	Short: "Place a wager on a race outcome",
	RunE: func(cmd *cobra.Command, args []string) error {
		return placeWager(cmd.Context())
	},
}

var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Settle a race's pending wagers against recorded results",
	RunE: func(cmd *cobra.Command, args []string) error {
		return settleEvent(cmd.Context())
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show betting performance",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStats(cmd.Context())
	},
}

func main() {
	rootCmd.AddCommand(placeCmd, settleCmd, statsCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setup(ctx context.Context) error {
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

	logger = applogger.NewLogger("warn", cfg.App.Environment)

	db, err = database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	repos, err = repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	bets = betting.NewLedger(repos.Wager, repos.Feedback, logger)
	return nil
}

func findEvent(ctx context.Context, season, round int) (*models.Event, error) {
	events, err := repos.Event.GetBySeason(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("failed to load season %d: %w", season, err)
	}
	for i := range events {
		if events[i].Round == round {
			return &events[i], nil
		}
	}
	return nil, fmt.Errorf("no event found for season %d round %d", season, round)
}

func placeWager(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	event, err := findEvent(ctx, season, round)
	if err != nil {
		return err
	}

	parsed, err := models.ParseBetType(betType)
	if err != nil {
		return err
	}

	wager := &models.Wager{
		EventID:              event.ID,
		EventKey:             event.Key(),
		Driver:               driver,
		Type:                 parsed,
		Odds:                 odds,
		Stake:                stake,
		PredictedProbability: probability,
		Bookmaker:            bookmaker,
		Reasoning:            reasoning,
	}
	if err := bets.Place(ctx, wager); err != nil {
		return err
	}

	fmt.Printf("Placed %s bet on %s at %.2f for %.2f (%s)\n",
		wager.Type.String(), wager.Driver, wager.Odds, wager.Stake, event.Name)
	fmt.Printf("Wager ID: %s\n", wager.ID)
	return nil
}

func settleEvent(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	event, err := findEvent(ctx, season, round)
	if err != nil {
		return err
	}

	if !event.IsCancelled() {
		results, err := repos.Result.GetByEventID(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("failed to load results: %w", err)
		}
		if len(results) == 0 {
			return fmt.Errorf("no results recorded for %s yet", event.Name)
		}
		if err := bets.SettleRace(ctx, event, results); err != nil {
			return err
		}
		fmt.Printf("Settled wagers for %s against %d classified rows\n", event.Name, len(results))
		return nil
	}

	if err := bets.SettleRace(ctx, event, nil); err != nil {
		return err
	}
	fmt.Printf("%s is cancelled; pending wagers voided\n", event.Name)
	return nil
}

func showStats(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	stats, err := bets.PerformanceStats(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Overall performance")
	printStats(stats)

	byType, err := bets.PerformanceByBetType(ctx)
	if err != nil {
		return err
	}
	for name, s := range byType {
		fmt.Printf("\nBet type: %s\n", name)
		printStats(s)
	}
	return nil
}

func printStats(s *betting.PerformanceStats) {
	fmt.Printf("  Bets:        %d (%d won, %d lost, %d void)\n", s.TotalBets, s.Wins, s.Losses, s.Voids)
	fmt.Printf("  Win rate:    %.1f%%\n", s.WinRate)
	fmt.Printf("  Total stake: %.2f\n", s.TotalStake)
	fmt.Printf("  Profit:      %+.2f\n", s.TotalProfit)
	fmt.Printf("  ROI:         %+.1f%%\n", s.ROI)
}
