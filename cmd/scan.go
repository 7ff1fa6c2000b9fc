package cmd

import (
	"context"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/RealRedbaron07/JobApplier/internal/filtering"
	"github.com/RealRedbaron07/JobApplier/internal/jobs"
	"github.com/RealRedbaron07/JobApplier/internal/logger"
	"github.com/RealRedbaron07/JobApplier/internal/store"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover and score postings without applying",
	Run: func(cmd *cobra.Command, _ []string) {
		scan(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().IntP("top", "n", 0, "report only the N best postings")
}

func scan(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config.Profile == "" {
		logger.Fatal("candidate profile path is required under 'profile'")
	}

	candidate, err := jobs.LoadCandidate(config.Profile)
	if err != nil {
		logger.Fatal("loading candidate profile", zap.Error(err))
	}

	db, err := store.Open(filepath.Join(dataDir(config), "jobapplier.db"), logger)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err))
	}
	defer db.Close()

	postings := discoverPostings(ctx, config, logger)
	if len(postings) == 0 {
		logger.Info("exiting", zap.String("reason", "no postings discovered"))
		return
	}

	results := scoreAndStore(ctx, db, config, candidate, postings, logger)

	// The scan reports everything scoreable; applied-history and the score
	// threshold stay out of the way here.
	steps := []filtering.Filter{
		filtering.NewDedupe(),
		filtering.NewApplyable(),
	}

	postings, err = filtering.Run(ctx, logger, steps, postings)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	sortByScore(postings, results)

	if top, err := cmd.Flags().GetInt("top"); err == nil && top > 0 && top < len(postings) {
		postings = postings[:top]
	}

	printReport(postings, results, logger)
	logger.Info("scan finished",
		zap.Int("postings", len(postings)),
		zap.Int("min_score", minScore(config)),
	)
}
