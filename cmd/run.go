package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/RealRedbaron07/JobApplier/internal/autofill"
	"github.com/RealRedbaron07/JobApplier/internal/browser"
	"github.com/RealRedbaron07/JobApplier/internal/discovery"
	"github.com/RealRedbaron07/JobApplier/internal/filtering"
	"github.com/RealRedbaron07/JobApplier/internal/jobs"
	"github.com/RealRedbaron07/JobApplier/internal/logger"
	"github.com/RealRedbaron07/JobApplier/internal/match"
	"github.com/RealRedbaron07/JobApplier/internal/materials"
	"github.com/RealRedbaron07/JobApplier/internal/materials/gemini"
	"github.com/RealRedbaron07/JobApplier/internal/secrets"
	"github.com/RealRedbaron07/JobApplier/internal/store"
)

const (
	PromptYes    = "Yes"
	PromptNo     = "No"
	PromptReport = "Show score report"
)

var prompt = promptui.Select{
	Label: "Proceed with these applications?",
	Items: []string{PromptYes, PromptNo, PromptReport},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full cycle: discover, score, filter and apply",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation if found suitable postings")
	runCmd.Flags().Bool("dry-run", false, "discover, score and filter only; submit nothing")
	runCmd.Flags().BoolP("include-applied", "f", false, "do not exclude postings already applied to")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the jobapplier", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config.Profile == "" {
		logger.Fatal("candidate profile path is required under 'profile'")
	}

	if config.Resume == "" {
		logger.Fatal("resume path is required under 'resume'")
	}

	candidate, err := jobs.LoadCandidate(config.Profile)
	if err != nil {
		logger.Fatal("loading candidate profile", zap.Error(err))
	}

	if _, err := os.Stat(config.Resume); err != nil {
		logger.Fatal("resume file is not readable", zap.Error(err))
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

	filtered, err := runFilters(ctx, cmd, db, config, results, postings, logger)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if len(filtered) == 0 {
		logger.Info("exiting", zap.String("reason", "no postings left after filters"))
		return
	}

	sortByScore(filtered, results)
	logger.Info("postings selected", zap.Int("count", len(filtered)))

	if cmd.Flag("dry-run").Value.String() == "true" {
		printReport(filtered, results, logger)
		logger.Info("exiting", zap.String("reason", "dry run requested"))
		return
	}

	for {
		action := PromptYes
		if cmd.Flag("auto-approve").Value.String() == "false" {
			var err error
			_, action, err = prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		switch action {
		case PromptYes:
			applyAll(ctx, db, config, candidate, filtered, logger)
			return
		case PromptNo:
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		case PromptReport:
			printReport(filtered, results, logger)
		}
	}
}

// discoverPostings runs every configured source and merges their findings.
func discoverPostings(ctx context.Context, config *Config, log *zap.Logger) []jobs.Posting {
	sources := buildSources(config, discoveryLimiter(config), log)
	if len(sources) == 0 {
		log.Warn("no discovery sources configured",
			zap.String("hint", "configure sources.greenhouse, sources.lever or sources.mail"))
		return nil
	}

	return discovery.Gather(ctx, log, sources...)
}

// discoveryLimiter builds the per-host limiter shared by all sources, using
// the browsing pace so discovery never hits a portal harder than the
// application pass would.
func discoveryLimiter(config *Config) *browser.HostLimiter {
	rps := config.Browser.RequestsPerSecond
	if rps <= 0 {
		rps = browser.DefaultRequestsPerSecond
	}
	burst := config.Browser.Burst
	if burst <= 0 {
		burst = browser.DefaultBurst
	}

	return browser.NewHostLimiter(rps, burst)
}

func buildSources(config *Config, limiter *browser.HostLimiter, log *zap.Logger) []discovery.Source {
	if config.Sources == nil {
		return nil
	}

	var sources []discovery.Source

	if len(config.Sources.Greenhouse.Boards) > 0 {
		sources = append(sources, discovery.NewGreenhouse(config.Sources.Greenhouse, limiter, log))
	}

	if len(config.Sources.Lever.Orgs) > 0 {
		sources = append(sources, discovery.NewLever(config.Sources.Lever, limiter, log))
	}

	if mail := config.Sources.Mail; mail.Host != "" && mail.Username != "" {
		password, err := resolveMailPassword(mail)
		if err != nil {
			log.Warn("skipping the mail source",
				zap.Error(err),
				zap.String("hint", "run 'jobapplier secret set-mail-password' or set sources.mail.password-file"),
			)
		} else {
			sources = append(sources, discovery.NewMailAlerts(mail.MailConfig, password, limiter, log))
		}
	}

	return sources
}

// resolveMailPassword loads the IMAP password: the OS keyring first, the
// configured password file as the fallback.
func resolveMailPassword(mail MailSourceConfig) (string, error) {
	account := secrets.KeyringAccount(mail.Username, mail.Host)

	password, keyringErr := secrets.GetMailPassword(account)
	if keyringErr == nil {
		return password, nil
	}

	if strings.TrimSpace(mail.PasswordFile) == "" {
		return "", keyringErr
	}

	return secrets.Load(secrets.Source{
		Name: "mail password",
		File: mail.PasswordFile,
	})
}

// scoreAndStore persists every discovered posting and its score. Storage
// failures are logged per item and never abort the run.
func scoreAndStore(ctx context.Context, db *store.Store, config *Config, candidate *jobs.Candidate, postings []jobs.Posting, log *zap.Logger) map[string]match.Result {
	weights := match.Weights{}
	if config.Match != nil {
		weights = config.Match.Weights
	}
	scorer := match.NewScorer(weights, log)

	results := make(map[string]match.Result, len(postings))
	for _, p := range postings {
		if _, err := db.SavePosting(ctx, p); err != nil {
			log.Warn("storing posting failed", append(logger.PostingFields(p.Title, p.Company), zap.Error(err))...)
		}

		result := scorer.Score(p, candidate)
		results[p.ID] = result

		if err := db.SaveResult(ctx, result); err != nil {
			log.Warn("storing score failed", append(logger.PostingFields(p.Title, p.Company), zap.Error(err))...)
		}
	}

	return results
}

func runFilters(ctx context.Context, cmd *cobra.Command, db *store.Store, config *Config, results map[string]match.Result, postings []jobs.Posting, log *zap.Logger) ([]jobs.Posting, error) {
	steps := []filtering.Filter{
		filtering.NewDedupe(),
		filtering.NewApplyable(),
		filtering.NewAppliedHistory(db),
		filtering.NewCompanyBlocklist(excludedCompanies(config)),
		filtering.NewMinScore(minScore(config), func(jobID string) (int, bool) {
			result, ok := results[jobID]
			return result.Score, ok
		}),
	}

	if cmd != nil {
		flag := cmd.Flag("include-applied")
		if flag != nil && strings.EqualFold(flag.Value.String(), "true") {
			filtering.DisableByName(steps, "applied-history", "include-applied flag is set")
		}
	}

	return filtering.Run(ctx, log, steps, postings)
}

// applyAll walks the application form for every selected posting, recording
// each attempt whatever its outcome.
func applyAll(ctx context.Context, db *store.Store, config *Config, candidate *jobs.Candidate, postings []jobs.Posting, log *zap.Logger) {
	bcfg := config.Browser
	if bcfg.DataDir == "" {
		bcfg.DataDir = filepath.Join(dataDir(config), "session")
	}

	session, err := browser.NewSession(bcfg, log)
	if err != nil {
		log.Fatal("acquiring a browsing session", zap.Error(err))
	}
	defer session.Close()

	machine := autofill.New(session, config.Autofill, log)
	generator := buildGenerator(ctx, config, log)

	submitted := 0
	for _, posting := range postings {
		if ctx.Err() != nil {
			break
		}

		plog := logger.WithPostingFields(log, posting.Title, posting.Company)

		set, err := generator.Prepare(ctx, posting, candidate)
		if err != nil {
			plog.Warn("skipping posting, materials unavailable", zap.Error(err))
			continue
		}

		attempt := machine.Run(ctx, posting, candidate, set)

		if err := db.SaveAttempt(ctx, attempt); err != nil {
			plog.Warn("storing attempt failed", zap.Error(err))
		}

		if attempt.Outcome.Succeeded() {
			submitted++
			plog.Info("application submitted", zap.Int("steps", attempt.Steps))
			continue
		}

		plog.Warn("application not submitted",
			zap.String("outcome", string(attempt.Outcome)),
			zap.String("detail", attempt.Detail),
			zap.String("fallback_url", attempt.FallbackURL),
		)
	}

	log.Info("application pass finished",
		zap.Int("submitted", submitted),
		zap.Int("total", len(postings)),
	)
}

// buildGenerator assembles the cover letter chain: Gemini when configured,
// the offline template next, the pre-written static files last.
func buildGenerator(ctx context.Context, config *Config, log *zap.Logger) materials.Generator {
	generators := make([]materials.Generator, 0, 3)

	if writer := geminiWriter(ctx, config, log); writer != nil {
		generators = append(generators, writer)
	}

	if writer, err := materials.NewTemplateWriter(config.Resume, outputDir(config), log); err != nil {
		log.Warn("template cover letters unavailable", zap.Error(err))
	} else {
		generators = append(generators, writer)
	}

	coverLetter := ""
	if config.Materials != nil {
		coverLetter = config.Materials.CoverLetter
	}
	generators = append(generators, materials.Static(config.Resume, coverLetter))

	return materials.Chain(generators...)
}

func geminiWriter(ctx context.Context, config *Config, log *zap.Logger) materials.Generator {
	if config.Materials == nil || config.Materials.Gemini == nil || !config.Materials.Gemini.Enabled {
		return nil
	}
	gcfg := config.Materials.Gemini

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: gcfg.APIKeyFile,
	})
	if err != nil {
		log.Warn("gemini cover letters unavailable",
			zap.Error(err),
			zap.String("hint", "set materials.gemini.api-key-file or GEMINI_API_KEY_FILE"),
		)
		return nil
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, gcfg.Model)
	if err != nil {
		log.Warn("gemini cover letters unavailable", zap.Error(err))
		return nil
	}

	writer, err := gemini.NewWriter(generator, config.Resume, outputDir(config), log, gcfg.MaxLogLength)
	if err != nil {
		log.Warn("gemini cover letters unavailable", zap.Error(err))
		return nil
	}

	return writer
}

func sortByScore(postings []jobs.Posting, results map[string]match.Result) {
	sort.SliceStable(postings, func(i, j int) bool {
		si, sj := results[postings[i].ID].Score, results[postings[j].ID].Score
		if si != sj {
			return si > sj
		}
		return postings[i].ID < postings[j].ID
	})
}

type reportEntry struct {
	Score   int      `json:"score"`
	Title   string   `json:"title"`
	Company string   `json:"company,omitempty"`
	URL     string   `json:"url"`
	Reasons []string `json:"reasons"`
}

func printReport(postings []jobs.Posting, results map[string]match.Result, log *zap.Logger) {
	entries := make([]reportEntry, 0, len(postings))
	for _, p := range postings {
		result := results[p.ID]

		reasons := make([]string, 0, len(result.Contributions))
		for _, c := range result.Contributions {
			reasons = append(reasons, fmt.Sprintf("%+d %s", c.Delta, c.Reason))
		}

		entries = append(entries, reportEntry{
			Score:   result.Score,
			Title:   p.Title,
			Company: p.Company,
			URL:     p.ApplyURL,
			Reasons: reasons,
		})
	}

	pretty, _ := json.MarshalIndent(entries, "", "  ")
	log.Info(string(pretty), zap.Int("postings_count", len(entries)))
}
