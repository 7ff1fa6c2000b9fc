package cmd

import (
	"log"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RealRedbaron07/JobApplier/internal/autofill"
	"github.com/RealRedbaron07/JobApplier/internal/browser"
	"github.com/RealRedbaron07/JobApplier/internal/discovery"
	"github.com/RealRedbaron07/JobApplier/internal/match"
)

const (
	app = "jobapplier"
)

type Config struct {
	// Profile is the candidate profile YAML file.
	Profile string `mapstructure:"profile"`
	// Resume is the base resume file submitted with every application.
	Resume string `mapstructure:"resume"`
	// OutputDir receives generated cover letters. Defaults to
	// <data-dir>/letters.
	OutputDir string `mapstructure:"output-dir"`
	// DataDir holds the database and the session lock. Defaults to
	// .jobapplier in the working directory.
	DataDir string `mapstructure:"data-dir"`

	Browser   browser.Config   `mapstructure:"browser"`
	Autofill  autofill.Config  `mapstructure:"autofill"`
	Match     *MatchConfig     `mapstructure:"match"`
	Filters   *FiltersConfig   `mapstructure:"filters"`
	Sources   *SourcesConfig   `mapstructure:"sources"`
	Materials *MaterialsConfig `mapstructure:"materials"`
}

type MatchConfig struct {
	// MinScore drops postings scoring below it before any application.
	// Zero keeps everything.
	MinScore int           `mapstructure:"min-score"`
	Weights  match.Weights `mapstructure:"weights"`
}

type FiltersConfig struct {
	ExcludedCompanies []string `mapstructure:"excluded-companies"`
}

type SourcesConfig struct {
	Greenhouse discovery.GreenhouseConfig `mapstructure:"greenhouse"`
	Lever      discovery.LeverConfig      `mapstructure:"lever"`
	Mail       MailSourceConfig           `mapstructure:"mail"`
}

// MailSourceConfig extends the IMAP source settings with the local password
// source. The keyring is consulted first; the file is the fallback.
type MailSourceConfig struct {
	discovery.MailConfig `mapstructure:",squash"`

	PasswordFile string `mapstructure:"password-file"`
}

type MaterialsConfig struct {
	// CoverLetter is an optional pre-written cover letter used when no
	// generator is available.
	CoverLetter string        `mapstructure:"cover-letter"`
	Gemini      *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobapplier is a cli for discovering job postings, scoring them against a profile and applying to the suitable ones",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("data-dir", "JOBAPPLIER_DATA_DIR"); err != nil {
		log.Fatalf("binding JOBAPPLIER_DATA_DIR environment variable: %v", err)
	}
	if err := viper.BindEnv("materials.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("sources.mail.password-file", "JOBAPPLIER_MAIL_PASSWORD_FILE"); err != nil {
		log.Fatalf("binding JOBAPPLIER_MAIL_PASSWORD_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobapplier.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// The config file is needed by the run and scan commands; the secret
	// commands read it opportunistically for the mailbox identity.
	required := runCmd.CalledAs() != "" || scanCmd.CalledAs() != ""
	optional := setMailPasswordCmd.CalledAs() != "" || deleteMailPasswordCmd.CalledAs() != ""
	if !required && !optional {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		if required {
			log.Fatal(err)
		}
	}
}

// getConfig unmarshals the settings over a seeded browser configuration, so
// keys the file omits keep their defaults while an explicit zero still
// disables the corresponding pacing.
func getConfig() (*Config, error) {
	config := &Config{Browser: browser.DefaultConfig()}
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	return config, nil
}

func dataDir(config *Config) string {
	if config != nil && config.DataDir != "" {
		return config.DataDir
	}
	return ".jobapplier"
}

func outputDir(config *Config) string {
	if config != nil && config.OutputDir != "" {
		return config.OutputDir
	}
	return filepath.Join(dataDir(config), "letters")
}

func minScore(config *Config) int {
	if config != nil && config.Match != nil {
		return config.Match.MinScore
	}
	return 0
}

func excludedCompanies(config *Config) []string {
	if config != nil && config.Filters != nil {
		return config.Filters.ExcludedCompanies
	}
	return nil
}
