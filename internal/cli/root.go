package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"assessrag/config"
	"assessrag/internal/domain"
)

var (
	cfgFile  string
	cfg      *config.Config
	rootDir  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "assessrag",
	Short: "Assessment recommender - semantic retrieval over an assessment catalog",
	Long: `assessrag builds a vector index over an assessment catalog, recommends
assessments for a free-text job description, and measures retrieval quality
against a labeled query set.

Example usage:
  assessrag index                                  # Build the index from the catalog CSVs
  assessrag query -q "graduate data analyst"       # Recommend assessments
  assessrag evaluate -k 5                          # Precision@5 / HitRate@5 on the eval set`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}
		rootDir, err = filepath.Abs(rootDir)
		if err != nil {
			return fmt.Errorf("invalid root directory: %w", err)
		}

		// a missing .env is normal
		_ = godotenv.Load(filepath.Join(rootDir, ".env"))

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		if err := setupLogging(cfg.Logging); err != nil {
			return err
		}
		return cfg.Validate()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./assessrag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// setupLogging points the global zerolog logger at stderr so command output
// on stdout stays machine-readable.
func setupLogging(lc config.LoggingConfig) error {
	level, err := zerolog.ParseLevel(strings.ToLower(lc.Level))
	if err != nil {
		return fmt.Errorf("%w: logging.level %q", domain.ErrConfiguration, lc.Level)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	switch lc.Format {
	case "json":
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	case "", "console":
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	default:
		return fmt.Errorf("%w: logging.format %q", domain.ErrConfiguration, lc.Format)
	}
	return nil
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
