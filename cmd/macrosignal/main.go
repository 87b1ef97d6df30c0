package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	appName = "macrosignal"
	version = "v0.1.0"
)

var (
	flagConfigPath string
	flagDBDSN      string
	flagLogFile    string
	flagLogLevel   string
	flagTimezone   string
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Point-in-time Brazilian macro signal pipeline",
		Version: version,
		Long: `macrosignal runs the five macro agents (inflation, monetary, fiscal, fx,
cross_asset) against point-in-time censored data, builds locked-weight
composites, and drives the trade proposal and decision journal workflow.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}

	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to pipeline config YAML (defaults baked in if omitted)")
	rootCmd.PersistentFlags().StringVar(&flagDBDSN, "db-dsn", "", "Postgres DSN (overrides MACROSIGNAL_DATABASE_DSN)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "rotate logs to this file in addition to stderr")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override the configured log level")
	rootCmd.PersistentFlags().StringVar(&flagTimezone, "tz", "America/Sao_Paulo", "source-local timezone for point-in-time censoring")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newAgentsCmd())
	rootCmd.AddCommand(newProposalsCmd())
	rootCmd.AddCommand(newJournalCmd())
	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// setupLogging wires zerolog to stderr in human-readable form and, when
// --log-file is set, fans out to a rotating file via lumberjack.
func setupLogging() {
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}

	var writer zerolog.LevelWriter
	if flagLogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   flagLogFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
		writer = zerolog.MultiLevelWriter(console, rotator)
	} else {
		writer = zerolog.MultiLevelWriter(console)
	}

	level := zerolog.InfoLevel
	if flagLogLevel != "" {
		if parsed, err := zerolog.ParseLevel(flagLogLevel); err == nil {
			level = parsed
		}
	}

	log.Logger = zerolog.New(writer).Level(level).With().Timestamp().Str("app", appName).Logger()
}
