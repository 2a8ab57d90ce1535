package main

import (
	"log/slog"
	"os"

	"persistence/cmd"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "persistence",
	Short: "Scoped persistence sessions for HTTP requests and scheduled jobs",
	Long: `Runs a persistence unit: one shared session factory, one session per
request or job tick, transactions around each unit of work.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Optional dotenv file with configuration")
	rootCmd.AddCommand(serveCmd, pingCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getConfigs(c *cobra.Command) cmd.Config {
	envFile, _ := c.Flags().GetString("env-file")
	loadEnv(envFile)

	return cmd.Config{
		HTTPPort:     os.Getenv("HTTP_PORT"),
		Unit:         os.Getenv("PERSIST_UNIT"),
		UnitsFile:    os.Getenv("PERSIST_UNITS_FILE"),
		Driver:       os.Getenv("PERSIST_DRIVER"),
		DSN:          os.Getenv("PERSIST_DSN"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
		PingSchedule: os.Getenv("PING_SCHEDULE"),
	}.WithDefaults()
}

// loadEnv reads path if it exists. Variables already set win.
func loadEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Fatalf("Error loading %s file: %v", path, err)
	}
}

func newLogger(cfg cmd.Config) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	return logger
}

func buildApp(c *cobra.Command) (*cmd.CompositionRoot, *slog.Logger) {
	configs := getConfigs(c)
	logger := newLogger(configs)

	app, err := cmd.NewCompositionRoot(configs, logger)
	if err != nil {
		log.Fatalf("Error building application: %v", err)
	}
	return app, logger
}
