// Command buzzline runs the streaming buzz pipeline: a demo producer
// that fans messages out to the configured sinks, and a consumer that
// polls sources into the rolling analytics windows.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
//   - Components scope loggers with their own attributes
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"buzzline/internal/config"
)

var version = "dev"

func main() {
	// Optional .env next to the binary; real environment wins.
	_ = godotenv.Load()

	level := slog.LevelInfo
	if os.Getenv("BUZZLINE_DEBUG") == "true" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	cfg := config.FromEnv()

	rootCmd := &cobra.Command{
		Use:   "buzzline",
		Short: "Streaming buzz ingestion and rolling analytics",
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	rootCmd.AddCommand(newProduceCmd(logger, &cfg), newConsumeCmd(logger, &cfg), versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
