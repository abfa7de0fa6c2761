package main

import (
	"fmt"
	"os"

	"github.com/1ilseok/briefit/internal/config"
	"github.com/1ilseok/briefit/internal/logger"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagLogLevel string
	flagPretty   bool
)

var rootCmd = &cobra.Command{
	Use:           "briefit",
	Short:         "Weekly IT briefing: collect, summarize and email",
	Long:          "briefit collects a week of items from Playwright releases, Hacker News, TLDR, the OpenAI and Anthropic blogs and Medium, summarizes them with an LLM and emails one digest.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("briefit %s (commit: %s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagPretty, "pretty", false, "human readable log output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(sourcesCmd)
}

// loadConfig 读取配置并初始化日志，命令行参数优先
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: cfg.LogOutput,
		Pretty: cfg.LogPretty || flagPretty,
	})
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
