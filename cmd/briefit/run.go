package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var flagJSON bool

// runCmd 只执行一轮后退出，适合由外部调度器触发
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect, summarize and send one digest now",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.ValidateMail(); err != nil {
			return err
		}

		runner, _, err := buildRunner(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rep, err := runner.Run(ctx, "cli")
		if flagJSON && rep != nil {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			_ = enc.Encode(rep)
		}
		// 只有发送失败才以非零状态退出
		return err
	},
}

func init() {
	runCmd.Flags().BoolVar(&flagJSON, "json", false, "print the run report as JSON")
}
