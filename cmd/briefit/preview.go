package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagOut string

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Collect and render the digest without sending it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		runner, _, err := buildRunner(cfg)
		if err != nil {
			return err
		}

		rep, html, err := runner.Preview(context.Background())
		if err != nil {
			return err
		}

		if flagOut == "" {
			_, err = fmt.Fprint(cmd.OutOrStdout(), html)
			return err
		}
		if err := os.WriteFile(flagOut, []byte(html), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d sources failed, %d fell back)\n", flagOut, len(rep.Failures), len(rep.Fallbacks))
		return nil
	},
}

func init() {
	previewCmd.Flags().StringVarP(&flagOut, "out", "o", "", "write HTML to file instead of stdout")
}
