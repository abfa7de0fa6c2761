package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/1ilseok/briefit/internal/config"
	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the fixed source policies",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tWINDOW\tMAX\tRANK\tQUOTA\tTIMEOUT\tENABLED")
		for _, s := range config.Sources(cfg) {
			quota := "-"
			if s.DailyQuota > 0 {
				quota = fmt.Sprint(s.DailyQuota)
			}
			enabled := !s.RequiresCredential || s.Credential != ""
			fmt.Fprintf(w, "%s\t%dd\t%d\t%s\t%s\t%s\t%v\n",
				s.Source.Label(), s.WindowDays, s.MaxItems, s.Rank, quota, s.Timeout, enabled)
		}
		return w.Flush()
	},
}
