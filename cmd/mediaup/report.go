package main

import (
	"time"

	"mediaup/internal/output"
	"mediaup/internal/reports"
	"mediaup/internal/result"

	"github.com/spf13/cobra"
)

const (
	FlagTitle        = "title"
	FlagParticipants = "participants"
	FlagContent      = "content"
)

func ReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Store an HTML meeting report",
		Example: `  mediaup report --title "Weekly sync" --participants alice@example.com,bob@example.com \
    --content summary.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			title, _ := cmd.Flags().GetString(FlagTitle)
			participants, _ := cmd.Flags().GetString(FlagParticipants)
			content, _ := cmd.Flags().GetString(FlagContent)

			reporter := output.NewReporter(cmd.OutOrStdout())
			report, failure := reports.New(title, reports.SplitParticipants(participants), content, time.Now())
			if failure != nil {
				res := result.Result{Failure: failure}
				reporter.Report(res)
				return res.Err()
			}
			client := httpClient(cfg)
			defer client.CloseIdleConnections()
			res := reports.Submit(cmd.Context(), client, cfg.BaseURL, report)
			reporter.Report(res)
			return res.Err()
		},
	}

	cmd.Flags().String(FlagTitle, "", "report title")
	cmd.Flags().String(FlagParticipants, "", "comma-separated participant ids")
	cmd.Flags().String(FlagContent, "", "path to the HTML report body")
	_ = cmd.MarkFlagRequired(FlagContent)
	return cmd
}
