package main

import (
	"mediaup/internal/members"
	"mediaup/internal/output"

	"github.com/spf13/cobra"
)

const (
	FlagSkip  = "skip"
	FlagLimit = "limit"
)

func MembersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "members",
		Short:   "List one page of registered members",
		Example: `  mediaup members --skip 20 --limit 10`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			skip, _ := cmd.Flags().GetInt(FlagSkip)
			limit, _ := cmd.Flags().GetInt(FlagLimit)

			client := httpClient(cfg)
			defer client.CloseIdleConnections()
			res := members.List(cmd.Context(), client, cfg.BaseURL, members.Page{Skip: skip, Limit: limit})
			output.NewReporter(cmd.OutOrStdout()).Report(res)
			return res.Err()
		},
	}

	cmd.Flags().Int(FlagSkip, 0, "members to skip")
	cmd.Flags().Int(FlagLimit, members.DefaultLimit, "page size, at most 100")
	return cmd
}
