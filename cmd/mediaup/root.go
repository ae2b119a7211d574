package main

import (
	"log/slog"
	"net/http"
	"os"

	"mediaup/internal/config"
	"mediaup/internal/transport"

	"github.com/spf13/cobra"
)

const (
	FlagConfig   = "config"
	FlagBaseURL  = "base-url"
	FlagTimeout  = "timeout"
	FlagInsecure = "insecure"
	FlagLogLevel = "log-level"
)

// RootCmd builds the mediaup command tree.
func RootCmd() *cobra.Command {
	r := &cobra.Command{
		Use:           "mediaup",
		Short:         "mediaup sends meeting recordings to the transcription service.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	r.PersistentFlags().String(FlagConfig, "", "optional YAML config file; the environment fills anything it leaves out")
	r.PersistentFlags().String(FlagBaseURL, "", "service base URL (default $MEDIAUP_BASE_URL or https://localhost:8001)")
	r.PersistentFlags().Duration(FlagTimeout, 0, "whole-request timeout, 0 disables it (default $MEDIAUP_TIMEOUT or 5m)")
	r.PersistentFlags().Bool(FlagInsecure, false, "skip TLS certificate verification for this run")
	r.PersistentFlags().String(FlagLogLevel, "", "log level. debug|info|warn|error")

	r.AddCommand(UploadCmd(), MembersCmd(), ReportCmd())
	return r
}

// loadConfig reads file and environment configuration, then applies the
// persistent flags the user actually set.
func loadConfig(cmd *cobra.Command) (*config.Client, error) {
	flags := cmd.Flags()
	path, err := flags.GetString(FlagConfig)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadClient(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed(FlagBaseURL) {
		if cfg.BaseURL, err = flags.GetString(FlagBaseURL); err != nil {
			return nil, err
		}
	}
	if flags.Changed(FlagTimeout) {
		if cfg.Timeout, err = flags.GetDuration(FlagTimeout); err != nil {
			return nil, err
		}
	}
	if flags.Changed(FlagInsecure) {
		if cfg.InsecureTLS, err = flags.GetBool(FlagInsecure); err != nil {
			return nil, err
		}
	}
	if flags.Changed(FlagLogLevel) {
		if cfg.LogLevel, err = flags.GetString(FlagLogLevel); err != nil {
			return nil, err
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLevel(cfg.LogLevel),
	})))
	return cfg, cfg.Validate()
}

func httpClient(cfg *config.Client) *http.Client {
	return transport.NewClient(transport.Options{Timeout: cfg.Timeout, InsecureTLS: cfg.InsecureTLS})
}
