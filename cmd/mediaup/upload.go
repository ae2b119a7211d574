package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"mediaup/internal/gcs"
	"mediaup/internal/localstore"
	"mediaup/internal/output"
	"mediaup/internal/result"
	"mediaup/internal/scan"
	"mediaup/internal/sink"
	"mediaup/internal/upload"

	"cloud.google.com/go/storage"
	"github.com/spf13/cobra"
)

const (
	FlagEndpoint = "endpoint"
	FlagPath     = "path"
	FlagField    = "field"
	FlagSave     = "save"
	FlagOutput   = "output"

	transcriptField       = "transcript"
	suggestedNameField    = "suggested_filename"
	defaultTranscriptName = "transcript.txt"
)

func UploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload [paths...]",
		Short: "Upload recordings in one multipart request and print the response",
		Long: `Upload sends every listed file, and every recording found directly inside
listed directories, as parts of a single multipart/form-data POST.
Nothing is retried; the response or the failure is printed as-is.`,
		Example: `  mediaup upload alice_0915.webm bob_0915.webm
  mediaup upload ./recordings --save --output gs://meetings/0915.txt
  mediaup upload --endpoint http://localhost:8001/whispers/process_video --field file call.wav`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed(FlagPath) {
				cfg.UploadPath, _ = flags.GetString(FlagPath)
			}
			if flags.Changed(FlagField) {
				cfg.Field, _ = flags.GetString(FlagField)
			}
			explicit, _ := flags.GetString(FlagEndpoint)
			save, _ := flags.GetBool(FlagSave)
			out, _ := flags.GetString(FlagOutput)

			reporter := output.NewReporter(cmd.OutOrStdout())
			// An explicit endpoint is checked by the upload itself, after the files.
			endpoint := explicit
			if endpoint == "" {
				if endpoint, err = cfg.Endpoint(""); err != nil {
					res := result.FailErr(result.InvalidEndpoint, err)
					reporter.Report(res)
					return res.Err()
				}
			}
			files, err := collectFiles(args, cfg.Field, cfg.Extensions)
			if err != nil {
				return reportFailure(reporter, err)
			}

			slog.Info("uploading recordings", "endpoint", endpoint, "files", len(files), "timeout", cfg.Timeout)
			res := upload.Upload(cmd.Context(), upload.Request{
				Endpoint:    endpoint,
				Files:       files,
				Timeout:     cfg.Timeout,
				InsecureTLS: cfg.InsecureTLS,
			})
			reporter.Report(res)
			if !res.OK() {
				return res.Err()
			}
			if !save {
				return nil
			}
			dst, err := saveTarget(res, cfg.OutputDir, out)
			if err == nil {
				err = persist(cmd.Context(), reporter, res, dst)
			}
			if err != nil {
				return reportFailure(reporter, err)
			}
			return nil
		},
	}

	cmd.Flags().String(FlagEndpoint, "", "full upload URL; overrides --path and the base URL")
	cmd.Flags().String(FlagPath, "", "upload path joined onto the base URL (default $MEDIAUP_UPLOAD_PATH or /whispers/process_videos)")
	cmd.Flags().String(FlagField, "", "form field name for every file (default $MEDIAUP_FIELD or files)")
	cmd.Flags().Bool(FlagSave, false, "persist the transcript field of a successful response")
	cmd.Flags().String(FlagOutput, "", "where --save writes: a local path or gs://bucket/object")
	return cmd
}

// collectFiles expands args into form parts that all share field.
func collectFiles(args []string, field string, exts []string) ([]upload.File, error) {
	paths, err := scan.Collect(args, exts)
	if err != nil {
		return nil, err
	}
	files := make([]upload.File, 0, len(paths))
	for _, p := range paths {
		files = append(files, upload.File{Field: field, Path: p})
	}
	return files, nil
}

// saveTarget picks where --save writes: the --output flag, else the server's
// suggested filename under outputDir, else transcript.txt under outputDir.
func saveTarget(res result.Result, outputDir, out string) (sink.Destination, error) {
	if out == "" {
		name, ok := res.Field(suggestedNameField)
		if !ok || name == "" {
			name = defaultTranscriptName
		}
		out = filepath.Join(outputDir, filepath.Base(name))
	}
	return sink.ParseDestination(out)
}

// reportFailure prints err as an IOError unless it already carries a kind.
func reportFailure(reporter *output.Reporter, err error) error {
	var failure *result.Failure
	if !errors.As(err, &failure) {
		failure = result.FailErr(result.IOError, err).Failure
	}
	reporter.Report(result.Result{Failure: failure})
	return failure
}

func persist(ctx context.Context, reporter *output.Reporter, res result.Result, dst sink.Destination) error {
	var (
		store sink.Sink
		name  string
	)
	if dst.IsGCS() {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return result.FailErr(result.IOError, fmt.Errorf("create storage client: %w", err)).Failure
		}
		defer client.Close()
		store, name = gcs.NewStore(client, dst.Bucket), dst.Object
	} else {
		store, name = localstore.NewStore(filepath.Dir(dst.Path)), filepath.Base(dst.Path)
	}
	_, err := reporter.Persist(ctx, res, transcriptField, store, name)
	return err
}
