package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"echolog/internal/coordinator"
	"echolog/internal/domain"
)

// NewRecordCmd records live audio and runs the full pipeline.
func NewRecordCmd(deps *Dependencies) *cobra.Command {
	var source string
	var meter bool

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record audio and transcribe it",
		Long:  "Record from the microphone or system audio, normalize the capture, submit it for transcription, and wait for the transcript.\nPress Ctrl+C to stop recording.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := deps.App.RequireSession(); err != nil {
				return err
			}

			src, err := parseSource(source)
			if err != nil {
				return err
			}

			coord := deps.App.NewCoordinator()
			defer coord.Teardown()

			stopRender := startRenderer(cmd.OutOrStdout(), deps.App.Bus, meter)
			defer stopRender()

			ctx := cmd.Context()
			if err := coord.StartRecording(ctx, src); err != nil {
				return deps.App.HandleAuthError(err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Recording... press Ctrl+C to stop.")
			if err := waitForInterrupt(ctx); err != nil {
				return err
			}

			if err := coord.StopAndNormalize(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Review file: %s\n", coord.PlaybackPath())

			if err := coord.Submit(ctx); err != nil {
				return deps.App.HandleAuthError(err)
			}

			result, err := waitForOutcome(ctx, coord)
			if err != nil {
				return err
			}
			return printResult(cmd, deps, result)
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "microphone", "Capture source: microphone or system")
	cmd.Flags().BoolVar(&meter, "meter", false, "Show a live input level meter")
	return cmd
}

// parseSource maps the CLI flag to a capture source.
func parseSource(raw string) (domain.CaptureSource, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "microphone", "mic":
		return domain.SourceMicrophone, nil
	case "system", "system-audio":
		return domain.SourceSystem, nil
	default:
		return "", fmt.Errorf("unknown capture source %q (use microphone or system)", raw)
	}
}

// waitForInterrupt blocks until Ctrl+C or context cancellation.
func waitForInterrupt(ctx context.Context) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-sig:
		return nil
	}
}

// printResult prints the transcript and saves it to the output dir.
func printResult(cmd *cobra.Command, deps *Dependencies, result coordinator.Result) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nTranscript (recording %s, transcription %s):\n\n%s\n",
		result.RecordingID, result.TranscriptionID, result.Transcript)

	dir := deps.App.Settings.OutputDir
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	name := string(result.TranscriptionID)
	if name == "" {
		name = string(result.RecordingID)
	}
	path := filepath.Join(dir, name+".txt")
	if err := os.WriteFile(path, []byte(result.Transcript+"\n"), 0o644); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}

	fmt.Fprintf(out, "\nSaved: %s\n", path)
	return nil
}
