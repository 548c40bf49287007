package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pakmandi/bazaar/internal/capture"
	"github.com/pakmandi/bazaar/internal/device"
	"github.com/pakmandi/bazaar/internal/storage"
	"github.com/spf13/cobra"
)

func newCaptureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Scan ear tags and record clips with the local camera",
	}
	cmd.AddCommand(newCaptureScanCmd())
	cmd.AddCommand(newCaptureRecordCmd())
	return cmd
}

func newCaptureScanCmd() *cobra.Command {
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan an ear tag with the rear camera",
		RunE: func(cmd *cobra.Command, args []string) error {
			session := capture.NewSession(uuid.NewString(), capture.Config{
				Device:    device.New(),
				ScanDelay: delay,
			})
			defer session.Close()

			if err := session.Scan(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Scanning tag...")
			if err := session.Wait(cmd.Context()); err != nil {
				return errors.New(capture.UserMessage(err))
			}

			res, ok := session.TakeResult()
			if !ok {
				return errors.New("scan produced no tag")
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.TagID)
			return nil
		},
	}

	cmd.Flags().DurationVar(&delay, "delay", capture.DefaultScanDelay, "How long to hold the camera on the tag")
	return cmd
}

func newCaptureRecordCmd() *cobra.Command {
	var (
		duration   time.Duration
		output     string
		ffmpegPath string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a clip with camera and microphone",
		Example: `  # Record until Enter is pressed
  bazaar capture record --output cow.webm

  # Record for ten seconds
  bazaar capture record --duration 10s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			media := storage.NewMediaStore()
			session := capture.NewSession(uuid.NewString(), capture.Config{
				Device:   device.New(),
				Recorder: device.NewRecorder(ffmpegPath),
				Handles:  media,
			})
			defer session.Close()

			if err := session.StartRecording(); err != nil {
				return err
			}

			if duration > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "Recording for %s...\n", duration)
				select {
				case <-time.After(duration):
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				}
			} else {
				fmt.Fprintln(cmd.ErrOrStderr(), "Recording... press Enter to stop.")
				if err := waitForEnter(cmd.Context()); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := session.StopRecording(ctx); err != nil {
				return errors.New(capture.UserMessage(err))
			}

			res, ok := session.TakeResult()
			if !ok {
				return errors.New("recording produced no clip")
			}
			return saveMedia(media, res, output)
		},
	}

	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop after this long instead of waiting for Enter")
	cmd.Flags().StringVarP(&output, "output", "o", "clip.webm", "File to write the clip to")
	cmd.Flags().StringVar(&ffmpegPath, "ffmpeg", "ffmpeg", "Path to the ffmpeg binary")
	return cmd
}

func waitForEnter(ctx context.Context) error {
	line := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(os.Stdin).ReadString('\n')
		line <- err
	}()
	select {
	case <-line:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// saveMedia writes a result's clip from the media store to path and revokes the handle
func saveMedia(media *storage.MediaStore, res capture.Result, path string) error {
	m, ok := media.Get(res.Handle)
	if !ok {
		return fmt.Errorf("media handle %s is no longer available", res.Handle)
	}
	defer media.Revoke(res.Handle)

	if err := os.WriteFile(path, m.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write clip: %w", err)
	}
	slog.Info("Clip saved", "path", path, "bytes", len(m.Data), "mime_type", m.MIMEType)
	return nil
}
