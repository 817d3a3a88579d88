package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"animagif/internal/filesystem"
	"animagif/internal/output"
)

func NewPreviewCmd(deps *Dependencies) *cobra.Command {
	var (
		at   time.Duration
		size int
		out  string
	)

	cmd := &cobra.Command{
		Use:   "preview <id>",
		Short: "Save a JPEG frame of a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(os.Stdout)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			recording, err := resolveRecording(ctx, deps.App.Library(), args[0])
			if err != nil {
				return err
			}

			data, err := deps.App.Preview(ctx, recording.ID, at, size)
			if err != nil {
				return err
			}

			if out == "" {
				out = strings.TrimSuffix(recording.SourceVideoPath, ".mov") + "-preview.jpg"
			}
			if err := filesystem.WriteFileAtomic(out, data, 0o644); err != nil {
				return fmt.Errorf("failed to write preview: %w", err)
			}
			f.Success(fmt.Sprintf("Preview saved: %s", out))
			return nil
		},
	}

	cmd.Flags().DurationVar(&at, "at", 0, "Offset into the recording")
	cmd.Flags().IntVar(&size, "size", 320, "Longest edge in pixels")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default next to the video)")

	return cmd
}
