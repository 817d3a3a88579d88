package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"animagif/internal/output"
	"animagif/internal/transcoder"
)

func NewInstallFFmpegCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "install-ffmpeg",
		Short: "Download the managed ffmpeg binary now",
		Long:  "Download and verify the ffmpeg binary that exports use. Nothing is downloaded when a usable binary is already configured or cached.",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(os.Stdout)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			stop := output.StartSpinner(os.Stdout, "Preparing ffmpeg...")
			path, err := deps.Installer.EnsureAvailable(ctx)
			stop()
			if err != nil {
				return err
			}

			version, err := transcoder.Version(ctx, deps.FFmpeg)
			if err != nil {
				return err
			}
			f.Success(fmt.Sprintf("ffmpeg ready at %s", path))
			f.Info(version)
			return nil
		},
	}
}
