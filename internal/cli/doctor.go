package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"animagif/internal/output"
	"animagif/internal/transcoder"
	"animagif/internal/workers"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(os.Stdout)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg := deps.Config
			ok := true

			if cfg.ConfigFile != "" {
				f.SetupCheck("Config file", true, cfg.ConfigFile)
			} else {
				f.SetupCheck("Config file", true, "none, using defaults")
			}

			if deps.Installer.Installed() {
				version, err := transcoder.Version(ctx, deps.FFmpeg)
				if err != nil {
					f.SetupCheck("ffmpeg", false, err.Error())
					ok = false
				} else {
					f.SetupCheck("ffmpeg", true, version)
				}
			} else if cfg.FFmpeg.BinaryPath != "" {
				f.SetupCheck("ffmpeg", false, fmt.Sprintf("%s is not usable", cfg.FFmpeg.BinaryPath))
				ok = false
			} else {
				f.SetupCheck("ffmpeg", false, "not installed. Run 'animagif install-ffmpeg' or let the first export download it")
			}

			displays := deps.App.Displays()
			if len(displays) == 0 {
				f.SetupCheck("Displays", false, "none found. Screen recording permission may be missing")
				ok = false
			} else {
				f.SetupCheck("Displays", true, fmt.Sprintf("%d found", len(displays)))
			}

			recordings, err := deps.App.Library().List(ctx)
			if err != nil {
				f.SetupCheck("Catalog", false, err.Error())
				ok = false
			} else {
				f.SetupCheck("Catalog", true, fmt.Sprintf("%s backend, %d recordings", cfg.Catalog.Backend, len(recordings)))
			}

			f.SetupCheck("Recordings directory", true, cfg.RecordingsDir)
			if cfg.PreviewsEnabled {
				f.SetupCheck("Preview cache", true, cfg.PreviewDir)
			} else {
				f.SetupCheck("Preview cache", false, "disabled, cache directory is not writable")
			}
			f.SetupCheck("Export workers", true, fmt.Sprintf("%d", workers.ForExport(cfg.Export.Workers)))

			if ok {
				f.Success("All prerequisites met. Ready to record!")
			} else {
				f.Warning("Some prerequisites are missing.")
			}
			return nil
		},
	}
}
