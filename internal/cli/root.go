package cli

import (
	"github.com/spf13/cobra"

	"animagif/internal/app"
	"animagif/internal/config"
	"animagif/internal/startup"
	"animagif/internal/transcoder"
)

// Dependencies are shared by every command. They are built by the Loader
// after the global flags are parsed.
type Dependencies struct {
	App       *app.App
	Config    *config.Config
	Installer *transcoder.Installer
	FFmpeg    *transcoder.Process

	// Close releases the app and the catalog. The caller of Execute runs it.
	Close func() error
}

// Loader builds Dependencies from the --config path, which may be empty.
type Loader func(configPath string) (*Dependencies, error)

func NewRootCmd(load Loader) *cobra.Command {
	deps := &Dependencies{}
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "animagif",
		Short:         "Record the screen and turn it into GIFs",
		Long:          "Record a display, a region or a window to a video, then convert it to an animated GIF with a two-pass ffmpeg palette.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsDeps(cmd) {
				return nil
			}
			loaded, err := load(configPath)
			if err != nil {
				return err
			}
			*deps = *loaded
			return nil
		},
	}

	rootCmd.Version = startup.Version
	rootCmd.SetVersionTemplate(startup.VersionString() + "\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $ANIMAGIF_CONFIG or ~/.config/animagif/config.toml)")

	rootCmd.AddCommand(NewRecordCmd(deps))
	rootCmd.AddCommand(NewExportCmd(deps))
	rootCmd.AddCommand(NewPreviewCmd(deps))
	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewDeleteCmd(deps))
	rootCmd.AddCommand(NewDisplaysCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))
	rootCmd.AddCommand(NewInstallFFmpegCmd(deps))
	rootCmd.AddCommand(NewServeCmd(deps))

	return rootCmd
}

// needsDeps is false for cobra's built-in help and completion commands.
func needsDeps(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion":
			return false
		}
	}
	return true
}
