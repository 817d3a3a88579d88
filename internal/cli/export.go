package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"animagif/internal/export"
	"animagif/internal/filesystem"
	"animagif/internal/output"
)

// exportFlags override the configured export settings.
type exportFlags struct {
	preset    string
	fps       int
	width     int
	colors    int
	dithering string
	loop      int
}

func (e *exportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&e.preset, "preset", "p", "", "Preset: small, medium, large or original (default from config)")
	cmd.Flags().IntVar(&e.fps, "fps", 0, "GIF frame rate (1-50)")
	cmd.Flags().IntVar(&e.width, "width", 0, "Maximum GIF width in pixels")
	cmd.Flags().IntVar(&e.colors, "colors", 0, "Palette size (4-256)")
	cmd.Flags().StringVar(&e.dithering, "dither", "", "Dithering: none, bayer, floyd_steinberg, sierra2 or sierra2_4a")
	cmd.Flags().IntVar(&e.loop, "loop", 0, "0 loops forever, -1 plays once, n repeats n times")
}

// settings applies the flags that were set on top of defaults.
func (e *exportFlags) settings(cmd *cobra.Command, defaults export.Settings) (export.Settings, error) {
	s := defaults
	flags := cmd.Flags()

	if flags.Changed("preset") {
		p, err := export.ParsePreset(e.preset)
		if err != nil {
			return s, err
		}
		s.Preset = p
	}
	if flags.Changed("fps") {
		s.Overrides.FrameRate = &e.fps
	}
	if flags.Changed("width") {
		s.Overrides.MaxWidth = &e.width
	}
	if flags.Changed("colors") {
		s.Overrides.MaxColors = &e.colors
	}
	if flags.Changed("dither") {
		d, err := export.ParseDithering(e.dithering)
		if err != nil {
			return s, err
		}
		s.Overrides.Dithering = &d
	}
	if flags.Changed("loop") {
		s.LoopCount = e.loop
	}
	return s, s.Validate()
}

func NewExportCmd(deps *Dependencies) *cobra.Command {
	var (
		flags exportFlags
		all   bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "export [id]",
		Short: "Convert recordings to GIFs",
		Long: "Convert a recording to an animated GIF next to its video.\n" +
			"Use --all to export every recording that has no GIF yet, or --all --force to redo them all.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(os.Stdout)

			settings, err := flags.settings(cmd, deps.Config.ExportSettings())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			switch {
			case all && len(args) > 0:
				return errors.New("pass either an id or --all, not both")
			case all:
				return exportAll(ctx, deps, settings, force, f)
			case len(args) == 1:
				return exportOne(ctx, deps, args[0], settings, f)
			default:
				return errors.New("an id or --all is required")
			}
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Export every recording")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "With --all, also re-export recordings that already have a GIF")

	return cmd
}

func exportOne(ctx context.Context, deps *Dependencies, arg string, settings export.Settings, f *output.Formatter) error {
	recording, err := resolveRecording(ctx, deps.App.Library(), arg)
	if err != nil {
		return err
	}

	f.Exporting(recording.SourceVideoPath)

	progress := make(chan float64, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		output.NewProgress(os.Stdout, "Exporting").Follow(progress)
	}()

	exported, err := deps.App.ExportRecording(ctx, recording.ID, settings, progress)
	<-done
	if err != nil {
		return err
	}

	f.ExportDone(exported.ExportedGIFPath, filesystem.FileSize(exported.ExportedGIFPath))
	if deps.Config.Export.CopyToClipboard {
		f.Copied(exported.ExportedGIFPath)
	}
	return nil
}

func exportAll(ctx context.Context, deps *Dependencies, settings export.Settings, force bool, f *output.Formatter) error {
	stop := output.StartSpinner(os.Stdout, "Exporting recordings...")
	result, err := deps.App.ExportAll(ctx, settings, force)
	stop()

	f.Info(fmt.Sprintf("Exported %d, skipped %d, failed %d", result.Exported, result.Skipped, result.Failed))
	if err != nil {
		return err
	}
	if result.Exported > 0 {
		f.Success("All exports finished")
	}
	return nil
}
