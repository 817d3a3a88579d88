package cli

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"animagif/internal/app"
	"animagif/internal/capture"
	"animagif/internal/filesystem"
	"animagif/internal/output"
	"animagif/internal/selection"
)

type recordOptions struct {
	display      int
	pickDisplay  bool
	region       string
	selectRegion bool
	fps          int
	quality      string
	duration     time.Duration
}

func NewRecordCmd(deps *Dependencies) *cobra.Command {
	opts := recordOptions{}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record the screen until Ctrl+C",
		Long: "Record a display, or a region of it, to a .mov file in the recordings directory.\n" +
			"Press Ctrl+C to stop. With export.auto_export set the GIF is created right away.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd.Context(), deps, opts, output.NewFormatter(os.Stdout))
		},
	}

	cmd.Flags().IntVarP(&opts.display, "display", "d", -1, "Display to record (default from config)")
	cmd.Flags().BoolVar(&opts.pickDisplay, "pick-display", false, "Choose the display interactively")
	cmd.Flags().StringVarP(&opts.region, "region", "r", "", "Region to record as x,y,width,height in display pixels")
	cmd.Flags().BoolVarP(&opts.selectRegion, "select", "s", false, "Enter the region interactively")
	cmd.Flags().IntVar(&opts.fps, "fps", 0, "Capture frame rate (default from config)")
	cmd.Flags().StringVarP(&opts.quality, "quality", "q", "", "Capture quality: low, medium or high")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "Stop automatically after this long")
	cmd.MarkFlagsMutuallyExclusive("region", "select")
	cmd.MarkFlagsMutuallyExclusive("display", "pick-display")

	return cmd
}

func runRecord(ctx context.Context, deps *Dependencies, opts recordOptions, f *output.Formatter) error {
	if ctx == nil {
		ctx = context.Background()
	}

	req, canceled, err := buildStartRequest(ctx, deps, opts)
	if err != nil {
		return err
	}
	if canceled {
		f.Info("Selection canceled, nothing recorded")
		return nil
	}

	sigCtx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	status, err := deps.App.StartRecording(ctx, req)
	if err != nil {
		return err
	}
	f.RecordingStarted(status.OutputPath, status.Width, status.Height, frameRate(deps, opts))

	var timeout <-chan time.Time
	if opts.duration > 0 {
		timer := time.NewTimer(opts.duration)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case <-sigCtx.Done():
	case <-timeout:
	}
	stopSignals()

	final := deps.App.Status()
	f.RecordingStopped(time.Since(final.StartedAt), final.Frames, final.Dropped)

	var (
		progress chan float64
		wg       sync.WaitGroup
	)
	if deps.Config.Export.AutoExport {
		progress = make(chan float64, 8)
		bar := output.NewProgress(os.Stdout, "Exporting")
		wg.Add(1)
		go func() {
			defer wg.Done()
			bar.Follow(progress)
		}()
	}

	recording, err := deps.App.StopRecording(context.Background(), progress)
	wg.Wait()
	if err != nil {
		if errors.Is(err, app.ErrAutoExportFailed) {
			f.RecordingSaved(recording)
		}
		return err
	}

	f.RecordingSaved(recording)
	if recording.HasGIF() {
		f.ExportDone(recording.ExportedGIFPath, filesystem.FileSize(recording.ExportedGIFPath))
		if deps.Config.Export.CopyToClipboard {
			f.Copied(recording.ExportedGIFPath)
		}
	} else {
		f.Info(fmt.Sprintf("Run 'animagif export %s' to create the GIF", recording.ID))
	}
	return nil
}

// buildStartRequest resolves the display and region flags. canceled is set
// when the user backs out of an interactive prompt.
func buildStartRequest(ctx context.Context, deps *Dependencies, opts recordOptions) (app.StartRequest, bool, error) {
	req := app.StartRequest{FrameRate: opts.fps}

	if opts.quality != "" {
		q, err := capture.ParseQuality(opts.quality)
		if err != nil {
			return req, false, err
		}
		req.Quality = &q
	}

	displays := deps.App.Displays()
	displayID := deps.Config.Capture.Display
	switch {
	case opts.pickDisplay:
		id, err := pickDisplay(ctx, displays)
		if errors.Is(err, huh.ErrUserAborted) {
			return req, true, nil
		}
		if err != nil {
			return req, false, err
		}
		displayID = id
	case opts.display >= 0:
		displayID = opts.display
	}
	req.DisplayID = &displayID

	var overlay selection.Overlay
	switch {
	case opts.region != "":
		rect, err := selection.Parse(opts.region)
		if err != nil {
			return req, false, fmt.Errorf("%w: %v", capture.ErrGeometryInvalid, err)
		}
		overlay = selection.Static{Rect: rect}
	case opts.selectRegion:
		display, err := findDisplay(displays, displayID)
		if err != nil {
			return req, false, err
		}
		overlay = &selection.Prompt{
			In:     os.Stdin,
			Out:    os.Stdout,
			Bounds: image.Rect(0, 0, display.Bounds.Dx(), display.Bounds.Dy()),
		}
	default:
		return req, false, nil
	}

	result, err := overlay.Select(ctx)
	if err != nil {
		return req, false, err
	}
	if result.Canceled {
		if opts.region != "" {
			return req, false, fmt.Errorf("%w: region must be larger than %dx%d", capture.ErrGeometryInvalid, selection.MinSize, selection.MinSize)
		}
		return req, true, nil
	}
	req.Region = &result.Rect
	return req, false, nil
}

func frameRate(deps *Dependencies, opts recordOptions) int {
	if opts.fps > 0 {
		return opts.fps
	}
	return deps.Config.Capture.FrameRate
}
