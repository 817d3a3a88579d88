package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"animagif/internal/capture"
	"animagif/internal/output"
)

func NewDisplaysCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "displays",
		Short: "List the displays that can be recorded",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(os.Stdout)

			displays := deps.App.Displays()
			if len(displays) == 0 {
				f.Warning("No displays found")
				return nil
			}
			for _, d := range displays {
				f.DisplayListItem(d)
			}
			return nil
		},
	}
}

// pickDisplay asks which display to record. A single display is returned
// without asking.
func pickDisplay(ctx context.Context, displays []capture.Display) (int, error) {
	switch len(displays) {
	case 0:
		return 0, fmt.Errorf("%w: no displays found", capture.ErrGeometryInvalid)
	case 1:
		return displays[0].ID, nil
	}

	options := make([]huh.Option[int], 0, len(displays))
	for _, d := range displays {
		label := fmt.Sprintf("Display %d (%dx%d at %d,%d)", d.ID, d.Bounds.Dx(), d.Bounds.Dy(), d.Bounds.Min.X, d.Bounds.Min.Y)
		options = append(options, huh.NewOption(label, d.ID))
	}

	id := displays[0].ID
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Display to record").
				Options(options...).
				Value(&id),
		),
	)
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.RunWithContext(ctx); err != nil {
		return 0, fmt.Errorf("display prompt failed: %w", err)
	}
	return id, nil
}

// findDisplay returns the display with the given id.
func findDisplay(displays []capture.Display, id int) (capture.Display, error) {
	for _, d := range displays {
		if d.ID == id {
			return d, nil
		}
	}
	return capture.Display{}, fmt.Errorf("%w: display %d not found", capture.ErrGeometryInvalid, id)
}
