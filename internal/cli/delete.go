package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"animagif/internal/output"
)

func NewDeleteCmd(deps *Dependencies) *cobra.Command {
	var (
		all bool
		yes bool
	)

	cmd := &cobra.Command{
		Use:     "delete [id]",
		Aliases: []string{"rm"},
		Short:   "Delete recordings and their GIFs",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(os.Stdout)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			library := deps.App.Library()

			switch {
			case all && len(args) > 0:
				return errors.New("pass either an id or --all, not both")
			case all:
				if !yes {
					ok, err := confirm("Delete every recording and GIF?")
					if err != nil || !ok {
						return err
					}
				}
				deleted, err := library.DeleteAll(ctx)
				if err != nil {
					return err
				}
				f.Success(fmt.Sprintf("Deleted %d recordings", deleted))
				return nil
			case len(args) == 1:
				recording, err := resolveRecording(ctx, library, args[0])
				if err != nil {
					return err
				}
				if err := library.Delete(ctx, recording.ID); err != nil {
					return err
				}
				f.Success(fmt.Sprintf("Deleted %s", recording.DisplayName()))
				return nil
			default:
				return errors.New("an id or --all is required")
			}
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Delete every recording")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

// confirm asks a yes/no question. Without a terminal it refuses.
func confirm(question string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errors.New("refusing to delete without a terminal; pass --yes")
	}

	var ok bool
	err := huh.NewConfirm().
		Title(question).
		Affirmative("Delete").
		Negative("Cancel").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}
