package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"animagif/internal/output"
)

func NewListCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recordings, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(os.Stdout)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			recordings, err := deps.App.Library().List(ctx)
			if err != nil {
				return err
			}

			if len(recordings) == 0 {
				f.Info("No recordings yet. Start one with 'animagif record'")
				return nil
			}

			var total int64
			for _, r := range recordings {
				total += r.FileSize()
			}
			f.RecordingListHeader(len(recordings), total)
			for _, r := range recordings {
				f.RecordingListItem(r)
			}
			return nil
		},
	}
}
