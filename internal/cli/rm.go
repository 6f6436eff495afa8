package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a bookmark by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, _, err := newAPI()
		if err != nil {
			return err
		}

		if err := api.DeleteBookmark(cmd.Context(), args[0]); err != nil {
			return err
		}
		color.Green("deleted %s", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
