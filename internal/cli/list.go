package cli

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your bookmarks, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		api, _, err := newAPI()
		if err != nil {
			return err
		}

		rows, err := api.ListBookmarks(cmd.Context())
		if err != nil {
			return err
		}
		renderRows(rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
