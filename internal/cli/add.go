package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/marklet/marklet/internal/domain"
)

var addCmd = &cobra.Command{
	Use:   "add <title> <url>",
	Short: "Create a bookmark",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		draft := domain.Draft{Title: args[0], URL: args[1]}
		if err := draft.Validate(); err != nil {
			return err
		}

		api, _, err := newAPI()
		if err != nil {
			return err
		}

		row, err := api.InsertBookmark(cmd.Context(), draft)
		if err != nil {
			return err
		}
		color.Green("added %s (%s)", row.Title, row.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
