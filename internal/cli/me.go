package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the authenticated identity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		api, _, err := newAPI()
		if err != nil {
			return err
		}

		ident, err := api.Me(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", color.GreenString(ident.Email), color.HiBlackString("(%s)", ident.ID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(meCmd)
}
