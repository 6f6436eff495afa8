package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/marklet/marklet/internal/client"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}

		api := client.NewHTTPAPI(cfg.Endpoint, cfg.Token)
		session := client.NewSession(api, cliLogger())

		// Clears locally even if the server-side revocation fails.
		session.Logout(cmd.Context())

		cfg.Token = ""
		if err := client.SaveConfig(path, cfg); err != nil {
			return err
		}
		color.Green("Logged out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
