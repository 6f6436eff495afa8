package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/marklet/marklet/internal/client"
)

var (
	loginProvider string
	loginEndpoint string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against a marklet server via an OAuth provider",
	Long: `Prints the browser URL that starts the OAuth flow. Once the flow
completes, the server's callback page shows an access token; paste it back
here and it is stored in the config file.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginProvider, "provider", "", "OAuth provider name (required)")
	loginCmd.Flags().StringVar(&loginEndpoint, "endpoint", "", "server base URL (defaults to the stored one)")
	_ = loginCmd.MarkFlagRequired("provider")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	endpoint := loginEndpoint
	if endpoint == "" {
		if cfg, loadErr := client.LoadConfig(path); loadErr == nil {
			endpoint = cfg.Endpoint
		}
	}
	if endpoint == "" {
		return fmt.Errorf("no server endpoint known; pass --endpoint")
	}

	api := client.NewHTTPAPI(endpoint, "")
	fmt.Println("Open this URL in a browser to sign in:")
	color.Cyan("  %s", api.LoginURL(loginProvider))
	fmt.Print("\nPaste the access token shown after the redirect: ")

	reader := bufio.NewReader(cmd.InOrStdin())
	token, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("no token provided")
	}

	// Confirm the token works before persisting it.
	ident, err := client.NewHTTPAPI(endpoint, token).Me(cmd.Context())
	if err != nil {
		return fmt.Errorf("token rejected by server: %w", err)
	}

	if err := client.SaveConfig(path, &client.Config{Endpoint: endpoint, Token: token}); err != nil {
		return err
	}
	color.Green("Logged in as %s", ident.Email)
	return nil
}
