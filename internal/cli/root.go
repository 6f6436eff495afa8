package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marklet/marklet/internal/client"
	"github.com/marklet/marklet/internal/logger"
	"github.com/marklet/marklet/internal/version"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "markletctl",
	Short:         "Command-line client for a marklet bookmark server",
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "",
		"config file (default: $XDG_CONFIG_HOME/marklet/config.yaml)")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// configPath resolves the config file location, honoring --config.
func configPath() (string, error) {
	if cfgPath != "" {
		return cfgPath, nil
	}
	return client.DefaultConfigPath()
}

// loadConfig reads the config file; commands that need a server to talk to
// fail with a hint when it is missing.
func loadConfig() (*client.Config, string, error) {
	path, err := configPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := client.LoadConfig(path)
	if err != nil {
		return nil, path, fmt.Errorf("%w (run 'markletctl login' first)", err)
	}
	return cfg, path, nil
}

// newAPI builds the HTTP client from the stored config.
func newAPI() (*client.HTTPAPI, *client.Config, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return client.NewHTTPAPI(cfg.Endpoint, cfg.Token), cfg, nil
}

// cliLogger keeps command output clean: warnings and errors only.
func cliLogger() logger.Logger {
	return logger.New("warn", true)
}
