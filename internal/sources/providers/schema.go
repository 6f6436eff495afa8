package providers

// ProviderEntry describes one OAuth provider in providers.yaml.
// Client credentials are referenced by environment variable name so
// the catalogue file itself contains no secrets.
type ProviderEntry struct {
	Name            string   `yaml:"name"`
	AuthURL         string   `yaml:"auth_url"`
	TokenURL        string   `yaml:"token_url"`
	UserinfoURL     string   `yaml:"userinfo_url"`
	Scopes          []string `yaml:"scopes"`
	ClientIDEnv     string   `yaml:"client_id_env"`
	ClientSecretEnv string   `yaml:"client_secret_env"`
}

// Config is the root structure for providers.yaml
type Config struct {
	Providers []ProviderEntry `yaml:"providers"`
}
