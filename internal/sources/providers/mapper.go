package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
)

// Provider is a ready-to-use OAuth provider: an oauth2 config plus
// the userinfo endpoint queried after the code exchange.
type Provider struct {
	Name        string
	OAuth       *oauth2.Config
	UserinfoURL string
}

// Registry holds the mapped providers by name.
type Registry struct {
	providers map[string]*Provider
}

// Map converts catalogue entries into usable providers. The redirect
// URL is derived from the server's public base URL; client credentials
// are resolved from the environment variables each entry names.
func Map(config Config, publicBaseURL string) (*Registry, error) {
	reg := &Registry{providers: make(map[string]*Provider, len(config.Providers))}
	redirectURL := strings.TrimRight(publicBaseURL, "/") + "/api/auth/callback"

	for _, entry := range config.Providers {
		if entry.Name == "" || entry.AuthURL == "" || entry.TokenURL == "" || entry.UserinfoURL == "" {
			return nil, fmt.Errorf("provider entry %q is missing required fields", entry.Name)
		}

		clientID := os.Getenv(entry.ClientIDEnv)
		clientSecret := os.Getenv(entry.ClientSecretEnv)
		if clientID == "" || clientSecret == "" {
			return nil, fmt.Errorf("provider %q: %s and %s must be set",
				entry.Name, entry.ClientIDEnv, entry.ClientSecretEnv)
		}

		reg.providers[entry.Name] = &Provider{
			Name: entry.Name,
			OAuth: &oauth2.Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				RedirectURL:  redirectURL,
				Scopes:       entry.Scopes,
				Endpoint: oauth2.Endpoint{
					AuthURL:  entry.AuthURL,
					TokenURL: entry.TokenURL,
				},
			},
			UserinfoURL: entry.UserinfoURL,
		}
	}

	return reg, nil
}

// Get returns the provider with the given name.
func (r *Registry) Get(name string) (*Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the catalogue's provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// Userinfo is the subset of the provider's userinfo response we rely
// on. Parsed explicitly at the boundary instead of trusting untyped
// payloads.
type Userinfo struct {
	Sub   string `json:"sub"`
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Subject returns the provider-stable account identifier. Most
// OpenID-style providers use "sub"; a few legacy ones use "id".
func (u Userinfo) Subject() string {
	if u.Sub != "" {
		return u.Sub
	}
	return u.ID
}

// FetchUserinfo exchanges the token for the account's subject and
// email via the provider's userinfo endpoint.
func (p *Provider) FetchUserinfo(ctx context.Context, token *oauth2.Token) (Userinfo, error) {
	client := p.OAuth.Client(ctx, token)
	resp, err := client.Get(p.UserinfoURL)
	if err != nil {
		return Userinfo{}, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Userinfo{}, fmt.Errorf("userinfo endpoint returned %d: %s", resp.StatusCode, body)
	}

	var info Userinfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Userinfo{}, fmt.Errorf("decoding userinfo: %w", err)
	}
	if info.Subject() == "" {
		return Userinfo{}, fmt.Errorf("userinfo response carries no account id")
	}
	return info, nil
}
