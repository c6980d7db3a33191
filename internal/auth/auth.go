// Package auth is the OAuth2 boundary: it turns stored client credentials
// and persisted tokens into an authenticated HTTP client for the Search
// Console API. Consent-flow UX and token refresh semantics belong to the
// oauth2 library; this package only wires them to the state store.
package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/searchlens-labs/searchlens/internal/state"
)

// Scope is read-only Search Console access.
const Scope = "https://www.googleapis.com/auth/webmasters.readonly"

// LoadOAuthConfig reads an installed-app client credentials JSON file.
func LoadOAuthConfig(credentialsPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file %s: %w", credentialsPath, err)
	}
	cfg, err := google.ConfigFromJSON(data, Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", credentialsPath, err)
	}
	return cfg, nil
}

// Login runs the out-of-band consent exchange: prints the consent URL to w,
// reads the authorization code from r, and persists the resulting token.
func Login(ctx context.Context, cfg *oauth2.Config, store state.Store, account string, w io.Writer, r io.Reader) error {
	url := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	_, _ = fmt.Fprintf(w, "Open the following URL in your browser, then paste the authorization code:\n\n%s\n\nCode: ", url)

	code, err := bufio.NewReader(r).ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("no authorization code entered")
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("code exchange failed: %w", err)
	}
	if err := store.SaveToken(account, token); err != nil {
		return err
	}
	return nil
}

// Client builds an authenticated HTTP client from the stored token.
// Refreshes happen transparently inside the oauth2 transport; the refreshed
// token is written back so the next run skips the refresh round trip.
func Client(ctx context.Context, cfg *oauth2.Config, store state.Store, account string) (*http.Client, error) {
	token, err := store.Token(account)
	if err != nil {
		return nil, fmt.Errorf("%w (run 'searchlens auth login' first)", err)
	}

	source := &savingTokenSource{
		inner:   cfg.TokenSource(ctx, token),
		store:   store,
		account: account,
		last:    token,
	}
	return oauth2.NewClient(ctx, source), nil
}

// savingTokenSource persists refreshed tokens back to the store.
type savingTokenSource struct {
	inner   oauth2.TokenSource
	store   state.Store
	account string
	last    *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.inner.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken != s.last.AccessToken {
		s.last = token
		// Persistence is best effort; a failed write only costs a refresh
		// on the next run.
		_ = s.store.SaveToken(s.account, token)
	}
	return token, nil
}
