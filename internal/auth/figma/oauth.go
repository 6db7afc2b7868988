// Package figma implements the OAuth pieces specific to the comments
// platform: building the user-facing authorization URL and exchanging an
// authorization code for an access token at the relay.
package figma

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/figsum/figsum/internal/auth/pkce"
	"github.com/figsum/figsum/internal/config"
	"github.com/figsum/figsum/internal/upstream"
	"golang.org/x/oauth2"
)

// AuthCodeURL builds the authorization URL for one PKCE session. The code
// verifier rides along as a query parameter of the redirect URI so the relay
// can present it at the token endpoint; the platform echoes redirect query
// parameters back on the callback.
func AuthCodeURL(cfg config.Figma, state string, codes *pkce.Codes) string {
	redirect := cfg.RedirectURI
	if codes != nil && codes.Verifier != "" {
		sep := "?"
		if u, err := url.Parse(redirect); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		redirect = redirect + sep + "code_verifier=" + url.QueryEscape(codes.Verifier)
	}

	params := url.Values{
		"client_id":     {cfg.ClientID},
		"redirect_uri":  {redirect},
		"scope":         {cfg.Scope},
		"state":         {state},
		"response_type": {"code"},
	}
	if codes != nil {
		params.Set("code_challenge", codes.Challenge)
		params.Set("code_challenge_method", "S256")
	}
	return fmt.Sprintf("%s?%s", cfg.AuthURL, params.Encode())
}

// Exchanger performs the confidential code-for-token exchange. It holds the
// client secret and therefore lives on the relay, never in the plugin.
type Exchanger struct {
	oauth *oauth2.Config
}

// NewExchanger creates an exchanger for the configured OAuth application.
func NewExchanger(cfg config.Figma) *Exchanger {
	return &Exchanger{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{cfg.Scope},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// Exchange swaps the authorization code for an access token. The code
// verifier is included when the authorization request carried a PKCE
// challenge.
func (e *Exchanger) Exchange(ctx context.Context, code, codeVerifier string) (string, error) {
	var opts []oauth2.AuthCodeOption
	if codeVerifier != "" {
		opts = append(opts, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	}

	token, err := e.oauth.Exchange(ctx, code, opts...)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return "", &upstream.Error{
				Status: retrieveErr.Response.StatusCode,
				Body:   string(retrieveErr.Body),
			}
		}
		return "", upstream.ClassifyNetworkError(err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned an empty access token")
	}
	return token.AccessToken, nil
}
