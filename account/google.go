package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// DefaultUserInfoURL is Google's OAuth2 userinfo endpoint.
const DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// ErrInvalidToken is returned when Google rejects an access token.
var ErrInvalidToken = errors.New("invalid token")

// GoogleProfile is the identity Google returns for an access token.
type GoogleProfile struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Subject string `json:"sub"`
}

// GoogleVerifier exchanges access tokens for profiles.
type GoogleVerifier struct {
	URL  string
	HTTP *http.Client
}

// Verify returns the profile for accessToken.
func (g *GoogleVerifier) Verify(ctx context.Context, accessToken string) (GoogleProfile, error) {
	url := g.URL
	if url == "" {
		url = DefaultUserInfoURL
	}
	hc := g.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := hc.Do(req)
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GoogleProfile{}, ErrInvalidToken
	}

	var p GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return GoogleProfile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	return p, nil
}
