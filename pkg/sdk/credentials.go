package sdk

import "golang.org/x/oauth2"

// Credentials represents the token pair issued by the login exchange.
// Both tokens are opaque bearer strings.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Complete reports whether both halves of the pair are present.
// A partial pair is treated as no session at all.
func (c Credentials) Complete() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

// OAuth2Token converts the pair into an oauth2 bearer token.
func (c Credentials) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: c.RefreshToken,
	}
}

// tokenPairResponse is the body returned by the login exchange.
type tokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// refreshRequest is the body sent to the refresh endpoint.
type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// refreshResponse is the body returned by the refresh endpoint. Refresh is only
// populated when the server rotates refresh tokens.
type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}
