package api

import (
	"encoding/base64"
	"net/http"
)

// AuthMode is the authentication scheme a request will use
type AuthMode int

const (
	// AuthNone sends no authentication header
	AuthNone AuthMode = iota
	// AuthBearer sends Authorization: Bearer <token>
	AuthBearer
	// AuthClientCredentials sends X-Client-Auth: Basic base64(id:secret)
	AuthClientCredentials
)

// String returns the string representation of an AuthMode
func (m AuthMode) String() string {
	switch m {
	case AuthBearer:
		return "bearer"
	case AuthClientCredentials:
		return "client_credentials"
	default:
		return "none"
	}
}

// Header names used for authentication
const (
	HeaderAuthorization = "Authorization"
	HeaderClientAuth    = "X-Client-Auth"
)

// AuthContext holds the credentials of one client instance.
type AuthContext struct {
	AccessToken  string
	ClientID     string
	ClientSecret string
}

// Mode reports which scheme applies. A bearer token takes precedence over
// client credentials; client credentials need both id and secret.
func (a AuthContext) Mode() AuthMode {
	switch {
	case a.AccessToken != "":
		return AuthBearer
	case a.ClientID != "" && a.ClientSecret != "":
		return AuthClientCredentials
	default:
		return AuthNone
	}
}

// apply sets the authentication header for the current mode
func (a AuthContext) apply(h http.Header) {
	switch a.Mode() {
	case AuthBearer:
		h.Set(HeaderAuthorization, "Bearer "+a.AccessToken)
	case AuthClientCredentials:
		h.Set(HeaderClientAuth, "Basic "+clientCredentials(a.ClientID, a.ClientSecret))
	}
}

func clientCredentials(id, secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(id + ":" + secret))
}

// SetAccessToken sets the bearer token used by subsequent requests.
// An empty token falls back to client credentials, if any.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth.AccessToken = token
}

// AccessToken returns the current bearer token
func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth.AccessToken
}

// Auth returns a snapshot of the authentication context
func (c *Client) Auth() AuthContext {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}
