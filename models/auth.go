package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoAccessToken indicates the auth response carried no access token
	ErrNoAccessToken = errors.New("no access token")
	// ErrNoExpiry indicates the access token has no exp claim
	ErrNoExpiry = errors.New("access token has no expiry")
)

// AuthResponse is the result of sign-up, sign-in and token refresh calls:
// {user, permissions, tokens: {accessToken, refreshToken}}.
type AuthResponse struct {
	user         Record
	permissions  any
	accessToken  string
	refreshToken string
}

// NewAuthResponse builds an AuthResponse from a decoded record. Missing
// sections default to empty values.
func NewAuthResponse(rec map[string]any) *AuthResponse {
	r := Record(rec)

	resp := &AuthResponse{
		user:        Record{},
		permissions: []any{},
	}
	if user, ok := r.Object("user"); ok {
		resp.user = user
	}
	if perms, ok := r.Get("permissions"); ok {
		resp.permissions = cloneValue(perms)
	}
	if tokens, ok := r.Object("tokens"); ok {
		resp.accessToken, _ = tokens.String("accessToken")
		resp.refreshToken, _ = tokens.String("refreshToken")
	}
	return resp
}

// User returns a copy of the user object
func (a *AuthResponse) User() Record { return a.user.Clone() }

// UserID returns user.id
func (a *AuthResponse) UserID() (int64, bool) { return a.user.Int("id") }

// Username returns user.username
func (a *AuthResponse) Username() (string, bool) { return a.user.String("username") }

// Permissions returns a copy of the permissions payload as sent by the
// server, usually a list of names.
func (a *AuthResponse) Permissions() any { return cloneValue(a.permissions) }

// HasPermission reports whether name appears in a permission list, or is a
// truthy key of a permission object.
func (a *AuthResponse) HasPermission(name string) bool {
	switch p := a.permissions.(type) {
	case []any:
		for _, item := range p {
			if s, ok := toString(item); ok && s == name {
				return true
			}
		}
	case map[string]any:
		v, ok := Record(p).Bool(name)
		return ok && v
	}
	return false
}

// AccessToken returns the bearer token, or "" when absent
func (a *AuthResponse) AccessToken() string { return a.accessToken }

// RefreshToken returns the refresh token, or "" when absent
func (a *AuthResponse) RefreshToken() string { return a.refreshToken }

// AccessTokenClaims decodes the claims of the access token without
// verifying its signature. The result is for display only.
func (a *AuthResponse) AccessTokenClaims() (jwt.MapClaims, error) {
	if a.accessToken == "" {
		return nil, ErrNoAccessToken
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(a.accessToken, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	return claims, nil
}

// AccessTokenExpiry returns the exp claim of the access token
func (a *AuthResponse) AccessTokenExpiry() (time.Time, error) {
	claims, err := a.AccessTokenClaims()
	if err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("read exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}
