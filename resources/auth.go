package resources

import (
	"context"
	"fmt"

	"github.com/s0up4200/tokenmgmt/models"
)

// Auth endpoints
const (
	PathSignUp           = "api/auth/signup"
	PathSignIn           = "api/auth/signin"
	PathSignInWithGoogle = "api/auth/signInWithGoogleV1"
	PathRefreshToken     = "api/auth/refresh-token"
)

// AuthService signs users in and refreshes their tokens. It does not store
// the returned tokens; callers pass them to SetAccessToken themselves.
type AuthService struct {
	r Requester
}

// NewAuthService creates an AuthService on top of r
func NewAuthService(r Requester) *AuthService {
	return &AuthService{r: r}
}

// SignUp registers a new user. username is the user's email address.
func (s *AuthService) SignUp(ctx context.Context, firstName, username, password string) (*models.AuthResponse, error) {
	return s.post(ctx, PathSignUp, map[string]any{
		"first_name": firstName,
		"username":   username,
		"password":   password,
	})
}

// SignIn authenticates an existing user
func (s *AuthService) SignIn(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	return s.post(ctx, PathSignIn, map[string]any{
		"username": username,
		"password": password,
	})
}

// SignInWithGoogle exchanges a Google authorization code. roleID is sent as
// mrole_id only when non-nil.
func (s *AuthService) SignInWithGoogle(ctx context.Context, code string, roleID *int64) (*models.AuthResponse, error) {
	body := map[string]any{"code": code}
	if roleID != nil {
		body["mrole_id"] = *roleID
	}
	return s.post(ctx, PathSignInWithGoogle, body)
}

// RefreshToken trades a refresh token for a new token pair
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	return s.post(ctx, PathRefreshToken, map[string]any{
		"refreshToken": refreshToken,
	})
}

func (s *AuthService) post(ctx context.Context, path string, body map[string]any) (*models.AuthResponse, error) {
	env, err := s.r.Post(ctx, path, body)
	if err != nil {
		return nil, err
	}
	resp, err := authOf(env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return resp, nil
}
