// Package tokenclient is the entry point of the SDK. A TokenClient owns one
// gateway connection and hands out the resource facades bound to it.
//
//	tc, err := tokenclient.New(api.Config{BaseURL: "https://queue.example.com"})
//	if err != nil {
//	    return err
//	}
//	auth, err := tc.Auth().SignIn(ctx, "ada@example.com", password)
//	if err != nil {
//	    return err
//	}
//	tok, err := tc.SetAccessToken(auth.AccessToken()).Tokens().CallNext(ctx, 1, 2)
package tokenclient

import (
	"context"
	"fmt"

	"github.com/s0up4200/tokenmgmt/api"
	"github.com/s0up4200/tokenmgmt/models"
	"github.com/s0up4200/tokenmgmt/resources"
)

// PathHealth is the unauthenticated liveness endpoint
const PathHealth = "api/health"

// authenticator is implemented by gateways that hold a bearer token
type authenticator interface {
	SetAccessToken(token string)
	AccessToken() string
}

// TokenClient composes the gateway and every resource facade
type TokenClient struct {
	requester resources.Requester
	auth      authenticator

	authService     *resources.AuthService
	tokens          *resources.TokenResource
	locations       *resources.LocationResource
	servicePoints   *resources.ServicePointResource
	tokenCategories *resources.TokenCategoryResource
	displays        *resources.DisplayResource
	clients         *resources.ClientResource
}

// New creates a TokenClient backed by a new gateway
func New(cfg api.Config, opts ...api.Option) (*TokenClient, error) {
	gw, err := api.New(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("create token client: %w", err)
	}
	return NewWithRequester(gw), nil
}

// NewWithRequester creates a TokenClient on top of an existing requester.
// SetAccessToken is a no-op unless r can hold a bearer token.
func NewWithRequester(r resources.Requester) *TokenClient {
	tc := &TokenClient{
		requester:       r,
		authService:     resources.NewAuthService(r),
		tokens:          resources.NewTokenResource(r),
		locations:       resources.NewLocationResource(r),
		servicePoints:   resources.NewServicePointResource(r),
		tokenCategories: resources.NewTokenCategoryResource(r),
		displays:        resources.NewDisplayResource(r),
		clients:         resources.NewClientResource(r),
	}
	if a, ok := r.(authenticator); ok {
		tc.auth = a
	}
	return tc
}

// SetAccessToken sets the bearer token for all subsequent calls and returns
// the client for chaining
func (tc *TokenClient) SetAccessToken(token string) *TokenClient {
	if tc.auth != nil {
		tc.auth.SetAccessToken(token)
	}
	return tc
}

// AccessToken returns the current bearer token
func (tc *TokenClient) AccessToken() string {
	if tc.auth == nil {
		return ""
	}
	return tc.auth.AccessToken()
}

func (tc *TokenClient) Auth() *resources.AuthService                      { return tc.authService }
func (tc *TokenClient) Tokens() *resources.TokenResource                  { return tc.tokens }
func (tc *TokenClient) Locations() *resources.LocationResource            { return tc.locations }
func (tc *TokenClient) ServicePoints() *resources.ServicePointResource    { return tc.servicePoints }
func (tc *TokenClient) TokenCategories() *resources.TokenCategoryResource { return tc.tokenCategories }
func (tc *TokenClient) Displays() *resources.DisplayResource              { return tc.displays }
func (tc *TokenClient) Clients() *resources.ClientResource                { return tc.clients }

// Requester returns the underlying gateway
func (tc *TokenClient) Requester() resources.Requester { return tc.requester }

// Health checks that the API is reachable and answering
func (tc *TokenClient) Health(ctx context.Context) (models.Payload, error) {
	env, err := tc.requester.Get(ctx, PathHealth, nil)
	if err != nil {
		return models.Payload{}, fmt.Errorf("health check failed: %w", err)
	}
	return models.NewPayload(env.Payload()), nil
}
