// Package api is the HTTP gateway for the Token Management API.
//
// Every outbound call goes through a single Client, which owns the base URL,
// the HTTP transport (timeout and TLS verification), and the authentication
// context of one SDK instance. The Client decodes JSON bodies and turns
// failures into a small typed error hierarchy.
//
// # Usage
//
//	client, err := api.New(api.Config{
//		BaseURL:      "https://tokens.example.com",
//		ClientID:     "kiosk-1",
//		ClientSecret: "s3cret",
//	}, api.WithLogger(logger))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	env, err := client.Get(ctx, "api/secured/tokens", map[string]any{"mlocation_id": 1})
//
// # Authentication
//
// A Client sends at most one authentication header per request:
//
//   - Authorization: Bearer <token> once SetAccessToken has been called
//   - X-Client-Auth: Basic base64(id:secret) when client credentials are configured
//   - nothing otherwise
//
// The bearer token always wins over client credentials.
//
// # Error Handling
//
// All failures are one of three types:
//
//   - APIError: generic failure. Code is the HTTP status, or 0 when no
//     response was received or the body was not JSON
//   - AuthenticationError: HTTP 401 or 203 with an error envelope
//   - ValidationError: HTTP 400 with an error envelope, carries FieldErrors
//
// AuthenticationError and ValidationError unwrap to their APIError, so a
// single errors.As check handles every case:
//
//	var apiErr *api.APIError
//	if errors.As(err, &apiErr) {
//		fmt.Println(apiErr.Code, apiErr.Message)
//	}
package api
