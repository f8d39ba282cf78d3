package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout applies when neither Config nor options set one
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent identifies the SDK on the wire
	DefaultUserAgent = "tokenmgmt-go/1.0"

	// HeaderRequestID carries the per-request correlation id
	HeaderRequestID = "X-Request-ID"
)

// Config holds the connection settings of a Client.
type Config struct {
	BaseURL       string
	ClientID      string
	ClientSecret  string
	Timeout       time.Duration
	SkipTLSVerify bool
}

// Client is the single choke point for Token Management API calls.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     zerolog.Logger
	userAgent  string
	metrics    *requestMetrics

	mu   sync.RWMutex
	auth AuthContext
}

// New creates a new gateway client
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	if cfg.Timeout > 0 {
		o.timeout = cfg.Timeout
	}
	o.skipVerify = cfg.SkipTLSVerify
	for _, opt := range opts {
		opt(o)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = newHTTPClient(o.timeout, o.skipVerify)
	}

	c := &Client{
		baseURL:    base,
		httpClient: httpClient,
		logger:     o.logger,
		userAgent:  o.userAgent,
		auth: AuthContext{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
		},
	}

	if o.registerer != nil {
		m, err := newRequestMetrics(o.registerer)
		if err != nil {
			return nil, err
		}
		c.metrics = m
	}

	return c, nil
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Get performs a GET request with the given query parameters
func (c *Client) Get(ctx context.Context, path string, query map[string]any) (*Envelope, error) {
	return c.do(ctx, http.MethodGet, path, encodeQuery(query), nil)
}

// Post performs a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body map[string]any) (*Envelope, error) {
	return c.do(ctx, http.MethodPost, path, nil, jsonBody(body))
}

// Put performs a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, path string, body map[string]any) (*Envelope, error) {
	return c.do(ctx, http.MethodPut, path, nil, jsonBody(body))
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, path string) (*Envelope, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do sends one request and interprets the response
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*Envelope, error) {
	reqURL := c.resolve(path, query)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(HeaderRequestID, requestID)

	auth := c.Auth()
	auth.apply(req.Header)

	started := time.Now()
	log := c.logger.With().
		Str("method", method).
		Str("url", reqURL).
		Str("request_id", requestID).
		Str("auth", auth.Mode().String()).
		Logger()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErr := transportError(err)
		c.metrics.observe(method, apiErr, started)
		log.Debug().Err(err).Dur("duration", time.Since(started)).Msg("Token API request failed")
		return nil, apiErr
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr := transportError(fmt.Errorf("read response body: %w", err))
		c.metrics.observe(method, apiErr, started)
		return nil, apiErr
	}

	env, err := interpret(resp.StatusCode, raw)
	c.metrics.observe(method, err, started)

	event := log.Debug()
	if err != nil {
		event = log.Warn().Err(err).Str("kind", KindOf(err).String())
	}
	event.Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("Token API request completed")

	return env, err
}

// resolve joins path onto the base URL. A leading slash on path is optional.
func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawPath = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func newHTTPClient(timeout time.Duration, skipVerify bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if skipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via verify_ssl=false
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: base_url is required", ErrInvalidConfig)
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: parse base_url %q: %v", ErrInvalidConfig, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: base_url %q must use http or https", ErrInvalidConfig, raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: base_url %q has no host", ErrInvalidConfig, raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// jsonBody returns the value to encode for POST and PUT; an empty body is
// sent as {}.
func jsonBody(body map[string]any) any {
	if body == nil {
		return map[string]any{}
	}
	return body
}

// encodeQuery flattens query parameters the way form-style APIs expect:
// nil values are dropped, booleans become 1/0, slices and maps use
// bracketed keys (ids[0]=1, filter[status]=2).
func encodeQuery(params map[string]any) url.Values {
	if len(params) == 0 {
		return nil
	}
	values := url.Values{}
	for key, value := range params {
		addQueryValue(values, key, value)
	}
	return values
}

func addQueryValue(values url.Values, key string, value any) {
	switch v := value.(type) {
	case nil:
		return
	case bool:
		if v {
			values.Add(key, "1")
		} else {
			values.Add(key, "0")
		}
		return
	case string:
		values.Add(key, v)
		return
	case json.Number:
		values.Add(key, v.String())
		return
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			addQueryValue(values, fmt.Sprintf("%s[%d]", key, i), rv.Index(i).Interface())
		}
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		byKey := make(map[string]reflect.Value, rv.Len())
		for _, k := range rv.MapKeys() {
			name := fmt.Sprint(k.Interface())
			keys = append(keys, name)
			byKey[name] = rv.MapIndex(k)
		}
		sort.Strings(keys)
		for _, name := range keys {
			addQueryValue(values, fmt.Sprintf("%s[%s]", key, name), byKey[name].Interface())
		}
	case reflect.Pointer:
		if rv.IsNil() {
			return
		}
		addQueryValue(values, key, rv.Elem().Interface())
	default:
		values.Add(key, fmt.Sprint(value))
	}
}
