package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultBaseURL is the local development API endpoint.
	DefaultBaseURL = "http://localhost:8000"
	// DefaultRefreshPath is the refresh exchange endpoint.
	DefaultRefreshPath = "/token/refresh/"

	tracerName = "github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
)

// InvalidationHandler is notified when the transport ends a session because a
// 401 could not be recovered. Shells use it to navigate to the login page.
type InvalidationHandler func(ctx context.Context, reason error)

// Transport is the single outbound path to the portal API. It attaches the
// stored bearer token to every request and recovers from an expired access
// token with one refresh exchange followed by one replay of the request.
// A Transport is safe for concurrent use.
type Transport struct {
	baseURL     string
	origin      *url.URL
	httpClient  *http.Client
	store       SessionStore
	refreshPath string
	userAgent   string
	logger      *log.Logger
	tracer      trace.Tracer

	refreshGroup singleflight.Group

	subMu       sync.Mutex
	subscribers []subscriber
	nextSubID   int
	// lastInvalidated is the access token dropped by the latest hard logout.
	lastInvalidated string
}

type subscriber struct {
	id int
	fn InvalidationHandler
}

// TransportOptions configures Transport construction.
type TransportOptions struct {
	HTTPClient     *http.Client
	Logger         *log.Logger
	TracerProvider trace.TracerProvider
	RefreshPath    string
	UserAgent      string
}

// TransportOption mutates TransportOptions.
type TransportOption func(*TransportOptions)

// WithHTTPClient overrides the HTTP client used for all calls.
func WithHTTPClient(client *http.Client) TransportOption {
	return func(opts *TransportOptions) {
		opts.HTTPClient = client
	}
}

// WithLogger sets the logger used for session lifecycle events.
func WithLogger(logger *log.Logger) TransportOption {
	return func(opts *TransportOptions) {
		opts.Logger = logger
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) TransportOption {
	return func(opts *TransportOptions) {
		opts.TracerProvider = tp
	}
}

// WithRefreshPath overrides the refresh exchange endpoint.
func WithRefreshPath(path string) TransportOption {
	return func(opts *TransportOptions) {
		opts.RefreshPath = path
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) TransportOption {
	return func(opts *TransportOptions) {
		opts.UserAgent = ua
	}
}

// NewTransport creates a Transport bound to baseURL that reads and writes
// tokens through store. An empty baseURL selects DefaultBaseURL.
func NewTransport(baseURL string, store SessionStore, optFns ...TransportOption) *Transport {
	opts := TransportOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	if opts.RefreshPath == "" {
		opts.RefreshPath = DefaultRefreshPath
	}

	baseURL = strings.TrimRight(baseURL, "/")
	// An unparsable base URL makes every absolute URL foreign.
	origin, _ := url.Parse(baseURL)

	return &Transport{
		baseURL:     baseURL,
		origin:      origin,
		httpClient:  opts.HTTPClient,
		store:       store,
		refreshPath: opts.RefreshPath,
		userAgent:   opts.UserAgent,
		logger:      opts.Logger,
		tracer:      opts.TracerProvider.Tracer(tracerName),
	}
}

// BaseURL returns the API endpoint the transport talks to.
func (t *Transport) BaseURL() string {
	return t.baseURL
}

// Response is a completed 2xx response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

type requestOptions struct {
	header   http.Header
	skipAuth bool
}

// RequestOption adjusts a single request.
type RequestOption func(*requestOptions)

// WithHeader adds a header to the request, overriding defaults.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.header.Set(key, value)
	}
}

// WithoutAuth sends the request without a bearer token and disables 401
// recovery. Credential exchanges use it.
func WithoutAuth() RequestOption {
	return func(o *requestOptions) {
		o.skipAuth = true
	}
}

// Do sends method path with an optional JSON body. body may be nil, a []byte
// holding pre-encoded JSON, or any value encodable with encoding/json.
// path is relative to the base URL. An absolute URL on another origin is sent
// without credentials and without 401 recovery.
// Non-2xx outcomes are returned as *APIError.
func (t *Transport) Do(ctx context.Context, method, path string, body any, optFns ...RequestOption) (resp *Response, err error) {
	ro := requestOptions{header: http.Header{}}
	for _, fn := range optFns {
		fn(&ro)
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
	}

	refreshed := false
	ctx, span := t.tracer.Start(ctx, "portal.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer func() {
		span.SetAttributes(attribute.Bool("portal.refreshed", refreshed))
		var apiErr *APIError
		switch {
		case resp != nil:
			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		case errors.As(err, &apiErr) && apiErr.StatusCode != 0:
			span.SetAttributes(attribute.Int("http.response.status_code", apiErr.StatusCode))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var sentToken string
	if !ro.skipAuth && t.sameOrigin(path) {
		if creds, credErr := t.store.Credentials(ctx); credErr == nil {
			sentToken = creds.AccessToken
		}
	}

	raw, err := t.send(ctx, method, path, payload, ro.header, sentToken)
	if err != nil {
		return nil, err
	}
	if raw.StatusCode != http.StatusUnauthorized || sentToken == "" {
		return result(method, path, raw)
	}

	accessToken, err := t.recoverSession(ctx, sentToken)
	if err != nil {
		original := newStatusError(method, path, raw.StatusCode, raw.Body)
		original.Err = err
		return nil, original
	}

	refreshed = true
	raw, err = t.send(ctx, method, path, payload, ro.header, accessToken)
	if err != nil {
		return nil, err
	}
	return result(method, path, raw)
}

// DoJSON sends in as the request body and decodes a 2xx response into out.
// out may be nil when the body is not needed.
func (t *Transport) DoJSON(ctx context.Context, method, path string, in, out any, optFns ...RequestOption) error {
	resp, err := t.Do(ctx, method, path, in, optFns...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return nil
}

// OnSessionInvalidated registers fn to be called after a hard logout. The
// returned function removes the registration.
func (t *Transport) OnSessionInvalidated(fn InvalidationHandler) (unsubscribe func()) {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	t.nextSubID++
	id := t.nextSubID
	t.subscribers = append(t.subscribers, subscriber{id: id, fn: fn})

	return func() {
		t.subMu.Lock()
		defer t.subMu.Unlock()
		for i, sub := range t.subscribers {
			if sub.id == id {
				t.subscribers = append(t.subscribers[:i], t.subscribers[i+1:]...)
				return
			}
		}
	}
}

// recoverSession obtains a usable access token after a 401 for a request sent with
// sentToken. It returns an error when the session cannot be recovered, in
// which case the store has been cleared and subscribers notified.
func (t *Transport) recoverSession(ctx context.Context, sentToken string) (string, error) {
	creds, err := t.store.Credentials(ctx)
	if err != nil {
		// A concurrent hard logout already dropped this token and told subscribers.
		if t.wasInvalidated(sentToken) {
			return "", fmt.Errorf("session already invalidated: %w", err)
		}
		reason := fmt.Errorf("no refresh token available: %w", err)
		t.invalidate(ctx, sentToken, reason)
		return "", reason
	}

	// Another caller already refreshed while this request was in flight.
	if creds.AccessToken != sentToken {
		return creds.AccessToken, nil
	}

	v, err, _ := t.refreshGroup.Do(creds.RefreshToken, func() (any, error) {
		return t.refresh(context.WithoutCancel(ctx), creds)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// refresh performs the refresh exchange and persists its outcome. It is run at
// most once per refresh token at a time.
func (t *Transport) refresh(ctx context.Context, creds Credentials) (string, error) {
	accessToken, rotated, err := t.exchangeRefreshToken(ctx, creds.RefreshToken)
	if err == nil {
		if rotated != "" {
			err = t.store.SaveCredentials(ctx, Credentials{AccessToken: accessToken, RefreshToken: rotated})
		} else {
			err = t.store.UpdateAccessToken(ctx, accessToken)
		}
		if err != nil {
			err = fmt.Errorf("persist refreshed access token: %w", err)
		}
	}
	if err != nil {
		t.invalidate(ctx, creds.AccessToken, err)
		return "", err
	}

	t.logger.Printf("portal: access token refreshed")
	return accessToken, nil
}

// exchangeRefreshToken posts the refresh token on the raw HTTP client so the
// exchange itself never re-enters 401 recovery. The refresh token is only ever
// sent to the API origin.
func (t *Transport) exchangeRefreshToken(ctx context.Context, refreshToken string) (access, rotated string, err error) {
	if !t.sameOrigin(t.refreshPath) {
		return "", "", fmt.Errorf("refresh exchange: %w", &APIError{
			Kind:   ErrClient,
			Method: http.MethodPost,
			Path:   t.refreshPath,
			Err:    fmt.Errorf("refresh endpoint is not on %s", t.baseURL),
		})
	}

	payload, err := json.Marshal(refreshRequest{Refresh: refreshToken})
	if err != nil {
		return "", "", err
	}

	raw, err := t.send(ctx, http.MethodPost, t.refreshPath, payload, nil, "")
	if err != nil {
		return "", "", fmt.Errorf("refresh exchange: %w", err)
	}
	if raw.StatusCode < 200 || raw.StatusCode >= 300 {
		return "", "", fmt.Errorf("refresh exchange: %w", newStatusError(http.MethodPost, t.refreshPath, raw.StatusCode, raw.Body))
	}

	var body refreshResponse
	if err := json.Unmarshal(raw.Body, &body); err != nil {
		return "", "", fmt.Errorf("refresh exchange: %w: %w", ErrMalformedResponse, err)
	}
	if body.Access == "" {
		return "", "", fmt.Errorf("refresh exchange: %w: missing access token", ErrMalformedResponse)
	}
	return body.Access, body.Refresh, nil
}

// invalidate performs the hard logout for the session that held accessToken:
// tokens and identity are dropped and subscribers are told the session is gone.
func (t *Transport) invalidate(ctx context.Context, accessToken string, reason error) {
	t.subMu.Lock()
	t.lastInvalidated = accessToken
	t.subMu.Unlock()

	if err := t.store.Clear(ctx); err != nil {
		t.logger.Printf("portal: failed to clear session store: %v", err)
	}
	t.logger.Printf("portal: session invalidated: %v", reason)

	t.subMu.Lock()
	subs := make([]subscriber, len(t.subscribers))
	copy(subs, t.subscribers)
	t.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(ctx, reason)
	}
}

func (t *Transport) wasInvalidated(accessToken string) bool {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	return accessToken != "" && accessToken == t.lastInvalidated
}

func (t *Transport) send(ctx context.Context, method, path string, payload []byte, header http.Header, accessToken string) (*Response, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.resolve(path), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	for key, values := range header {
		req.Header[key] = values
	}
	if accessToken != "" {
		Credentials{AccessToken: accessToken}.OAuth2Token().SetAuthHeader(req)
	}

	res, err := t.httpClient.Do(req)
	if err != nil {
		return nil, newNetworkError(method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, newNetworkError(method, path, err)
	}

	return &Response{StatusCode: res.StatusCode, Header: res.Header, Body: data}, nil
}

func isAbsolute(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

func (t *Transport) resolve(path string) string {
	if isAbsolute(path) {
		return path
	}
	return t.baseURL + "/" + strings.TrimLeft(path, "/")
}

// sameOrigin reports whether path resolves to the scheme and host of the base
// URL. Relative paths always do.
func (t *Transport) sameOrigin(path string) bool {
	if !isAbsolute(path) {
		return true
	}
	u, err := url.Parse(path)
	if err != nil || t.origin == nil {
		return false
	}
	return strings.EqualFold(u.Scheme, t.origin.Scheme) && strings.EqualFold(u.Host, t.origin.Host)
}

func result(method, path string, raw *Response) (*Response, error) {
	if raw.StatusCode >= 200 && raw.StatusCode < 300 {
		return raw, nil
	}
	return nil, newStatusError(method, path, raw.StatusCode, raw.Body)
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		return json.Marshal(body)
	}
}
