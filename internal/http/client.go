package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/cloudslab-io/azapi/internal/auth"
	"github.com/cloudslab-io/azapi/internal/constants"
	"github.com/cloudslab-io/azapi/pkg/azapi"
)

// Logger interface for the HTTP layer.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Request is an HTTP request against the API.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// Response is the raw result of a request.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// defaultUserAgent identifies this library on the wire.
const defaultUserAgent = "azapi-go/1.0"

// Client wraps retryablehttp with authentication, error mapping, optional
// response caching, and interceptors.
type Client struct {
	baseURL      string
	httpClient   *retryablehttp.Client
	tokenManager auth.TokenManager
	logger       Logger
	debug        bool
	userAgent    string
	authScheme   string
	cache        azapi.Cache
	cacheTTL     time.Duration
	interceptors *azapi.InterceptorChain
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for debug output.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging through the logger.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig tunes transient-failure retries.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithHTTPTimeout bounds each attempt of a request.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithAuthScheme overrides the Authorization scheme. The default is "Bearer";
// an empty scheme sends the token verbatim, which SAS tokens require.
func WithAuthScheme(scheme string) Option {
	return func(c *Client) {
		c.authScheme = scheme
	}
}

// WithCache caches GET responses and validates stale entries with
// If-None-Match when the cached response carried an ETag.
func WithCache(cache azapi.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithInterceptors installs an interceptor chain around every request.
func WithInterceptors(chain *azapi.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates a new API transport rooted at baseURL. tokenManager may
// be nil for unauthenticated requests.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   retryClient,
		tokenManager: tokenManager,
		userAgent:    defaultUserAgent,
		authScheme:   "Bearer",
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Do sends the request and maps error statuses to *azapi.ResponseError. The
// Response is returned alongside the error so callers can inspect the status.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL, err := c.buildURL(req)
	if err != nil {
		return nil, err
	}

	var bodyBytes []byte

	if req.Body != nil {
		bodyBytes, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	cacheKey := req.Method + " " + fullURL

	cached := c.cachedEntry(ctx, req, cacheKey)
	if cached != nil && cached.ETag == "" {
		// Fresh entry without a validator: serve it without a round trip.
		return &Response{StatusCode: http.StatusOK, Body: cached.Data}, nil
	}

	httpReq, interceptReq, err := c.prepareRequest(ctx, req, fullURL, bodyBytes, cached)
	if err != nil {
		return nil, err
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	resp, err := c.readResponse(httpResp)
	if err != nil {
		return nil, err
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":      req.Method,
			"url":         fullURL,
			"status_code": resp.StatusCode,
		})
	}

	resp = c.applyCache(ctx, req, cacheKey, cached, resp)

	var respErr error
	if resp.StatusCode >= http.StatusBadRequest {
		respErr = azapi.ParseResponseError(resp.StatusCode, resp.Body)
	}

	err = c.runResponseInterceptors(ctx, interceptReq, resp, respErr)
	if err != nil {
		return resp, err
	}

	return resp, respErr
}

// prepareRequest builds the retryable request with auth and headers applied.
// The returned azapi.Request is the one the request interceptors saw; the
// response phase reuses it so interceptor state (timing metadata, injected
// headers) survives the round trip.
func (c *Client) prepareRequest(ctx context.Context, req *Request, fullURL string, bodyBytes []byte, cached *azapi.CacheEntry) (*retryablehttp.Request, *azapi.Request, error) {
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, bodyBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if bodyBytes != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if c.tokenManager != nil {
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("getting auth token: %w", err)
		}

		value := token
		if c.authScheme != "" {
			value = c.authScheme + " " + token
		}

		httpReq.Header.Set("Authorization", value)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if cached != nil && cached.ETag != "" {
		httpReq.Header.Set(azapi.HeaderIfNoneMatch, azapi.ETag(cached.ETag).Quoted())
	}

	interceptReq, err := c.runRequestInterceptors(ctx, req, bodyBytes, httpReq)
	if err != nil {
		return nil, nil, err
	}

	return httpReq, interceptReq, nil
}

func (c *Client) buildURL(req *Request) (string, error) {
	path := req.Path

	query := url.Values{}
	for key, vals := range req.Query {
		query[key] = vals
	}

	// nextLink-derived paths already carry an encoded query string.
	if rawPath, rawQuery, found := strings.Cut(path, "?"); found {
		parsed, err := url.ParseQuery(rawQuery)
		if err != nil {
			return "", fmt.Errorf("parsing query of %q: %w", req.Path, err)
		}

		path = rawPath

		for key, vals := range parsed {
			for _, val := range vals {
				query.Add(key, val)
			}
		}
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	return fullURL, nil
}

func (c *Client) readResponse(httpResp *http.Response) (*Response, error) {
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
	}, nil
}

// cachedEntry returns a usable cache entry for GET requests, or nil.
func (c *Client) cachedEntry(ctx context.Context, req *Request, key string) *azapi.CacheEntry {
	if c.cache == nil || req.Method != http.MethodGet {
		return nil
	}

	entry, err := c.cache.Get(ctx, key)
	if err != nil {
		return nil
	}

	return entry
}

// applyCache resolves 304 revalidations against the cached entry and stores
// fresh successful GET responses.
func (c *Client) applyCache(ctx context.Context, req *Request, key string, cached *azapi.CacheEntry, resp *Response) *Response {
	if c.cache == nil || req.Method != http.MethodGet {
		return resp
	}

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		return &Response{StatusCode: http.StatusOK, Headers: resp.Headers, Body: cached.Data}
	}

	if resp.StatusCode == http.StatusOK {
		_ = c.cache.Set(ctx, key, &azapi.CacheEntry{
			Data:      resp.Body,
			ETag:      strings.Trim(resp.Headers.Get("ETag"), `"`),
			ExpiresAt: time.Now().Add(c.cacheTTL),
		})
	}

	return resp
}

func (c *Client) runRequestInterceptors(ctx context.Context, req *Request, body []byte, httpReq *retryablehttp.Request) (*azapi.Request, error) {
	if c.interceptors == nil {
		return nil, nil
	}

	interceptReq := &azapi.Request{
		Method:  req.Method,
		Path:    req.Path,
		Headers: httpReq.Header,
		Body:    body,
	}

	err := c.interceptors.ExecuteRequestInterceptors(ctx, interceptReq)
	if err != nil {
		return nil, err
	}

	return interceptReq, nil
}

func (c *Client) runResponseInterceptors(ctx context.Context, interceptReq *azapi.Request, resp *Response, respErr error) error {
	if c.interceptors == nil {
		return nil
	}

	interceptResp := &azapi.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
		Error:      respErr,
	}

	return c.interceptors.ExecuteResponseInterceptors(ctx, interceptReq, interceptResp)
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post sends a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put sends a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch sends a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}
