// Package qhttp is an HTTP transport client built around OpenAPI-style
// query parameter serialization, see the query subpackage.
package qhttp

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/nexuer/qhttp/query"
)

// ClientOption is an HTTP client option.
type ClientOption func(*clientOptions)

type clientOptions struct {
	transport      http.RoundTripper
	tlsConf        *tls.Config
	timeout        time.Duration
	endpoint       string
	userAgent      string
	contentType    string
	proxy          func(*http.Request) (*url.URL, error)
	limiter        Limiter
	not2xxError    func() error
	queryOptions   []query.Option
	debugInterface func() DebugInterface
	debug          bool
}

// WithTransport with http.RoundTripper.
func WithTransport(transport http.RoundTripper) ClientOption {
	return func(c *clientOptions) {
		c.transport = transport
	}
}

// WithTLSConfig with tls config.
func WithTLSConfig(cfg *tls.Config) ClientOption {
	return func(c *clientOptions) {
		c.tlsConf = cfg
	}
}

// WithTimeout with client request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *clientOptions) {
		c.timeout = timeout
	}
}

// WithEndpoint with client addr.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *clientOptions) {
		c.endpoint = endpoint
	}
}

// WithUserAgent with client user agent.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *clientOptions) {
		c.userAgent = userAgent
	}
}

// WithContentType with client request content type.
func WithContentType(contentType string) ClientOption {
	return func(c *clientOptions) {
		c.contentType = contentType
	}
}

// WithProxy with proxy url.
func WithProxy(f func(*http.Request) (*url.URL, error)) ClientOption {
	return func(c *clientOptions) {
		c.proxy = f
	}
}

// WithLimiter gates every request through the limiter, e.g.
// rate.NewLimiter from golang.org/x/time/rate.
func WithLimiter(l Limiter) ClientOption {
	return func(c *clientOptions) {
		c.limiter = l
	}
}

// WithNot2xxError decodes non-2xx response bodies into the error value
// returned by f and fails the call with it.
func WithNot2xxError(f func() error) ClientOption {
	return func(c *clientOptions) {
		c.not2xxError = f
	}
}

// WithQueryOptions sets the default query serialization style for
// every request sent by this client. Per-call options passed to Query
// override them.
func WithQueryOptions(opts ...query.Option) ClientOption {
	return func(c *clientOptions) {
		c.queryOptions = opts
	}
}

// WithDebug open debug.
func WithDebug(open bool) ClientOption {
	return func(c *clientOptions) {
		c.debug = open
	}
}

// WithDebugInterface sets the function to create a new DebugInterface
// instance.
func WithDebugInterface(f func() DebugInterface) ClientOption {
	return func(c *clientOptions) {
		c.debugInterface = f
	}
}

// Client is an HTTP client.
type Client struct {
	opts clientOptions
	hc   *http.Client
}

func NewClient(opts ...ClientOption) *Client {
	options := clientOptions{
		contentType: "application/json",
		timeout:     5 * time.Second,
		transport:   http.DefaultTransport,
	}

	for _, o := range opts {
		o(&options)
	}

	if options.tlsConf != nil || options.proxy != nil {
		base, ok := options.transport.(*http.Transport)
		if !ok {
			base = http.DefaultTransport.(*http.Transport)
		}
		base = base.Clone()
		if options.tlsConf != nil {
			base.TLSClientConfig = options.tlsConf
		}
		if options.proxy != nil {
			base.Proxy = options.proxy
		}
		options.transport = base
	}

	return &Client{
		opts: options,
		hc: &http.Client{
			Transport: options.transport,
		},
	}
}

func (c *Client) setTimeout(ctx context.Context) (context.Context, context.CancelFunc, bool) {
	if c.opts.timeout > 0 {
		// the timeout period of this request will not be overwritten
		if _, ok := ctx.Deadline(); !ok {
			ctx, cancel := context.WithTimeout(ctx, c.opts.timeout)
			return ctx, cancel, true
		}
	}
	return ctx, func() {}, false
}

func (c *Client) setHeader(req *http.Request) {
	if c.opts.userAgent != "" && req.UserAgent() == "" {
		req.Header.Set("User-Agent", c.opts.userAgent)
	}

	if c.opts.contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Accept", c.opts.contentType)
		req.Header.Set("Content-Type", c.opts.contentType)
	}
}

func (c *Client) debugger() DebugInterface {
	if !c.opts.debug {
		return nil
	}
	if c.opts.debugInterface != nil {
		return c.opts.debugInterface()
	}
	return &Debug{Writer: os.Stderr}
}

// Do sends an HTTP request and returns the response. Query call
// options inherit the client's WithQueryOptions style defaults.
func (c *Client) Do(req *http.Request, opts ...CallOption) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("http: nil http request")
	}

	// First set the default header, the user can overwrite
	c.setHeader(req)

	// set timeout
	ctx, cancel, ok := c.setTimeout(req.Context())
	if ok {
		defer cancel()
		req = req.WithContext(ctx)
	}

	// set default endpoint
	if c.opts.endpoint != "" {
		fullPath := joinPath(c.opts.endpoint, req.URL.String())
		newURL, err := url.Parse(fullPath)
		if err != nil {
			return nil, newError(req, nil, err)
		}
		req.URL = newURL
	}

	for _, callOpt := range opts {
		// client-level query style defaults apply first, per-call
		// options override them
		if qo, ok := callOpt.(queryCallOption); ok && len(c.opts.queryOptions) > 0 {
			merged := append(append([]query.Option{}, c.opts.queryOptions...), qo.opts...)
			callOpt = queryCallOption{query: qo.query, opts: merged}
		}
		if err := callOpt.Before(req); err != nil {
			return nil, newError(req, nil, err)
		}
	}

	if c.opts.limiter != nil {
		if err := c.opts.limiter.Wait(req.Context()); err != nil {
			return nil, newError(req, nil, err)
		}
	}

	debugger := c.debugger()
	if debugger != nil {
		debugger.Before(req)
	}

	response, err := c.hc.Do(req)
	if debugger != nil {
		debugger.After(req, response, err)
	}
	if err != nil {
		return nil, err
	}

	if c.opts.not2xxError != nil && not2xxCode(response.StatusCode) {
		not2xxErr := c.opts.not2xxError()
		// decode failures keep the bare error value so the status code
		// still reaches the caller
		_ = BindResponseBody(response, not2xxErr)
		return response, newError(req, response, not2xxErr)
	}

	for _, callOpt := range opts {
		if err = callOpt.After(response); err != nil {
			return nil, newError(req, response, err)
		}
	}

	return response, nil
}

// Invoke builds a request for method and path, encodes args as the
// request body per the client content type, sends it, and decodes the
// response body into reply. args and reply may be nil.
func (c *Client) Invoke(ctx context.Context, method, path string, args any, reply any, opts ...CallOption) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, path, nil)
	if err != nil {
		return nil, err
	}

	if args != nil {
		c.setHeader(req)
		if err = EncodeRequestBody(req, args); err != nil {
			return nil, newError(req, nil, err)
		}
	}

	response, err := c.Do(req, opts...)
	if err != nil {
		return response, err
	}

	if reply != nil {
		if err = BindResponseBody(response, reply); err != nil {
			return response, newError(req, response, err)
		}
	}
	return response, nil
}
