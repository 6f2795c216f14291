package qhttp

import (
	"context"
	"net/http"

	"github.com/nexuer/qhttp/query"
)

// Limiter gates outgoing requests. golang.org/x/time/rate.Limiter
// satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// CallOption configures one request before it is sent and may inspect
// the response after.
type CallOption interface {
	Before(request *http.Request) error
	After(response *http.Response) error
}

// Query appends q, serialized with the OpenAPI query styles, to the
// request URL. Options select the style per call:
//
//	qhttp.Query(params)                                          // form, exploded
//	qhttp.Query(params, query.Explode(false), query.Delimiter("|")) // pipeDelimited
//	qhttp.Query(params, query.DeepObject(true))                  // deepObject
//
// q may also be a prepared *query.Encoder when different keys need
// different styles in a single request.
func Query(q any, opts ...query.Option) CallOption {
	return queryCallOption{query: q, opts: opts}
}

type queryCallOption struct {
	query any
	opts  []query.Option
}

func (q queryCallOption) Before(request *http.Request) error {
	return SetQuery(request, q.query, q.opts...)
}

func (q queryCallOption) After(response *http.Response) error {
	return nil
}

// BasicAuth sets the request's Authorization header to use HTTP Basic
// Authentication.
func BasicAuth(username, password string) CallOption {
	return basicAuthCallOption{username, password}
}

type basicAuthCallOption struct {
	username string
	password string
}

func (b basicAuthCallOption) Before(request *http.Request) error {
	if b.username != "" || b.password != "" {
		request.SetBasicAuth(b.username, b.password)
	}
	return nil
}

func (b basicAuthCallOption) After(response *http.Response) error {
	return nil
}

// BearerToken sets the request's Authorization header to the token.
func BearerToken(token string) CallOption {
	return bearerTokenCallOption{token}
}

type bearerTokenCallOption struct {
	token string
}

func (b bearerTokenCallOption) Before(request *http.Request) error {
	if b.token != "" {
		request.Header.Set("Authorization", "Bearer "+b.token)
	}
	return nil
}

func (b bearerTokenCallOption) After(response *http.Response) error {
	return nil
}

type RequestFunc func(request *http.Request) error
type ResponseFunc func(response *http.Response) error

// Before runs hooks on the request before it is sent.
func Before(hooks ...RequestFunc) CallOption {
	return beforeHooksCallOption{hooks}
}

type beforeHooksCallOption struct {
	hooks []RequestFunc
}

func (b beforeHooksCallOption) Before(request *http.Request) error {
	for _, f := range b.hooks {
		if err := f(request); err != nil {
			return err
		}
	}
	return nil
}

func (b beforeHooksCallOption) After(response *http.Response) error {
	return nil
}

// After runs hooks on the response.
func After(hooks ...ResponseFunc) CallOption {
	return afterHooksCallOption{hooks}
}

type afterHooksCallOption struct {
	hooks []ResponseFunc
}

func (a afterHooksCallOption) Before(request *http.Request) error {
	return nil
}

func (a afterHooksCallOption) After(response *http.Response) error {
	for _, f := range a.hooks {
		if err := f(response); err != nil {
			return err
		}
	}
	return nil
}

// CallOptions bundles the common per-call settings into one value.
type CallOptions struct {
	// Query parameters and their serialization style
	Query        any
	QueryOptions []query.Option

	// Basic auth
	Username string
	Password string

	// Bearer token
	BearerToken string

	// hooks
	BeforeHooks []RequestFunc
	AfterHooks  []ResponseFunc
}

func (c *CallOptions) Before(request *http.Request) error {
	for _, f := range c.BeforeHooks {
		if err := f(request); err != nil {
			return err
		}
	}

	if err := SetQuery(request, c.Query, c.QueryOptions...); err != nil {
		return err
	}

	if c.Username != "" || c.Password != "" {
		request.SetBasicAuth(c.Username, c.Password)
	}

	if c.BearerToken != "" {
		request.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}

	return nil
}

func (c *CallOptions) After(response *http.Response) error {
	for _, f := range c.AfterHooks {
		if err := f(response); err != nil {
			return err
		}
	}
	return nil
}
