package authclient

import (
	"net/http"
)

// TokenSource yields the credential to attach to an outgoing request. It must
// return ok=false whenever the session is not authenticated.
type TokenSource func() (token string, ok bool)

// UnauthorizedFunc is invoked when a request that carried a credential came
// back 401. It receives the exact token the request was sent with, so the
// session can demote idempotently even when many rejections land at once.
type UnauthorizedFunc func(token string)

// Authorizer is an http.RoundTripper that attaches the current bearer token
// to outgoing requests and reports authorization failures back to the
// session. It never retries and never swallows the rejection: the original
// caller still sees the 401 response.
type Authorizer struct {
	base           http.RoundTripper
	source         TokenSource
	onUnauthorized UnauthorizedFunc
}

var _ http.RoundTripper = (*Authorizer)(nil)

// AuthorizerOption customizes an Authorizer.
type AuthorizerOption func(*Authorizer)

// WithBaseTransport sets the underlying transport. Defaults to
// http.DefaultTransport.
func WithBaseTransport(base http.RoundTripper) AuthorizerOption {
	return func(a *Authorizer) {
		if base != nil {
			a.base = base
		}
	}
}

// WithUnauthorizedFunc sets the callback run when an authorized request is
// rejected with 401.
func WithUnauthorizedFunc(fn UnauthorizedFunc) AuthorizerOption {
	return func(a *Authorizer) {
		a.onUnauthorized = fn
	}
}

// NewAuthorizer builds an Authorizer around the given token source.
func NewAuthorizer(source TokenSource, opts ...AuthorizerOption) *Authorizer {
	a := &Authorizer{
		base:   http.DefaultTransport,
		source: source,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

// RoundTrip implements http.RoundTripper. A transport-level error is returned
// untouched so callers can distinguish "offline" from "logged out"; session
// state is only reported on an actual 401 response to a request that carried
// a token. Unauthenticated requests (login, password recovery) can never
// demote the session.
func (a *Authorizer) RoundTrip(req *http.Request) (*http.Response, error) {
	token, ok := "", false
	if a.source != nil {
		token, ok = a.source()
	}

	r := req.Clone(req.Context())
	if ok && token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.base.RoundTrip(r)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && ok && token != "" && a.onUnauthorized != nil {
		a.onUnauthorized(token)
	}

	return resp, nil
}
