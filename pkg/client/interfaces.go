package client

import (
	"context"
	"net/http"
)

// Authenticator obtains and reports identity.
// Consuming projects should depend on this interface rather than *Client
// to enable testing with mock implementations.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*Token, error)
	Me(ctx context.Context) (*Identity, error)
}

// Doer sends authenticated requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time check that *Client implements the interfaces.
var _ Authenticator = (*Client)(nil)
var _ Doer = (*Client)(nil)
