// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"net/http"
)

// AuthRequest is the view of an outgoing request given to the
// AuthProvider. Body is the serialized payload; providers computing
// request signatures may read it but must not modify it.
type AuthRequest struct {
	Method      string
	URL         string
	Body        []byte
	Compartment string
	// LastError is set after an authorization failure so the provider
	// can invalidate cached credentials before the retry.
	LastError error
}

// AuthProvider produces the authorization headers of a request. The
// core consumes only this contract; signature-based cloud providers,
// instance/resource principals and on-prem login tokens are
// implemented externally.
//
// Authorization must be safe for concurrent use and side-effect-free
// except for internal caches. It may block (token refresh); it must
// honor ctx.
//
// Providers holding background resources (timers, file watchers,
// agents) may additionally implement io.Closer; the client closes
// them on Close.
type AuthProvider interface {
	Authorization(ctx context.Context, req *AuthRequest) (http.Header, error)
}

// BearerTokenProvider is a trivial AuthProvider sending a fixed bearer
// token, for deployments where the token is provisioned out of band.
type BearerTokenProvider struct {
	Token string
}

// Authorization implements the AuthProvider interface.
func (b *BearerTokenProvider) Authorization(_ context.Context, _ *AuthRequest) (http.Header, error) {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+b.Token)
	return h, nil
}
