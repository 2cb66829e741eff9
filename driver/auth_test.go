// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SAP/go-nosql/driver/types"
)

type stubAuthProvider struct {
	mu     sync.Mutex
	seen   []*AuthRequest
	err    error
	closed bool
}

func (s *stubAuthProvider) Authorization(_ context.Context, req *AuthRequest) (http.Header, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *req
	s.seen = append(s.seen, &cp)
	if s.err != nil {
		return nil, s.err
	}
	h := http.Header{}
	h.Set("Authorization", "stub")
	return h, nil
}

func (s *stubAuthProvider) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *stubAuthProvider) requests() []*AuthRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*AuthRequest(nil), s.seen...)
}

func TestBearerTokenProvider(t *testing.T) {
	h, err := (&BearerTokenProvider{Token: "tok"}).Authorization(context.Background(), &AuthRequest{})
	if err != nil {
		t.Fatalf("authorization: %v", err)
	}
	if got := h.Get("Authorization"); got != "Bearer tok" {
		t.Fatalf("header: %q", got)
	}
}

func TestAuthProviderError(t *testing.T) {
	auth := &stubAuthProvider{err: errTest}
	s := &stubServer{}
	s.respond = func(call int, w http.ResponseWriter, body []byte) { w.Write(nsonResponse(nil)) }
	c := newTestClient(t, s, func(cfg *Config) { cfg.AuthProvider = auth })

	_, err := c.Get(context.Background(), &GetRequest{TableName: "users", Key: testKey()})
	if err == nil || !strings.Contains(err.Error(), "authorization failed") {
		t.Fatalf("err: %v", err)
	}
	if s.calls() != 0 {
		t.Fatal("request sent without authorization")
	}
}

func TestAuthProviderSeesRetryError(t *testing.T) {
	auth := &stubAuthProvider{}
	s := &stubServer{}
	s.respond = func(call int, w http.ResponseWriter, body []byte) {
		if call == 1 {
			w.Write(nsonError(ReadLimitExceeded, "read rate exceeded"))
			return
		}
		w.Write(nsonRowResponse(types.NewMapValue().Put("id", 1), []byte{1}, 0, 0))
	}
	c := newTestClient(t, s, func(cfg *Config) { cfg.AuthProvider = auth })

	req := &GetRequest{TableName: "users", Key: testKey(), Compartment: "comp", Timeout: 10 * time.Second}
	if _, err := c.Get(context.Background(), req); err != nil {
		t.Fatalf("Get: %v", err)
	}
	seen := auth.requests()
	if len(seen) != 2 {
		t.Fatalf("authorization calls: %d", len(seen))
	}
	if seen[0].LastError != nil {
		t.Fatalf("first call carries an error: %v", seen[0].LastError)
	}
	// the retry exposes the previous failure for credential invalidation
	if !errIs(seen[1].LastError, ReadLimitExceeded) {
		t.Fatalf("retry error: %v", seen[1].LastError)
	}
	if seen[0].Method != http.MethodPost || seen[0].Compartment != "comp" || len(seen[0].Body) == 0 {
		t.Fatalf("auth request view: %+v", seen[0])
	}
}

func TestCloseClosesAuthProvider(t *testing.T) {
	auth := &stubAuthProvider{}
	s := &stubServer{}
	s.respond = func(call int, w http.ResponseWriter, body []byte) { w.Write(nsonResponse(nil)) }
	c := newTestClient(t, s, func(cfg *Config) { cfg.AuthProvider = auth })

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	auth.mu.Lock()
	closed := auth.closed
	auth.mu.Unlock()
	if !closed {
		t.Fatal("auth provider not closed")
	}
	// Close is idempotent
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
