// Package auth holds the credential primitives of the service: password
// hashing, bearer tokens, server-side sessions and the strategy that picks
// between the last two.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindToken    Kind = "token"
	KindStateful Kind = "stateful"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindToken, KindStateful:
		return k, nil
	}
	return "", fmt.Errorf("unknown session strategy %q", s)
}

var ErrNoSession = errors.New("no active session")

// Identity is the authenticated principal of a request.
type Identity struct {
	UserID int64
	RoleID int64
}

// Grant is what a successful login hands back to the client: a bearer token
// or a session id to be carried in a cookie.
type Grant struct {
	Kind       Kind
	Credential string
	ExpiresAt  time.Time
}

// Strategy establishes, resolves and ends sessions. A deployment runs exactly one.
type Strategy interface {
	Kind() Kind
	Begin(ctx context.Context, id Identity) (Grant, error)
	Resolve(ctx context.Context, credential string) (Identity, error)
	End(ctx context.Context, credential string) error
}

type TokenStrategy struct {
	tm *TokenManager
}

func NewTokenStrategy(tm *TokenManager) *TokenStrategy { return &TokenStrategy{tm: tm} }

func (s *TokenStrategy) Kind() Kind { return KindToken }

func (s *TokenStrategy) Begin(_ context.Context, id Identity) (Grant, error) {
	tok, exp, err := s.tm.Issue(id)
	if err != nil {
		return Grant{}, fmt.Errorf("sign token: %w", err)
	}
	return Grant{Kind: KindToken, Credential: tok, ExpiresAt: exp}, nil
}

func (s *TokenStrategy) Resolve(_ context.Context, credential string) (Identity, error) {
	return s.tm.Parse(credential)
}

// End is a no-op: tokens carry no server state and are not revoked.
func (s *TokenStrategy) End(context.Context, string) error { return nil }

type SessionStrategy struct {
	store *SessionStore
}

func NewSessionStrategy(store *SessionStore) *SessionStrategy {
	return &SessionStrategy{store: store}
}

func (s *SessionStrategy) Kind() Kind { return KindStateful }

func (s *SessionStrategy) Begin(_ context.Context, id Identity) (Grant, error) {
	sess := s.store.Create(id)
	return Grant{Kind: KindStateful, Credential: sess.ID, ExpiresAt: sess.ExpiresAt}, nil
}

func (s *SessionStrategy) Resolve(_ context.Context, credential string) (Identity, error) {
	if credential == "" {
		return Identity{}, ErrNoSession
	}
	sess, ok := s.store.Lookup(credential)
	if !ok {
		return Identity{}, ErrNoSession
	}
	return sess.Identity, nil
}

// End clears the session if there is one; ending nothing is not an error.
func (s *SessionStrategy) End(_ context.Context, credential string) error {
	if credential != "" {
		s.store.Delete(credential)
	}
	return nil
}
