// Package auth holds the cache-backed registry of issued credentials. The
// store, not the codec, is authoritative: a structurally valid token that the
// store does not recognize fails closed.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/NikSneMC/prod-2025-promo-api/internal/cache"
	"github.com/NikSneMC/prod-2025-promo-api/pkg/token"
)

const (
	tokensNamespace = "tokens"
	tokenExpiry     = 24 * time.Hour
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type TokenStore struct {
	cache *cache.Client
}

func NewTokenStore(c *cache.Client) *TokenStore {
	return &TokenStore{cache: c}
}

// Issue registers the credential under its subject id. Issuing for a subject
// that already holds a credential silently supersedes it: one active session
// per subject.
func (s *TokenStore) Issue(ctx context.Context, cred token.Credential) (token.Credential, error) {
	if err := s.cache.SetJSON(ctx, tokensNamespace, cred.Subject.String(), cred, tokenExpiry); err != nil {
		return token.Credential{}, err
	}
	return cred, nil
}

// Validate succeeds only when the stored credential for the presented
// subject exists and matches field for field, id included. A missing entry
// (TTL elapsed) and a different stored id (newer sign-in) are
// indistinguishable to the caller.
func (s *TokenStore) Validate(ctx context.Context, cred token.Credential) (token.Credential, error) {
	var stored token.Credential
	ok, err := s.cache.GetJSON(ctx, tokensNamespace, cred.Subject.String(), &stored)
	if err != nil {
		return token.Credential{}, err
	}
	if !ok || !credentialsEqual(stored, cred) {
		return token.Credential{}, ErrInvalidCredentials
	}
	return stored, nil
}

// Revoke drops the subject's credential, logging out its session.
func (s *TokenStore) Revoke(ctx context.Context, cred token.Credential) error {
	return s.cache.Delete(ctx, tokensNamespace, cred.Subject.String())
}

func credentialsEqual(a, b token.Credential) bool {
	return a.ID == b.ID &&
		a.Kind == b.Kind &&
		a.Subject == b.Subject &&
		a.IssuedAt.Equal(b.IssuedAt)
}
