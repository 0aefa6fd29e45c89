package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/NikSneMC/prod-2025-promo-api/internal/cache"
	"github.com/NikSneMC/prod-2025-promo-api/pkg/token"
)

func newTestStore(t *testing.T) *TokenStore {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewTokenStore(cache.NewClientFromRedis(rdb, "test"))
}

func TestIssueThenValidate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cred := token.New(token.KindUser, uuid.New())
	if _, err := store.Issue(ctx, cred); err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := store.Validate(ctx, cred)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.ID != cred.ID {
		t.Fatalf("expected stored credential %s, got %s", cred.ID, got.ID)
	}
}

func TestValidateUnknownCredential(t *testing.T) {
	store := newTestStore(t)

	cred := token.New(token.KindUser, uuid.New())
	if _, err := store.Validate(context.Background(), cred); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestReissueSupersedesPriorSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	subject := uuid.New()

	first := token.New(token.KindUser, subject)
	if _, err := store.Issue(ctx, first); err != nil {
		t.Fatalf("issue first: %v", err)
	}

	second := token.New(token.KindUser, subject)
	if _, err := store.Issue(ctx, second); err != nil {
		t.Fatalf("issue second: %v", err)
	}

	if _, err := store.Validate(ctx, first); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("first credential must be dead after re-issue, got %v", err)
	}
	if _, err := store.Validate(ctx, second); err != nil {
		t.Fatalf("second credential must validate: %v", err)
	}
}

func TestValidateRejectsTamperedCredential(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cred := token.New(token.KindUser, uuid.New())
	if _, err := store.Issue(ctx, cred); err != nil {
		t.Fatalf("issue: %v", err)
	}

	tampered := cred
	tampered.Kind = token.KindCompany
	if _, err := store.Validate(ctx, tampered); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for tampered kind, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cred := token.New(token.KindCompany, uuid.New())
	if _, err := store.Issue(ctx, cred); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := store.Revoke(ctx, cred); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := store.Validate(ctx, cred); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials after revoke, got %v", err)
	}
}
