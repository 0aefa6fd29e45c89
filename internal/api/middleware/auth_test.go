package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/NikSneMC/prod-2025-promo-api/internal/auth"
	"github.com/NikSneMC/prod-2025-promo-api/internal/cache"
	"github.com/NikSneMC/prod-2025-promo-api/pkg/token"
)

func newAuthTestRig(t *testing.T) (*auth.TokenStore, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := auth.NewTokenStore(cache.NewClientFromRedis(rdb, "test"))

	router := gin.New()
	router.GET("/probe", Auth(store, token.KindUser), func(c *gin.Context) {
		cred, _ := CredentialFrom(c)
		c.JSON(http.StatusOK, gin.H{"subject": cred.Subject})
	})
	return store, router
}

func probe(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestAuthMissingHeader(t *testing.T) {
	_, router := newAuthTestRig(t)

	rec := probe(router, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if kind := errorKind(t, rec); kind != "missing_authorization_header" {
		t.Fatalf("unexpected kind %q", kind)
	}
}

func TestAuthWrongScheme(t *testing.T) {
	_, router := newAuthTestRig(t)

	rec := probe(router, "Basic dXNlcjpwYXNz")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if kind := errorKind(t, rec); kind != "invalid_auth_method" {
		t.Fatalf("unexpected kind %q", kind)
	}
}

func TestAuthMalformedToken(t *testing.T) {
	_, router := newAuthTestRig(t)

	rec := probe(router, "Bearer definitely.not.a.token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if kind := errorKind(t, rec); kind != "invalid_credentials" {
		t.Fatalf("unexpected kind %q", kind)
	}
}

func TestAuthValidToken(t *testing.T) {
	store, router := newAuthTestRig(t)

	cred := token.New(token.KindUser, uuid.New())
	if _, err := store.Issue(context.Background(), cred); err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := probe(router, "Bearer "+cred.Encode())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthWrongKind(t *testing.T) {
	store, router := newAuthTestRig(t)

	cred := token.New(token.KindCompany, uuid.New())
	if _, err := store.Issue(context.Background(), cred); err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := probe(router, "Bearer "+cred.Encode())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if kind := errorKind(t, rec); kind != "incorrect_token_type" {
		t.Fatalf("unexpected kind %q", kind)
	}
}

func TestAuthSupersededToken(t *testing.T) {
	store, router := newAuthTestRig(t)
	subject := uuid.New()

	first := token.New(token.KindUser, subject)
	if _, err := store.Issue(context.Background(), first); err != nil {
		t.Fatalf("issue first: %v", err)
	}
	if _, err := store.Issue(context.Background(), token.New(token.KindUser, subject)); err != nil {
		t.Fatalf("issue second: %v", err)
	}

	rec := probe(router, "Bearer "+first.Encode())
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("superseded token must be rejected, got %d", rec.Code)
	}
}
