package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	subject := uuid.New()
	cred := New(KindUser, subject)

	decoded, err := Decode(cred.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.ID != cred.ID {
		t.Fatalf("id mismatch: %s vs %s", decoded.ID, cred.ID)
	}
	if decoded.Kind != KindUser {
		t.Fatalf("kind mismatch: %s", decoded.Kind)
	}
	if decoded.Subject != subject {
		t.Fatalf("subject mismatch: %s vs %s", decoded.Subject, subject)
	}
	if !decoded.IssuedAt.Equal(cred.IssuedAt) {
		t.Fatalf("issued_at mismatch: %s vs %s", decoded.IssuedAt, cred.IssuedAt)
	}
}

func TestEncodedShape(t *testing.T) {
	cred := New(KindCompany, uuid.New())
	encoded := cred.Encode()

	parts := strings.Split(encoded, ".")
	if len(parts) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(parts))
	}
	if parts[1] != "cmp" {
		t.Fatalf("expected kind tag cmp, got %q", parts[1])
	}
	if strings.ContainsAny(encoded, "+/=") {
		t.Fatalf("encoding must be raw url-safe base64, got %q", encoded)
	}
}

func TestDecodeMalformed(t *testing.T) {
	valid := New(KindUser, uuid.New()).Encode()
	parts := strings.Split(valid, ".")

	cases := map[string]string{
		"empty":             "",
		"too few segments":  strings.Join(parts[:3], "."),
		"too many segments": valid + ".extra",
		"bad id base64":     "!!!." + parts[1] + "." + parts[2] + "." + parts[3],
		"short id":          "YWJj." + parts[1] + "." + parts[2] + "." + parts[3],
		"unknown kind":      parts[0] + ".adm." + parts[2] + "." + parts[3],
		"bad subject":       parts[0] + "." + parts[1] + ".YWJj." + parts[3],
		"bad millis":        parts[0] + "." + parts[1] + "." + parts[2] + ".bm90YW51bWJlcg",
	}

	for name, encoded := range cases {
		if _, err := Decode(encoded); !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: expected ErrMalformed, got %v", name, err)
		}
	}
}

func TestIsExpired(t *testing.T) {
	fresh := New(KindUser, uuid.New())
	if fresh.IsExpired() {
		t.Fatal("fresh credential must not be expired")
	}

	stale := fresh
	stale.IssuedAt = time.Now().Add(-25 * time.Hour)
	if !stale.IsExpired() {
		t.Fatal("credential past its ttl must be expired")
	}
}

func TestNewIDsAreTimeOrdered(t *testing.T) {
	first := New(KindUser, uuid.New())
	second := New(KindUser, uuid.New())

	if first.ID.Version() == 7 && second.ID.Version() == 7 {
		if strings.Compare(first.ID.String(), second.ID.String()) > 0 {
			t.Fatalf("v7 ids must sort by mint order: %s > %s", first.ID, second.ID)
		}
	}
}
