// Package token implements the bearer credential format: four dot-separated
// raw URL-safe base64 segments `id.kind.subject.issuedAtMillis`. The codec
// only proves well-formedness; liveness is the token store's job.
package token

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindCompany Kind = "cmp"
	KindUser    Kind = "usr"
)

const credentialTTL = 24 * time.Hour

var ErrMalformed = errors.New("malformed token")

var encoding = base64.RawURLEncoding

// Credential is the identity assertion minted at sign-in, scoped to exactly
// one company or user. It is immutable after creation.
type Credential struct {
	ID       uuid.UUID `json:"id"`
	Kind     Kind      `json:"kind"`
	Subject  uuid.UUID `json:"subject"`
	IssuedAt time.Time `json:"issued_at"`
}

// New mints a credential with a time-ordered id and the current instant.
func New(kind Kind, subject uuid.UUID) Credential {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to v4
		// rather than propagating an error nobody can act on.
		id = uuid.New()
	}
	return Credential{
		ID:       id,
		Kind:     kind,
		Subject:  subject,
		IssuedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

// IsExpired is defense-in-depth only; authoritative expiry is the token
// store's TTL.
func (c Credential) IsExpired() bool {
	return time.Since(c.IssuedAt) >= credentialTTL
}

func (c Credential) Encode() string {
	return strings.Join([]string{
		encoding.EncodeToString(c.ID[:]),
		string(c.Kind),
		encoding.EncodeToString(c.Subject[:]),
		encoding.EncodeToString([]byte(strconv.FormatInt(c.IssuedAt.UnixMilli(), 10))),
	}, ".")
}

// Decode parses an encoded credential. It returns ErrMalformed for every
// structural failure: wrong segment count, invalid base64, identifiers that
// are not exactly 16 bytes, an unknown kind tag, or a timestamp segment that
// is not a decimal integer.
func Decode(encoded string) (Credential, error) {
	parts := strings.Split(encoded, ".")
	if len(parts) != 4 {
		return Credential{}, ErrMalformed
	}

	id, err := decodeUUID(parts[0])
	if err != nil {
		return Credential{}, ErrMalformed
	}

	kind := Kind(parts[1])
	if kind != KindCompany && kind != KindUser {
		return Credential{}, ErrMalformed
	}

	subject, err := decodeUUID(parts[2])
	if err != nil {
		return Credential{}, ErrMalformed
	}

	rawMillis, err := encoding.DecodeString(parts[3])
	if err != nil {
		return Credential{}, ErrMalformed
	}
	millis, err := strconv.ParseInt(string(rawMillis), 10, 64)
	if err != nil {
		return Credential{}, ErrMalformed
	}

	return Credential{
		ID:       id,
		Kind:     kind,
		Subject:  subject,
		IssuedAt: time.UnixMilli(millis).UTC(),
	}, nil
}

func decodeUUID(segment string) (uuid.UUID, error) {
	raw, err := encoding.DecodeString(segment)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.FromBytes(raw)
}
