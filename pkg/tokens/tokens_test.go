package tokens_test

import (
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"git.sr.ht/~jakintosh/taskgate/pkg/tokens"
)

var (
	sharedTestKeys     *tokens.KeyHolder
	sharedTestKeysOnce sync.Once
)

// getSharedTestKeys returns a shared key holder for tests that don't need isolation.
func getSharedTestKeys(t *testing.T) *tokens.KeyHolder {
	t.Helper()
	sharedTestKeysOnce.Do(func() {
		sharedTestKeys = generateTestKeys(t)
	})
	return sharedTestKeys
}

// generateTestKeys creates a new unique key for tests that require key isolation.
func generateTestKeys(t *testing.T) *tokens.KeyHolder {
	t.Helper()
	secret, err := tokens.GenerateSecret()
	if err != nil {
		t.Fatalf("failed to generate secret: %v", err)
	}
	keys, err := tokens.NewKeyHolder(secret)
	if err != nil {
		t.Fatalf("failed to build key holder: %v", err)
	}
	return keys
}

func testClaims() tokens.ClaimSet {
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return tokens.ClaimSet{
		Subject:    "alice",
		IssuedAt:   issued,
		Expiration: issued.Add(tokens.ValidityWindow),
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	t.Parallel()
	key := getSharedTestKeys(t).Key()
	original := testClaims()

	encoded, err := tokens.Encode(original, key)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// compact form has three segments
	if parts := strings.Split(encoded, "."); len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(parts))
	}

	decoded, err := tokens.Decode(encoded, key)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	// registered claims survive the round trip
	if decoded.Subject != original.Subject {
		t.Errorf("subject: got %q, want %q", decoded.Subject, original.Subject)
	}
	if !decoded.IssuedAt.Equal(original.IssuedAt) {
		t.Errorf("issued at: got %v, want %v", decoded.IssuedAt, original.IssuedAt)
	}
	if !decoded.Expiration.Equal(original.Expiration) {
		t.Errorf("expiration: got %v, want %v", decoded.Expiration, original.Expiration)
	}
	if len(decoded.Extra) != 0 {
		t.Errorf("expected no extra claims, got %v", decoded.Extra)
	}
}

func TestEncodeDecode_ExtraClaims(t *testing.T) {
	t.Parallel()
	key := getSharedTestKeys(t).Key()
	claims := testClaims()
	claims.Extra = map[string]any{
		"role": "admin",
		"sub":  "mallory",
	}

	encoded, err := tokens.Encode(claims, key)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := tokens.Decode(encoded, key)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	// application claims are carried
	role, ok := decoded.Claim("role")
	if !ok || role != "admin" {
		t.Errorf("role claim: got %v (%v), want admin", role, ok)
	}

	// extra claims cannot override the subject
	if decoded.Subject != "alice" {
		t.Errorf("subject overridden: got %q", decoded.Subject)
	}

	// registered names resolve to typed fields
	sub, ok := decoded.Claim("sub")
	if !ok || sub != "alice" {
		t.Errorf("sub claim: got %v (%v), want alice", sub, ok)
	}

	// unknown claims are absent
	if _, ok := decoded.Claim("missing"); ok {
		t.Error("expected missing claim to be absent")
	}
}

func TestEncode_Header(t *testing.T) {
	t.Parallel()
	key := getSharedTestKeys(t).Key()

	encoded, err := tokens.Encode(testClaims(), key)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	headerJSON, err := base64.RawURLEncoding.DecodeString(strings.Split(encoded, ".")[0])
	if err != nil {
		t.Fatalf("header not base64url: %v", err)
	}

	// header declares HS256
	if !strings.Contains(string(headerJSON), `"alg":"HS256"`) {
		t.Errorf("unexpected header: %s", headerJSON)
	}
}

func TestDecode_TamperedSignature(t *testing.T) {
	t.Parallel()
	key := getSharedTestKeys(t).Key()

	encoded, err := tokens.Encode(testClaims(), key)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	parts := strings.Split(encoded, ".")
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		t.Fatalf("signature not base64url: %v", err)
	}

	// flipping any signature byte is detected
	for i := range signature {
		tampered := make([]byte, len(signature))
		copy(tampered, signature)
		tampered[i] ^= 0x01
		token := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(tampered)

		_, err := tokens.Decode(token, key)
		if !errors.Is(err, tokens.ErrSignatureInvalid) {
			t.Fatalf("byte %d: expected ErrSignatureInvalid, got %v", i, err)
		}
	}
}

func TestDecode_TamperedSignatureText(t *testing.T) {
	t.Parallel()
	key := getSharedTestKeys(t).Key()

	encoded, err := tokens.Encode(testClaims(), key)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	parts := strings.Split(encoded, ".")

	// editing any character of the signature segment is a signature
	// failure, even when the result is not base64url
	for i := range len(parts[2]) {
		for _, bit := range []byte{0x01, 0x02, 0x04, 0x20} {
			signature := []byte(parts[2])
			signature[i] ^= bit
			token := parts[0] + "." + parts[1] + "." + string(signature)

			_, err := tokens.Decode(token, key)
			if !errors.Is(err, tokens.ErrSignatureInvalid) {
				t.Fatalf("char %d bit %#x: expected ErrSignatureInvalid, got %v", i, bit, err)
			}
		}
	}

	// truncated and padded signatures are signature failures too
	for _, signature := range []string{"", parts[2][:len(parts[2])-1], parts[2] + "A", parts[2] + "="} {
		_, err := tokens.Decode(parts[0]+"."+parts[1]+"."+signature, key)
		if !errors.Is(err, tokens.ErrSignatureInvalid) {
			t.Errorf("signature %q: expected ErrSignatureInvalid, got %v", signature, err)
		}
	}
}

func TestDecode_TamperedPayload(t *testing.T) {
	t.Parallel()
	key := getSharedTestKeys(t).Key()

	encoded, err := tokens.Encode(testClaims(), key)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	parts := strings.Split(encoded, ".")
	other := testClaims()
	other.Subject = "mallory"
	forged, err := tokens.Encode(other, key)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// payload swapped under the original signature is rejected
	spliced := parts[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2]
	if _, err := tokens.Decode(spliced, key); !errors.Is(err, tokens.ErrSignatureInvalid) {
		t.Errorf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestDecode_WrongKey(t *testing.T) {
	t.Parallel()
	keyA := generateTestKeys(t).Key()
	keyB := generateTestKeys(t).Key()

	encoded, err := tokens.Encode(testClaims(), keyA)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// token signed by another key fails signature check
	_, err = tokens.Decode(encoded, keyB)
	if !errors.Is(err, tokens.ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}

	// decode errors carry a loggable context
	var decodeErr *tokens.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *DecodeError, got %T", err)
	}
	if decodeErr.Context() == "" {
		t.Error("expected non-empty context")
	}
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()
	key := getSharedTestKeys(t).Key()

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"two segments", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJhIn0"},
		{"four segments", "a.b.c.d"},
		{"bad header base64", "!!!.eyJzdWIiOiJhIn0.c2ln"},
		{"header not json", base64.RawURLEncoding.EncodeToString([]byte("nope")) + ".eyJzdWIiOiJhIn0.c2ln"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tokens.Decode(tt.token, key)
			if !errors.Is(err, tokens.ErrMalformedToken) {
				t.Errorf("expected ErrMalformedToken, got %v", err)
			}
		})
	}
}

func TestDecode_OtherAlgorithms(t *testing.T) {
	t.Parallel()
	key := getSharedTestKeys(t).Key()

	encoded, err := tokens.Encode(testClaims(), key)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	parts := strings.Split(encoded, ".")

	tests := []struct {
		name      string
		header    string
		signature string
	}{
		{"none", `{"alg":"none","typ":"JWT"}`, ""},
		{"HS512", `{"alg":"HS512","typ":"JWT"}`, parts[2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			header := base64.RawURLEncoding.EncodeToString([]byte(tt.header))
			token := header + "." + parts[1] + "." + tt.signature

			// only HS256 is accepted
			_, err := tokens.Decode(token, key)
			if !errors.Is(err, tokens.ErrSignatureInvalid) {
				t.Errorf("expected ErrSignatureInvalid, got %v", err)
			}
		})
	}
}

func TestDecode_ExpiredStillDecodes(t *testing.T) {
	t.Parallel()
	key := getSharedTestKeys(t).Key()
	claims := testClaims()
	claims.IssuedAt = time.Unix(1000, 0)
	claims.Expiration = time.Unix(2000, 0)

	encoded, err := tokens.Encode(claims, key)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// codec checks signature only, not time
	decoded, err := tokens.Decode(encoded, key)
	if err != nil {
		t.Fatalf("expected expired token to decode, got %v", err)
	}
	if decoded.Expiration.Unix() != 2000 {
		t.Errorf("expiration: got %d, want 2000", decoded.Expiration.Unix())
	}
}
