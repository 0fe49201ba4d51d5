// Package tokens issues and verifies the bearer tokens that protect the
// taskgate API.
//
// Tokens are HS256 (HMAC with SHA-256) signed JSON Web Tokens carrying a
// subject, an issue time and an expiration. Every token issued and verified
// during one process lifetime uses the same secret, which is decoded once
// at startup:
//
//   - KeyHolder: derives and caches the SigningKey from a base64 secret
//   - Encode/Decode: the codec, signature only, no temporal checks
//   - Service: issuance and claim extraction on top of the codec
//
// # Issuing
//
//	keys, err := tokens.NewKeyHolder(secret)
//	if err != nil {
//	    log.Fatal(err) // the process cannot run without a key
//	}
//	svc := tokens.NewService(keys)
//
//	token, err := svc.Issue("alice") // valid for ValidityWindow (48h)
//
// # Validating
//
// Validate is the single predicate for "may this token be used by this
// principal right now":
//
//	if svc.Validate(token, principal) {
//	    // subject matches and token has not expired
//	}
//
// Verify returns the reason instead of a bool.
//
// # Error Handling
//
// Signature and expiry failures are independent:
//
//	_, err := svc.SubjectOf(token)
//	switch {
//	case errors.Is(err, tokens.ErrSignatureInvalid):
//	    // tampered, or signed with another key
//	case errors.Is(err, tokens.ErrMalformedToken):
//	    // not a token at all
//	}
//
//	expired, err := svc.IsExpired(token) // signature fine, time is up
//
// Decode errors are *DecodeError; their Context method describes the
// failure without revealing token contents and is what callers should log.
package tokens
