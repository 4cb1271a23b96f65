package auth

import (
	"crypto/rand"
	"fmt"
	"time"
)

// codeAlphabet omits characters that are easy to misread (0/O, 1/I).
// Its length is a power of two so every byte maps without bias.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	// DefaultCodeLength is the number of characters in a verification code.
	DefaultCodeLength = 6
	// DefaultCodeTTL is how long a verification code stays valid.
	DefaultCodeTTL = time.Hour
)

// VerificationCode is a one-time code with its expiry.
type VerificationCode struct {
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether t is past the code's expiry. The expiry instant
// itself is still valid.
func (v VerificationCode) Expired(t time.Time) bool {
	return t.After(v.ExpiresAt)
}

// CodeIssuer generates verification codes from a cryptographic source.
type CodeIssuer struct {
	length int
	ttl    time.Duration
	now    func() time.Time
}

// NewCodeIssuer creates a code issuer. Non-positive values fall back to the
// defaults.
func NewCodeIssuer(length int, ttl time.Duration) *CodeIssuer {
	if length <= 0 {
		length = DefaultCodeLength
	}
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	return &CodeIssuer{length: length, ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *CodeIssuer) WithClock(now func() time.Time) *CodeIssuer {
	cp := *i
	cp.now = now
	return &cp
}

// Now returns the issuer's notion of the current time.
func (i *CodeIssuer) Now() time.Time {
	return i.now()
}

// Issue generates a fresh code expiring TTL from now.
func (i *CodeIssuer) Issue() (VerificationCode, error) {
	buf := make([]byte, i.length)
	if _, err := rand.Read(buf); err != nil {
		return VerificationCode{}, fmt.Errorf("read random: %w", err)
	}
	for n, b := range buf {
		buf[n] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return VerificationCode{
		Code:      string(buf),
		ExpiresAt: i.now().Add(i.ttl),
	}, nil
}
