package auth

import (
	"fmt"
	"time"
)

// MediaSigner issues and checks download tokens scoped to a single blob key.
type MediaSigner struct {
	jwt *JWTVerifier
	ttl time.Duration
}

// NewMediaSigner creates a signer whose tokens live for ttl.
func NewMediaSigner(v *JWTVerifier, ttl time.Duration) *MediaSigner {
	return &MediaSigner{jwt: v, ttl: ttl}
}

// Sign returns a media token for key.
func (s *MediaSigner) Sign(key string) (string, error) {
	return s.jwt.issue(ScopeMedia, key, s.ttl)
}

// Check verifies that token is a media token for key.
func (s *MediaSigner) Check(token, key string) error {
	claims, err := s.jwt.parse(token, ScopeMedia)
	if err != nil {
		return err
	}
	if claims.Subject != key {
		return fmt.Errorf("%w: token not issued for %q", ErrInvalidToken, key)
	}
	return nil
}
