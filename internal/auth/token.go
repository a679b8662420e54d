package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
	ErrWrongScope   = errors.New("token scope not accepted here")
)

// Issuer is the "iss" of every token chatd signs.
const Issuer = "chatd"

// Scope says what a token grants. Operator tokens authenticate API calls;
// media tokens open a single blob and nothing else.
type Scope string

const (
	ScopeOperator Scope = "operator"
	ScopeMedia    Scope = "media"
)

// Claims are the claims of a chatconsole token. Subject is the operator
// email for ScopeOperator and the blob key for ScopeMedia.
type Claims struct {
	Scope Scope `json:"scope"`
	jwt.RegisteredClaims
}

// TokenVerifier resolves a bearer token to the operator it was issued for.
type TokenVerifier interface {
	Verify(tokenString string) (subject string, err error)
}

// JWTVerifier verifies and issues HS256 signed JWTs.
type JWTVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewJWTVerifier creates a verifier keyed by secret.
func NewJWTVerifier(secret []byte) *JWTVerifier {
	return &JWTVerifier{secret: secret, now: time.Now}
}

// Verify validates an operator token and returns its subject.
func (v *JWTVerifier) Verify(tokenString string) (string, error) {
	claims, err := v.parse(tokenString, ScopeOperator)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Generate issues an operator token for subject that expires after expiresIn.
func (v *JWTVerifier) Generate(subject string, expiresIn time.Duration) (string, error) {
	return v.issue(ScopeOperator, subject, expiresIn)
}

func (v *JWTVerifier) issue(scope Scope, subject string, expiresIn time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// parse checks signature, issuer and expiry, then requires scope and a
// subject.
func (v *JWTVerifier) parse(tokenString string, scope Scope) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Scope != scope {
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidToken, ErrWrongScope, claims.Scope)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	return &claims, nil
}
