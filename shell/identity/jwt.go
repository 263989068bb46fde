package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret    = errors.New("token secret must not be empty")
	ErrInvalidToken   = errors.New("invalid bearer token")
	ErrUnknownRole    = errors.New("token carries an unknown role")
	ErrMissingSubject = errors.New("token has no subject")
)

type actorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 bearer tokens issued by the identity subsystem.
type TokenVerifier struct {
	secret []byte
	issuer string
	leeway time.Duration
	now    func() time.Time
}

// VerifierOption configures a TokenVerifier.
type VerifierOption func(*TokenVerifier)

// WithIssuer requires the iss claim to match.
func WithIssuer(issuer string) VerifierOption {
	return func(v *TokenVerifier) {
		v.issuer = issuer
	}
}

// WithLeeway tolerates clock skew when checking exp and nbf.
func WithLeeway(leeway time.Duration) VerifierOption {
	return func(v *TokenVerifier) {
		v.leeway = leeway
	}
}

// WithTimeFunc replaces the clock used for exp and nbf checks.
func WithTimeFunc(now func() time.Time) VerifierOption {
	return func(v *TokenVerifier) {
		v.now = now
	}
}

// NewTokenVerifier creates a TokenVerifier for the shared secret.
func NewTokenVerifier(secret []byte, opts ...VerifierOption) (*TokenVerifier, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	v := &TokenVerifier{secret: secret, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}

	return v, nil
}

// Verify parses the raw token and returns the actor it names.
func (v *TokenVerifier) Verify(raw string) (Actor, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}

	claims := &actorClaims{}

	_, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (any, error) {
		return v.secret, nil
	}, parserOpts...)
	if err != nil {
		return Actor{}, errors.Join(ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return Actor{}, ErrMissingSubject
	}

	role := Role(claims.Role)
	if !role.IsValid() {
		return Actor{}, fmt.Errorf("%w: %q", ErrUnknownRole, claims.Role)
	}

	return Actor{ID: claims.Subject, Role: role}, nil
}

// Issue signs a token for the actor. The identity subsystem normally does this;
// it is used by tests and the local token command.
func (v *TokenVerifier) Issue(actor Actor, ttl time.Duration) (string, error) {
	now := v.now()

	claims := actorClaims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
