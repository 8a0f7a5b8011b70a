package usertoken

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const defaultLeeway = 30 * time.Second

// ErrNoSubject means the token validated but carries no phone number.
var ErrNoSubject = errors.New("token subject missing")

// Config configures access-token verification.
type Config struct {
	// Secret is the shared HMAC signing secret used by the auth service.
	Secret string
	Leeway time.Duration
}

// Verifier validates HS256 access tokens and extracts the subject phone number.
// Only the signature and expiry are validated; the auth service does not stamp
// issuer or audience claims.
type Verifier struct {
	secret []byte
	leeway time.Duration
}

// NewVerifier creates a token verifier for the shared signing secret.
func NewVerifier(cfg Config) (*Verifier, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("token verifier requires a signing secret")
	}
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = defaultLeeway
	}
	return &Verifier{
		secret: []byte(secret),
		leeway: leeway,
	}, nil
}

// VerifySubject validates the token and returns the subject phone number.
func (v *Verifier) VerifySubject(token string) (string, error) {
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return "", err
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", ErrNoSubject
	}
	return subject, nil
}
