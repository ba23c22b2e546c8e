package identity

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the typed payload of a self-issued token. The subject is
// the internal numeric user id rendered as a string (RegisteredClaims.Subject).
type AccessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the numeric subject out of the claims.
func (c *AccessClaims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

var ErrInvalidToken = errors.New("invalid token")

type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// TokenConfigFromEnv reads the shared secret and issuer from env vars.
// The 7-day TTL matches the lifetime the web client expects.
func TokenConfigFromEnv() TokenConfig {
	return TokenConfig{
		Secret: []byte(os.Getenv("JWT_SECRET")),
		Issuer: os.Getenv("JWT_ISSUER"),
		TTL:    7 * 24 * time.Hour,
	}
}

// TokenCodec mints and verifies self-issued HS256 tokens. The secret is an
// injected handle, not process-wide state, so tests can use their own.
type TokenCodec struct {
	cfg TokenConfig
}

func NewTokenCodec(cfg TokenConfig) *TokenCodec {
	if cfg.TTL == 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	return &TokenCodec{cfg: cfg}
}

// Mint signs a token for the given user.
func (t *TokenCodec) Mint(userID int64, email string, role Role) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Email: email,
		Role:  role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.TTL)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(t.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a bearer token. Any failure (bad signature,
// expiry, wrong algorithm, malformed subject or role) collapses into
// ErrInvalidToken: the resolver treats an invalid credential exactly like an
// absent one and continues down its fallback chain.
func (t *TokenCodec) Verify(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.cfg.Secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidToken
	}
	if _, err := ParseRole(claims.Role); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
