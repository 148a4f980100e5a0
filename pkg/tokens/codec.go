package tokens

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	ErrMalformed        = errors.New("token malformed")
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
	ErrWrongKind        = errors.New("token kind mismatch")
)

// jwt segments are unpadded base64url; Strict rejects non-zero trailing bits so
// every character of the signature is significant.
var signatureEncoding = base64.RawURLEncoding.Strict()

type Claims struct {
	Kind Kind `json:"typ"`
	jwt.RegisteredClaims
}

type Issued struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Now           func() time.Time
}

type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
	parser        *jwt.Parser
}

func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 {
		return nil, errors.New("tokens: access secret is empty")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("tokens: ttl must be positive")
	}
	if len(cfg.RefreshSecret) == 0 {
		cfg.RefreshSecret = cfg.AccessSecret
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c := &Codec{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           cfg.Now,
	}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	)
	return c, nil
}

func (c *Codec) TTL(kind Kind) time.Duration {
	if kind == KindRefresh {
		return c.refreshTTL
	}
	return c.accessTTL
}

func (c *Codec) secret(kind Kind) []byte {
	if kind == KindRefresh {
		return c.refreshSecret
	}
	return c.accessSecret
}

// Issue signs a token for subject with a fresh jti and the ttl profile of kind.
func (c *Codec) Issue(kind Kind, subject string) (Issued, error) {
	if subject == "" {
		return Issued{}, errors.New("tokens: empty subject")
	}
	if kind != KindAccess && kind != KindRefresh {
		return Issued{}, ErrWrongKind
	}

	now := c.now()
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.TTL(kind))),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret(kind))
	if err != nil {
		return Issued{}, err
	}

	return Issued{
		Token:     signed,
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Parse checks the HMAC over the raw header.payload bytes before any segment is
// decoded, so a forged token never reaches claim parsing. On ErrExpired the
// verified claims are returned alongside the error.
func (c *Codec) Parse(kind Kind, tokenStr string) (*Claims, error) {
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return nil, ErrMalformed
	}

	sig, err := signatureEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, ErrInvalidSignature
	}
	if err := jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, c.secret(kind)); err != nil {
		return nil, ErrInvalidSignature
	}

	var claims Claims
	_, err = c.parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return c.secret(kind), nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		if claims.Kind != kind {
			return nil, ErrWrongKind
		}
		if claims.Subject == "" || claims.ID == "" {
			return nil, ErrMalformed
		}
		return &claims, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, ErrInvalidSignature
	default:
		return nil, ErrMalformed
	}

	if claims.Kind != kind {
		return nil, ErrWrongKind
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrMalformed
	}
	return &claims, nil
}
