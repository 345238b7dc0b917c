package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/golang-jwt/jwt/v5"
)

// JWTTokenGenerator verifies RS256 tokens with the identity provider's public
// key. With a private key it also issues tokens for local development.
type JWTTokenGenerator struct {
	PublicKey      *rsa.PublicKey
	PrivateKey     *rsa.PrivateKey
	Issuer         string
	AccessTokenTTL time.Duration
	Now            func() time.Time
}

func NewJWTTokenGenerator(cfg internal.SecurityConfig) (*JWTTokenGenerator, error) {
	pub, err := cfg.GetPublicKey()
	if err != nil {
		return nil, fmt.Errorf("load public key: %w", err)
	}

	gen := &JWTTokenGenerator{
		PublicKey:      pub,
		Issuer:         cfg.Issuer,
		AccessTokenTTL: cfg.AccessTokenDuration,
		Now:            time.Now,
	}
	if cfg.JWTPrivateKey != "" {
		if gen.PrivateKey, err = cfg.GetPrivateKey(); err != nil {
			return nil, fmt.Errorf("load private key: %w", err)
		}
	}
	if gen.AccessTokenTTL <= 0 {
		gen.AccessTokenTTL = time.Hour
	}
	return gen, nil
}

func (j *JWTTokenGenerator) now() time.Time {
	if j.Now == nil {
		return time.Now()
	}
	return j.Now()
}

// GenerateAccessToken signs a token carrying the caller's roles.
func (j *JWTTokenGenerator) GenerateAccessToken(userID, email string, roles []string) (string, error) {
	if j.PrivateKey == nil {
		return "", errors.New("no private key configured")
	}
	now := j.now()

	claims := &Claims{
		Email: email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.AccessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(j.PrivateKey)
}

func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	}
	if j.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return j.PublicKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken.WithCause(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}
