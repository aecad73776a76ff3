package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"eventrsvp/internal/domain"
)

// ErrInvalidSessionToken is returned for cookies that were not issued by this server.
var ErrInvalidSessionToken = errors.New("invalid session token")

const sessionTokenIssuer = "eventrsvp"

type jwtSessionCodec struct {
	secret []byte
}

// NewJWTSessionCodec returns a SessionTokenCodec that signs the session id as the jti of an
// HS256 JWT. The token carries no expiry; session lifetime is enforced server-side so it can roll.
func NewJWTSessionCodec(secret string) domain.SessionTokenCodec {
	return &jwtSessionCodec{secret: []byte(secret)}
}

func (c *jwtSessionCodec) Encode(sessionID string) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:     sessionID,
		Issuer: sessionTokenIssuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return s, nil
}

func (c *jwtSessionCodec) Decode(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionTokenIssuer),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidSessionToken
	}
	if claims.ID == "" {
		return "", ErrInvalidSessionToken
	}
	return claims.ID, nil
}
