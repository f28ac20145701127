package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token decode failures. All three collapse to "not authenticated" at the
// middleware boundary; they stay distinct here so callers cannot confuse an
// unexpected internal error with a merely invalid token.
var (
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenSignature = errors.New("token signature is invalid")
	ErrTokenExpired   = errors.New("token is expired")
)

// Claims is the fixed claim set carried by every session token.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// TokenCodec mints and verifies HS256 session tokens. The secret and validity
// window are fixed at construction; the codec itself is stateless.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenCodec(secret []byte, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: secret, ttl: ttl}
}

// Encode mints a signed token binding the username and admin flag, valid from
// now until now+ttl.
func (c *TokenCodec) Encode(username string, isAdmin bool) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Username: username,
		IsAdmin:  isAdmin,
	})
	return token.SignedString(c.secret)
}

// Decode verifies the signature and validity window and returns the embedded
// claims. Signature comparison is constant time (HMAC verification inside
// golang-jwt). Expired tokens are rejected regardless of signature validity;
// anything that does not parse into a HS256 payload+signature pair is
// malformed.
func (c *TokenCodec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignature
		default:
			return nil, ErrTokenMalformed
		}
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
