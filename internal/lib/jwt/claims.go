// Package jwt issues and parses the signed session tokens handed out at
// login and registration.
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims carries the user identity inside the token: the stable uid,
// the login email and the role flags the middleware puts into the request
// context.
type CustomClaims struct {
	UserUID    string `json:"uid"`
	Email      string `json:"email"`
	IsClient   bool   `json:"is_client"`
	IsProvider bool   `json:"is_provider"`
	jwt.RegisteredClaims
}

// Maker generates and parses session tokens.
type Maker interface {
	GenerateToken(uid, email string, isClient, isProvider bool) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl signs tokens with a shared HS256 secret and a fixed TTL.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewMaker returns a MakerImpl for the given secret and token lifetime.
func NewMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
