package identity

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims of the identity provider's session token
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates identity provider tokens.
// The sign-in flow itself is external - this side only checks
// issued tokens and extracts the user email
type Verifier struct {
	secret []byte
}

// NewVerifier creates a token verifier
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("no identity secret")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// FromRequest extracts the authenticated email from the request.
// No token means an unauthenticated user, not an error
func (v *Verifier) FromRequest(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", nil
	}
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", fmt.Errorf("wrong authorization header")
	}
	return v.verify(strings.TrimPrefix(auth, "Bearer "))
}

func (v *Verifier) verify(token string) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("can't parse token: %w", err)
	}
	if claims.Email == "" {
		return "", fmt.Errorf("no email in token")
	}
	return claims.Email, nil
}
