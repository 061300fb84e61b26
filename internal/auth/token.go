// ABOUTME: JWT token verification for authenticating API requests.
// ABOUTME: Uses HS256 signing with a configurable secret; scopes travel as a claim.

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ledekit/newsroom/internal/scope"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
)

// Claims is the verified content of a token: the identity provider's output
// for one caller.
type Claims struct {
	UserID string
	Email  string
	Scopes []string
}

// TokenVerifier defines the interface for token verification.
type TokenVerifier interface {
	Verify(tokenString string) (*Claims, error)
}

// JWTVerifier implements TokenVerifier using HS256 signed JWTs.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a new JWT verifier with the given secret.
func NewJWTVerifier(secret []byte) *JWTVerifier {
	return &JWTVerifier{secret: secret}
}

// Verify validates the token and extracts the subject, email, and scope claims.
func (v *JWTVerifier) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, ok := mapClaims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	claims := &Claims{UserID: sub}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if rawScopes, ok := mapClaims["scopes"].([]interface{}); ok {
		for _, rs := range rawScopes {
			if s, ok := rs.(string); ok {
				claims.Scopes = append(claims.Scopes, s)
			}
		}
	}

	return claims, nil
}

// Generate creates a new JWT for the given identity with expiration.
func (v *JWTVerifier) Generate(userID, email string, scopes []string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":    userID,
		"email":  email,
		"scopes": scopes,
		"iat":    now.Unix(),
		"exp":    now.Add(expiresIn).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// UserFromClaims builds the per-request UserContext from verified claims.
// Malformed scope strings are dropped here, once, by scope.NewSet.
func UserFromClaims(claims *Claims) *UserContext {
	return &UserContext{
		UserID: claims.UserID,
		Email:  claims.Email,
		Scopes: scope.NewSet(claims.Scopes),
	}
}
