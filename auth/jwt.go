package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

const fallbackName = "Player"

// Identity is the authenticated player behind a token.
type Identity struct {
	UserID    string
	FirstName string
}

// Validator checks player tokens against a key source.
type Validator struct {
	keyfunc jwt.Keyfunc
	issuer  string
	methods []string
}

// NewNeonValidator builds a Validator for a Neon Auth deployment. The JWKS is
// fetched from baseURL and refreshed in the background, so one Validator
// should be shared by all connections.
func NewNeonValidator(baseURL string) (*Validator, error) {
	if baseURL == "" {
		return nil, errors.New("NEON_AUTH_BASE_URL is not set")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	jwksURL := strings.TrimRight(baseURL, "/") + "/.well-known/jwks.json"

	jwks, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("loading JWKS: %w", err)
	}
	return NewValidatorWithKeyfunc(jwks.Keyfunc, u.Scheme+"://"+u.Host, "EdDSA"), nil
}

// NewValidatorWithKeyfunc builds a Validator from an explicit key function.
// An empty issuer disables the issuer check.
func NewValidatorWithKeyfunc(kf jwt.Keyfunc, issuer string, methods ...string) *Validator {
	return &Validator{keyfunc: kf, issuer: issuer, methods: methods}
}

// Validate parses and verifies tokenString and returns its claims.
func (v *Validator) Validate(tokenString string) (jwt.MapClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods(v.methods)}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.Parse(tokenString, v.keyfunc, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Authenticate validates tokenString and extracts the player identity.
func (v *Validator) Authenticate(tokenString string) (Identity, error) {
	claims, err := v.Validate(tokenString)
	if err != nil {
		return Identity{}, err
	}
	userID := UserIDFromClaims(claims)
	if userID == "" {
		return Identity{}, errors.New("token has no subject")
	}
	return Identity{UserID: userID, FirstName: FirstNameFromClaims(claims)}, nil
}

// FirstNameFromClaims returns the first word of the "name" claim, or a fallback.
func FirstNameFromClaims(claims jwt.MapClaims) string {
	name, _ := claims["name"].(string)
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return fallbackName
	}
	return parts[0]
}

// UserIDFromClaims returns the user id from claims ("sub" or "id").
func UserIDFromClaims(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id
	}
	return ""
}
