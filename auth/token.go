package auth

import (
	"fmt"
	"time"

	"outmentor/errors"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims is what the identity provider puts in a token.
// ProfileID wins over the registered subject when both are set.
type CustomClaims struct {
	ProfileID string `json:"profile_id,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens signed with a secret shared with the identity provider.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify validates signature, expiry and issuer, then returns the profile id.
func (v *Verifier) Verify(tokenString string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%w: %v", errors.ErrUnauthenticated, jwt.ErrSignatureInvalid)
	}
	if claims.ProfileID != "" {
		return claims.ProfileID, nil
	}
	if claims.Subject != "" {
		return claims.Subject, nil
	}
	return "", fmt.Errorf("%w: token carries no profile id", errors.ErrUnauthenticated)
}

// Issue signs a token the way the identity provider does.
// Used by tests and by the terminal client in development.
func (v *Verifier) Issue(profileID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		ProfileID: profileID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profileID,
			Issuer:    v.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
