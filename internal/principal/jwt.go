// Package principal resolves the calling principal from bearer tokens. The
// engine itself never sees tokens; transport middleware resolves the caller
// once and hands the principal ID down through the request context.
package principal

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
	dErrors "github.com/nintynick/transitive-trust-sub001/pkg/domain-errors"
)

// Claims carries the principal identity inside an access token.
type Claims struct {
	PrincipalID string `json:"principal_id"`
	jwt.RegisteredClaims
}

// Resolver validates bearer tokens and extracts the calling principal.
type Resolver struct {
	verificationKey []byte
	issuer          string
	audience        string
}

// NewResolver creates a Resolver for HMAC-signed tokens.
func NewResolver(verificationKey string, issuer string, audience string) *Resolver {
	return &Resolver{
		verificationKey: []byte(verificationKey),
		issuer:          issuer,
		audience:        audience,
	}
}

// GenerateToken mints a token for the given principal. Used by tests and
// development tooling; production tokens come from the identity provider.
func (r *Resolver) GenerateToken(principalID id.PrincipalID, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		PrincipalID: principalID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    r.issuer,
			Audience:  []string{r.audience},
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(r.verificationKey)
}

// ResolveToken validates the token and returns the calling principal.
func (r *Resolver) ResolveToken(tokenString string) (id.PrincipalID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return r.verificationKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.PrincipalID{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return id.PrincipalID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return id.PrincipalID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return id.PrincipalID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	principalID, err := id.ParsePrincipalID(claims.PrincipalID)
	if err != nil {
		return id.PrincipalID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid principal claim")
	}
	return principalID, nil
}
