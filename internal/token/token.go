package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/staffdesk/apiserver/config"
	"github.com/staffdesk/apiserver/types"
)

// Claims is the claim set embedded in every issued token. Identity and
// role claims are built once at login and copied verbatim on refresh;
// the registered claims (issuer, audience, expiry, jti) are managed by
// the Issuer.
type Claims struct {
	Username  string   `json:"username"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Roles     []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claim set carries the given role.
func (c *Claims) HasRole(role types.Role) bool {
	for _, r := range c.Roles {
		if r == role.String() {
			return true
		}
	}
	return false
}

// Issuer signs and validates HS256 tokens against a single symmetric
// secret and a fixed issuer/audience pair.
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
}

func NewIssuer(cfg config.JWTConfig) *Issuer {
	return &Issuer{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

// NewClaims builds a fresh claim set for the user. The jti is random per
// call, so two logins never produce identical tokens.
func (i *Issuer) NewClaims(user types.User) Claims {
	roles := make([]string, 0, len(user.Roles))
	for _, role := range user.Roles {
		roles = append(roles, role.String())
	}

	return Claims{
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Roles:     roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.ID.String(),
			ID:      uuid.NewString(),
		},
	}
}

// Issue signs the claim set with expiry now+ttl. Issuer, audience, and
// timestamps are stamped here; everything else in the claim set is
// signed as given.
func (i *Issuer) Issue(claims Claims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}

	now := time.Now()
	claims.Issuer = i.issuer
	claims.Audience = jwt.ClaimStrings{i.audience}
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Parse verifies the token's signature, signing method, issuer, audience,
// and expiry, and returns the embedded claim set. Callers that must not
// leak which check failed should flatten the returned error themselves.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
