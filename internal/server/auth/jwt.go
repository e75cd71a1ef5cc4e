package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/iudp/ledger/internal/common"
	"github.com/iudp/ledger/internal/server/models"
)

// Claims carries the caller's identity and jurisdiction so requests can be
// authorized without a user lookup.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Scope    string `json:"scope"`
	ChurchID string `json:"churchId,omitempty"`
	Church   string `json:"church,omitempty"`
	Region   string `json:"region,omitempty"`
	State    string `json:"state,omitempty"`
}

func GenerateToken(c models.Caller, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID:   c.UserID,
		Name:     c.Name,
		Role:     c.Role,
		Scope:    c.Scope,
		ChurchID: c.ChurchID,
		Church:   c.Church,
		Region:   c.Region,
		State:    c.State,
	})

	return token.SignedString(secretKey)
}

// ParseToken validates the signature and expiry and returns the caller.
func ParseToken(tokenString string, secretKey []byte) (models.Caller, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Caller{}, common.ErrTokenExpired
		}
		return models.Caller{}, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return models.Caller{}, common.ErrInvalidToken
	}

	return models.Caller{
		UserID:   claims.UserID,
		Name:     claims.Name,
		Role:     claims.Role,
		Scope:    claims.Scope,
		ChurchID: claims.ChurchID,
		Church:   claims.Church,
		Region:   claims.Region,
		State:    claims.State,
	}, nil
}
