package stubapi

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kramik/kramik/core"
	"github.com/kramik/kramik/core/session"
)

// Claims is the authorization payload minted for a session credential.
type Claims struct {
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	UserType      string `json:"user_type"`
	WalletAddress string `json:"wallet_address,omitempty"`
	jwt.RegisteredClaims
}

// NewAccessToken mints a signed HS256 token for the given identity.
func NewAccessToken(identity session.Identity) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Name:          identity.Name,
		Email:         identity.Email,
		UserType:      string(identity.Role),
		WalletAddress: identity.WalletAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    core.Conf.AppName,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(core.Conf.StubAPI.TokenExpiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(core.Conf.StubAPI.SecretKey)
}

// ParseToken validates a token string and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return core.Conf.StubAPI.SecretKey, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func (c *Claims) identity() session.Identity {
	return session.Identity{
		ID:            c.Subject,
		Name:          c.Name,
		Email:         c.Email,
		Role:          session.Role(c.UserType),
		WalletAddress: c.WalletAddress,
	}
}
