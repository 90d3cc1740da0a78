// internal/pkg/auth/jwt.go
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MerchantClaims represents the merchant-identity JWT claims presented to
// the PSP on payment intent calls
type MerchantClaims struct {
	MerchantID string `json:"merchant_id"`
	jwt.RegisteredClaims
}

// MerchantTokenManager handles the merchant-to-PSP bearer tokens
type MerchantTokenManager struct {
	secret []byte
	issuer string
	expiry time.Duration
}

// NewMerchantTokenManager creates a new merchant token manager
func NewMerchantTokenManager(secret, issuer string, expiry time.Duration) *MerchantTokenManager {
	if expiry <= 0 {
		expiry = 5 * time.Minute
	}
	return &MerchantTokenManager{
		secret: []byte(secret),
		issuer: issuer,
		expiry: expiry,
	}
}

// Generate mints a short-lived token carrying the merchant identity
func (m *MerchantTokenManager) Generate(merchantID string) (string, error) {
	now := time.Now().UTC()

	claims := &MerchantClaims{
		MerchantID: merchantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   fmt.Sprintf("merchant:%s", merchantID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate validates and parses a merchant token
func (m *MerchantTokenManager) Validate(tokenString string) (*MerchantClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &MerchantClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*MerchantClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.MerchantID == "" {
		return nil, fmt.Errorf("token missing merchant_id claim")
	}

	return claims, nil
}
