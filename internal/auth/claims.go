package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleAdmin is the only role allowed to change shows
const RoleAdmin = "admin"

// AdminClaims identifies the holder of a bearer token
type AdminClaims struct {
	Subject   string
	RoleValue string
	TokenID   string
	ExpiresAt time.Time
}

func (c *AdminClaims) Role() string  { return c.RoleValue }
func (c *AdminClaims) IsAdmin() bool { return c.RoleValue == RoleAdmin }

// IssueAdminToken signs an HS256 token with role=admin
func IssueAdminToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("token secret is empty")
	}
	now := time.Now()

	claims := jwt.MapClaims{
		"sub":  subject,
		"role": RoleAdmin,
		"jti":  uuid.New().String(),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ParseAdminToken validates signature and expiry and extracts the claims
func ParseAdminToken(secret []byte, tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	role, _ := (*claims)["role"].(string)
	subject, _ := (*claims)["sub"].(string)
	tokenID, _ := (*claims)["jti"].(string)

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.New("missing or invalid exp claim")
	}

	return &AdminClaims{
		Subject:   subject,
		RoleValue: role,
		TokenID:   tokenID,
		ExpiresAt: exp.Time,
	}, nil
}
