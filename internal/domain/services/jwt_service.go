package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/internal/infrastructure/config"
)

// InterfaceJWTService issues and validates bearer tokens
type InterfaceJWTService interface {
	GenerateToken(user *models.User) (string, time.Time, error)
	ParseToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims are the claims carried by a bearer token
type JWTClaims struct {
	UserID uint       `json:"user_id"`
	Role   rules.Role `json:"role"`
	jwt.RegisteredClaims
}

// Actor converts the claims to a rule caller
func (c *JWTClaims) Actor() rules.Actor {
	return rules.Actor{ID: c.UserID, Role: c.Role}
}

// JWTService signs HS256 tokens
type JWTService struct {
	secretKey string
	issuer    string
	expire    time.Duration
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg *config.Config) InterfaceJWTService {
	expire := cfg.JWTExpire
	if expire <= 0 {
		expire = 2 * time.Hour
	}
	return &JWTService{
		secretKey: cfg.JWTSecretKey,
		issuer:    "accessible-env-backend",
		expire:    expire,
	}
}

// 1 GenerateToken signs a token for user
func (s *JWTService) GenerateToken(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expire)

	claims := &JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secretKey))
	if err != nil {
		return "", time.Time{}, apperr.Infrastructure(code.ErrUnknown, err)
	}
	return signed, expiresAt, nil
}

// 2 ParseToken validates signature, expiry and claims
func (s *JWTService) ParseToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Unauthorized(code.ErrTokenInvalid, "")
	}
	if claims.UserID == 0 || !claims.Role.Valid() {
		return nil, apperr.Unauthorized(code.ErrTokenInvalid, "")
	}
	return claims, nil
}
