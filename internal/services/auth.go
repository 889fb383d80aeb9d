package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/proposalpilot-backend/internal/platform/ctxutil"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
)

// AuthService verifies bearer tokens issued by the account system. Only the
// identity claims are used; users and companies live elsewhere.
type AuthService interface {
	IssueToken(userID, companyID uuid.UUID, ttl time.Duration) (string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type JWTClaims struct {
	CompanyID string `json:"company_id"`
	jwt.RegisteredClaims
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey string
}

func NewAuthService(baseLog *logger.Logger, jwtSecretKey string) (AuthService, error) {
	if jwtSecretKey == "" {
		return nil, fmt.Errorf("missing JWT_SECRET_KEY")
	}
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &authService{log: baseLog.With("service", "AuthService"), jwtSecretKey: jwtSecretKey}, nil
}

func (as *authService) IssueToken(userID, companyID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		CompanyID: companyID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, fmt.Errorf("invalid or expired JWT token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid user id in token: %w", err)
	}
	companyID, err := uuid.Parse(claims.CompanyID)
	if err != nil {
		return ctx, fmt.Errorf("invalid company id in token: %w", err)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: userID, CompanyID: companyID}), nil
}
