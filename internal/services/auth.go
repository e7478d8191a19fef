package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/accord-backend/internal/domain/decision"
	"github.com/yungbote/accord-backend/internal/platform/ctxutil"
	"github.com/yungbote/accord-backend/internal/platform/logger"
)

const DefaultTokenTTL = 7 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	WorkspaceID string `json:"workspace_id"`
	UserID      string `json:"user_id"`
	jwt.RegisteredClaims
}

type AuthService interface {
	IssueToken(ctx context.Context, workspaceID, userID string) (string, time.Time, error)
	ParseToken(tokenString string) (*Claims, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	TokenTTL() time.Duration
}

type authService struct {
	log      *logger.Logger
	secret   []byte
	tokenTTL time.Duration
	issuer   string
	now      func() time.Time
}

func NewAuthService(log *logger.Logger, jwtSecretKey string, tokenTTL time.Duration, issuer string) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &authService{
		log:      log.With("service", "AuthService"),
		secret:   []byte(jwtSecretKey),
		tokenTTL: tokenTTL,
		issuer:   issuer,
		now:      time.Now,
	}
}

func (as *authService) TokenTTL() time.Duration { return as.tokenTTL }

// IssueToken signs an HS256 token binding the caller to one workspace.
func (as *authService) IssueToken(ctx context.Context, workspaceID, userID string) (string, time.Time, error) {
	actor := decision.Actor{
		WorkspaceID: strings.TrimSpace(workspaceID),
		UserID:      strings.TrimSpace(userID),
	}
	if err := actor.Validate(); err != nil {
		return "", time.Time{}, err
	}
	now := as.now().UTC()
	expiresAt := now.Add(as.tokenTTL)
	claims := Claims{
		WorkspaceID: actor.WorkspaceID,
		UserID:      actor.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    as.issuer,
			Subject:   actor.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	as.log.Debug("token issued", "workspace_id", actor.WorkspaceID, "user_id", actor.UserID)
	return signed, expiresAt, nil
}

func (as *authService) ParseToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return as.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(as.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.WorkspaceID == "" || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims, err := as.ParseToken(tokenString)
	if err != nil {
		return ctx, err
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		WorkspaceID: claims.WorkspaceID,
		UserID:      claims.UserID,
	}), nil
}
