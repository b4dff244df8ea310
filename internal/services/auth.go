package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagevault/pagevault-backend/internal/platform/apierr"
	"github.com/pagevault/pagevault-backend/internal/platform/logger"
	"github.com/pagevault/pagevault-backend/internal/repos"
	"github.com/pagevault/pagevault-backend/internal/requestdata"
	"github.com/pagevault/pagevault-backend/internal/types"
	"github.com/pagevault/pagevault-backend/internal/utils"
)

type AuthTokens struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         *types.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, email, name, password string) (*AuthTokens, error)
	Login(ctx context.Context, email, password string) (*AuthTokens, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, refreshToken string) error
	UserIDFromToken(tokenString string) (uuid.UUID, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	db         *gorm.DB
	users      repos.UserRepo
	tokens     repos.UserTokenRepo
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        *logger.Logger
}

func NewAuthService(db *gorm.DB, users repos.UserRepo, tokens repos.UserTokenRepo, secret string, accessTTL, refreshTTL time.Duration, baseLog *logger.Logger) AuthService {
	serviceLog := baseLog.With("service", "AuthService")
	return &authService{
		db:         db,
		users:      users,
		tokens:     tokens,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		log:        serviceLog,
	}
}

func (s *authService) Register(ctx context.Context, email, name, password string) (*AuthTokens, error) {
	existing, err := s.users.GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, apierr.Conflict(fmt.Errorf("email already registered"))
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, apierr.Validation(err)
	}

	user := &types.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if _, err := s.users.Create(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("Registered user", "user_id", user.ID, "email", email)
	return s.issueTokens(ctx, nil, user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthTokens, error) {
	user, err := s.users.GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}
	if user == nil || !utils.CheckPassword(user.PasswordHash, password) {
		return nil, apierr.Unauthorized(fmt.Errorf("invalid email or password"))
	}
	return s.issueTokens(ctx, nil, user)
}

// Refresh rotates a refresh token: the presented token is revoked and a
// fresh pair is issued in the same transaction.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	var result *AuthTokens
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.refresh(ctx, tx, refreshToken)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *authService) refresh(ctx context.Context, tx *gorm.DB, refreshToken string) (*AuthTokens, error) {
	stored, err := s.tokens.GetActive(ctx, tx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("read refresh token: %w", err)
	}
	if stored == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("refresh token invalid or expired"))
	}
	user, err := s.users.GetByID(ctx, tx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}
	if user == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("user no longer exists"))
	}
	if err := s.tokens.Revoke(ctx, tx, refreshToken); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	return s.issueTokens(ctx, tx, user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.tokens.Revoke(ctx, nil, refreshToken); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *authService) UserIDFromToken(tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, apierr.Unauthorized(fmt.Errorf("invalid access token"))
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, apierr.Unauthorized(fmt.Errorf("invalid token subject"))
	}
	return userID, nil
}

// SetContextFromToken validates an access token and attaches the
// caller's identity to the context.
func (s *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	userID, err := s.UserIDFromToken(tokenString)
	if err != nil {
		return ctx, err
	}
	rd := &requestdata.RequestData{TokenString: tokenString, UserID: userID}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (s *authService) issueTokens(ctx context.Context, tx *gorm.DB, user *types.User) (*AuthTokens, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	stored := &types.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(s.refreshTTL),
	}
	if _, err := s.tokens.Create(ctx, tx, stored); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
