package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kshaab/Coursework-5/internal/model"
	"github.com/kshaab/Coursework-5/internal/repository"
	"github.com/kshaab/Coursework-5/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	ErrInvalidToken       = errors.New("token is invalid or expired")
)

// TokenPair is returned by the obtain endpoint.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type AuthService struct {
	userRepository repository.UserRepository
	jwtSecret      string
	accessExpiry   time.Duration
	refreshExpiry  time.Duration
	now            func() time.Time
}

func NewAuthService(
	userRepository repository.UserRepository,
	jwtSecret string,
	accessExpiry time.Duration,
	refreshExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepository: userRepository,
		jwtSecret:      jwtSecret,
		accessExpiry:   accessExpiry,
		refreshExpiry:  refreshExpiry,
		now:            time.Now,
	}
}

// Obtain checks email and password and issues an access/refresh pair.
// Inactive accounts are treated like unknown ones.
func (s *AuthService) Obtain(ctx context.Context, email, password string) (*TokenPair, error) {
	email = validation.NormalizeEmail(email)

	user, err := s.userRepository.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = ComparePassword(password, user.PasswordHash)
	if err != nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	access, err := s.GenerateJWT(user, TokenTypeAccess)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := s.GenerateJWT(user, TokenTypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	err = s.userRepository.UpdateLastLogin(ctx, user.ID, s.now())
	if err != nil {
		// Don't fail the login
		slog.Warn("failed to update last login", "error", err, "user_id", user.ID)
	}

	slog.Info("token pair issued", "user_id", user.ID)
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	user, err := s.userFromToken(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}

	access, err := s.GenerateJWT(user, TokenTypeAccess)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return access, nil
}

// Authenticate resolves a bearer access token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	return s.userFromToken(ctx, accessToken, TokenTypeAccess)
}

func (s *AuthService) userFromToken(ctx context.Context, tokenString, tokenType string) (*model.User, error) {
	userID, err := s.VerifyJWT(tokenString, tokenType)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidToken
	}

	return user, nil
}

func (s *AuthService) GenerateJWT(user *model.User, tokenType string) (string, error) {
	expiry := s.accessExpiry
	if tokenType == TokenTypeRefresh {
		expiry = s.refreshExpiry
	}

	now := s.now()
	claims := jwt.MapClaims{
		"user_id":    user.ID,
		"token_type": tokenType,
		"exp":        now.Add(expiry).Unix(),
		"iat":        now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyJWT checks signature, expiry and token type and returns the user id.
func (s *AuthService) VerifyJWT(tokenString, tokenType string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}

	if t, _ := claims["token_type"].(string); t != tokenType {
		return 0, fmt.Errorf("%w: wrong token type", ErrInvalidToken)
	}

	// JSON numbers decode as float64
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}

	return int64(id), nil
}

func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
