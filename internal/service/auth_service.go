package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"PoolProPlatform/internal/domain"
	"PoolProPlatform/internal/pkg/password"
	"PoolProPlatform/internal/pkg/session"
	"PoolProPlatform/internal/repository"
	apperrors "PoolProPlatform/pkg/errors"
	"PoolProPlatform/pkg/logger"
)

// AuthService интерфейс для сервиса аутентификации
type AuthService interface {
	Register(ctx context.Context, email, pass, name string) (*domain.User, string, error)
	Login(ctx context.Context, email, pass string) (*domain.User, string, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	RefreshToken(user *domain.User) (string, error)
}

// authService реализация AuthService поверх stateless-сессий
type authService struct {
	userRepository repository.UserRepository
	sessionCodec   session.Codec
	passwordHasher password.Hasher
	log            logger.Logger
}

// NewAuthService создает новый экземпляр AuthService
func NewAuthService(
	userRepository repository.UserRepository,
	sessionCodec session.Codec,
	passwordHasher password.Hasher,
	log logger.Logger,
) AuthService {
	return &authService{
		userRepository: userRepository,
		sessionCodec:   sessionCodec,
		passwordHasher: passwordHasher,
		log:            log,
	}
}

// Register создает нового пользователя и подписывает сессионный токен
func (s *authService) Register(ctx context.Context, email, pass, name string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", apperrors.New(apperrors.ErrValidation, "valid email is required")
	}
	if !s.passwordHasher.Validate(pass) {
		return nil, "", apperrors.New(apperrors.ErrValidation, "password must be at least 8 characters")
	}

	// Проверка уникальности email
	if _, err := s.userRepository.FindByEmail(ctx, email); err == nil {
		return nil, "", apperrors.New(apperrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", apperrors.Wrap(err, apperrors.ErrInternal, "failed to check existing user")
	}

	hash, err := s.passwordHasher.Hash(pass)
	if err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ErrInternal, "failed to hash password")
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepository.Create(ctx, user); err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ErrInternal, "failed to create user")
	}

	token, err := s.sessionCodec.Sign(user.ID, user.Email)
	if err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ErrInternal, "failed to sign session token")
	}

	s.log.Info("User registered",
		logger.String("user_id", user.ID))

	return user, token, nil
}

// Login проверяет учетные данные и подписывает сессионный токен.
// Отсутствующий пользователь и неверный пароль дают одинаковый ответ
func (s *authService) Login(ctx context.Context, email, pass string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || pass == "" {
		return nil, "", apperrors.New(apperrors.ErrValidation, "email and password are required")
	}

	user, err := s.userRepository.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", apperrors.New(apperrors.ErrUnauthorized, "invalid credentials")
		}
		return nil, "", apperrors.Wrap(err, apperrors.ErrInternal, "failed to find user")
	}

	if !s.passwordHasher.Check(pass, user.PasswordHash) {
		s.log.Warn("Login failed: invalid password",
			logger.String("user_id", user.ID))
		return nil, "", apperrors.New(apperrors.ErrUnauthorized, "invalid credentials")
	}

	token, err := s.sessionCodec.Sign(user.ID, user.Email)
	if err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ErrInternal, "failed to sign session token")
	}

	s.log.Info("User logged in",
		logger.String("user_id", user.ID))

	return user, token, nil
}

// GetUser возвращает пользователя по ID сессии
func (s *authService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepository.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.New(apperrors.ErrUnauthorized, "unauthorized")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to find user")
	}
	return user, nil
}

// RefreshToken переподписывает сессионный токен для скользящего продления
func (s *authService) RefreshToken(user *domain.User) (string, error) {
	token, err := s.sessionCodec.Sign(user.ID, user.Email)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrInternal, "failed to refresh session token")
	}
	return token, nil
}
