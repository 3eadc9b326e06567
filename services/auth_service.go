package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/championsarena/arena-server/models"
	"github.com/championsarena/arena-server/repositories"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, error)
	SignInWithGoogle(ctx context.Context, idToken string) (*models.User, error)
	GetProfile(ctx context.Context, userID int) (*models.User, error)
}

type RegisterInput struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authService struct {
	userRepo repositories.UserRepository
	verifier GoogleTokenVerifier
}

func NewAuthService(userRepo repositories.UserRepository, verifier GoogleTokenVerifier) AuthService {
	return &authService{
		userRepo: userRepo,
		verifier: verifier,
	}
}

// Register создаёт аккаунт с парольным входом. Профиль получает роль "user";
// роль admin назначается только вручную на стороне БД.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		DisplayName:  input.DisplayName,
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUser,
		AuthProvider: models.ProviderPassword,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrAuthEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

// SignInWithGoogle проверяет ID-токен провайдера и при первом входе
// создаёт профиль с ролью "user". Повторный вход возвращает существующий
// профиль без изменений.
func (s *authService) SignInWithGoogle(ctx context.Context, idToken string) (*models.User, error) {
	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, ErrAuthInvalidProviderToken
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(claims.Email))
	if err == nil {
		user.PasswordHash = ""
		return user, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up federated user: %w", err)
	}

	user = &models.User{
		DisplayName:  claims.Name,
		Email:        strings.ToLower(claims.Email),
		Role:         models.RoleUser,
		AuthProvider: models.ProviderGoogle,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Гонка двух первых входов одного аккаунта: второй просто читает профиль.
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return s.userRepo.GetByEmail(ctx, strings.ToLower(claims.Email))
		}
		return nil, fmt.Errorf("failed to provision federated user: %w", err)
	}
	return user, nil
}

func (s *authService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}
