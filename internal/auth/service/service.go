package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldvisits_backend/internal/auth"
	"fieldvisits_backend/internal/auth/password"
	"fieldvisits_backend/internal/auth/repository"
	"fieldvisits_backend/internal/auth/token"
	authvalidator "fieldvisits_backend/internal/auth/validator"
	"fieldvisits_backend/platform/apperr"
	"fieldvisits_backend/platform/config"
	"fieldvisits_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	msgInvalidCredentials = "Credenciales inválidas"
	msgUserNotFound       = "Usuario no encontrado"
	msgEmailTaken         = "Ya existe un usuario con ese correo"
	msgSelfDelete         = "No puedes eliminar tu propio usuario"
)

type Service struct {
	repo repository.UserStore
	cfg  config.AuthServiceConfig
	log  *logger.Logger
	now  func() time.Time
}

func New(repo repository.UserStore, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, cfg: cfg, log: log, now: time.Now}
}

// SignIn checks the credentials and issues an access token for the user.
func (s *Service) SignIn(ctx context.Context, email, plainPassword string) (string, auth.Profile, error) {
	email = authvalidator.NormalizeEmail(email)
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.AuthEvent("sign_in", email, false, "unknown email")
			return "", auth.Profile{}, apperr.Unauthorized(msgInvalidCredentials)
		}
		return "", auth.Profile{}, err
	}

	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			s.log.AuthEvent("sign_in", email, false, "wrong password")
			return "", auth.Profile{}, apperr.Unauthorized(msgInvalidCredentials)
		}
		return "", auth.Profile{}, fmt.Errorf("compare password: %w", err)
	}

	accessToken, err := token.IssueAccess(token.Subject{UserID: user.ID, Role: user.Role, Name: user.Name},
		s.cfg.GetAccessTokenTTL(), s.cfg.GetJWTAccessSecret(), s.now())
	if err != nil {
		return "", auth.Profile{}, fmt.Errorf("sign access token: %w", err)
	}

	s.log.AuthEvent("sign_in", email, true, "")
	return accessToken, toProfile(user), nil
}

// GetMe returns the profile of the user with the given ID.
func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (auth.Profile, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return auth.Profile{}, apperr.NotFound(msgUserNotFound)
		}
		return auth.Profile{}, err
	}
	return toProfile(user), nil
}

// ListUsers returns every user ordered by name.
func (s *Service) ListUsers(ctx context.Context) ([]auth.Profile, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	profiles := make([]auth.Profile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, toProfile(user))
	}
	return profiles, nil
}

// CreateUserInput describes a new user account.
type CreateUserInput struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// CreateUser registers a new user with a hashed password.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (auth.Profile, error) {
	if !auth.ValidRole(in.Role) {
		return auth.Profile{}, apperr.Validation(fmt.Sprintf("unknown role %q", in.Role))
	}
	if len(in.Password) < authvalidator.MinPasswordLength {
		return auth.Profile{}, apperr.Validation(authvalidator.PasswordPolicy)
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return auth.Profile{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, repository.User{
		ID:           uuid.New(),
		Email:        authvalidator.NormalizeEmail(in.Email),
		Name:         in.Name,
		PasswordHash: hash,
		Role:         in.Role,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return auth.Profile{}, apperr.Conflict(msgEmailTaken)
		}
		return auth.Profile{}, err
	}
	return toProfile(user), nil
}

// DeleteUser removes a user. Users cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return apperr.BadRequest(msgSelfDelete)
	}
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return err
	}
	return nil
}

// ResetPassword replaces the password of the user registered with email.
func (s *Service) ResetPassword(ctx context.Context, email, newPassword string) error {
	if len(newPassword) < authvalidator.MinPasswordLength {
		return apperr.Validation(authvalidator.PasswordPolicy)
	}

	user, err := s.repo.GetUserByEmail(ctx, authvalidator.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return err
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, user.ID, hash)
}

// VerifyCredential reports whether plaintext is the user's current password.
// Unknown users simply do not match.
func (s *Service) VerifyCredential(ctx context.Context, userID uuid.UUID, plaintext string) (bool, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	err = password.Compare(user.PasswordHash, plaintext)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, password.ErrMismatch):
		return false, nil
	default:
		return false, fmt.Errorf("compare password: %w", err)
	}
}

func toProfile(user repository.User) auth.Profile {
	return auth.Profile{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
