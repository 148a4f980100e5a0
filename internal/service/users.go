package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/medorder/internal/events"
	"github.com/Skotchmaster/medorder/internal/models"
	"github.com/Skotchmaster/medorder/internal/repo"
	"github.com/Skotchmaster/medorder/internal/transport"
	"github.com/Skotchmaster/medorder/internal/util"
	"github.com/Skotchmaster/medorder/pkg/hash"
	"github.com/Skotchmaster/medorder/pkg/logging"
	"github.com/google/uuid"
)

type UserService struct {
	Users  UserStore
	Tokens TokenStore
	Hasher *hash.Hasher
	Events Publisher
	Now    func() time.Time
}

func (s *UserService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.register", "username", req.Username)

	if err := req.Validate(); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hashed, err := s.Hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:       req.Username,
		Email:          req.Email,
		FullName:       req.FullName,
		Role:           req.Role,
		Permissions:    models.StringSet(req.Permissions),
		HashedPassword: hashed,
	}
	if err := s.Users.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_error", "status", 409, "reason", "user already exist")
			return nil, fmt.Errorf("%w: username or email already registered", ErrConflict)
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	publishUser(ctx, s.Events, events.UserRegistered, user.Username, nowOr(s.Now), map[string]any{"role": user.Role})
	l.Info("register_successful")
	return user, nil
}

func (s *UserService) Me(ctx context.Context, uc *UserContext) (*models.User, error) {
	user, err := s.Users.GetUserById(ctx, uc.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, page, size int) ([]models.User, error) {
	from, limit := util.Calculate(page, size)
	return s.Users.ListUsers(ctx, limit, from)
}

// ResetPassword also revokes every refresh token of the user.
func (s *UserService) ResetPassword(ctx context.Context, uc *UserContext, req transport.ResetPasswordRequest) error {
	l := logging.FromContext(ctx).With("svc", "users.reset_password", "username", uc.Username)

	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	user, err := s.Users.GetUserById(ctx, uc.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !s.Hasher.Verify(req.CurrentPassword, user.HashedPassword) {
		l.Warn("reset_password_failed", "status", 400, "reason", "incorrect current password")
		return ErrIncorrectPassword
	}

	hashed, err := s.Hasher.Hash(req.NewPassword)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return err
	}
	if err := s.Users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		l.Error("reset_password_failed", "status", 500, "error", err)
		return err
	}

	now := nowOr(s.Now)
	if _, err := s.Tokens.RevokeAllForUser(ctx, user.Username, now); err != nil {
		l.Error("reset_password_failed", "status", 500, "reason", "cannot revoke refresh tokens", "error", err)
		return err
	}

	publishUser(ctx, s.Events, events.PasswordReset, user.Username, now, nil)
	l.Info("reset_password_successful")
	return nil
}

// UpdateDetails never touches the username: refresh and blacklist rows are keyed by it.
func (s *UserService) UpdateDetails(ctx context.Context, id uuid.UUID, req transport.UpdateDetailsRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.update_details", "user_id", id)

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if req.Email != nil {
		taken, err := s.Users.EmailTaken(ctx, *req.Email, id)
		if err != nil {
			return nil, err
		}
		if taken {
			l.Warn("update_details_failed", "status", 409, "reason", "email taken")
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
	}

	user, err := s.Users.UpdateUser(ctx, id, req.Fields())
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repo.ErrUserAlreadyExist):
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		l.Error("update_details_failed", "status", 500, "error", err)
		return nil, err
	}

	l.Info("update_details_successful")
	return user, nil
}

// SetStatus disables or re-enables an account. Disabling revokes the user's refresh tokens.
func (s *UserService) SetStatus(ctx context.Context, id uuid.UUID, disabled bool) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.set_status", "user_id", id)

	user, err := s.Users.SetUserDisabled(ctx, id, disabled)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		l.Error("set_status_failed", "status", 500, "error", err)
		return nil, err
	}

	now := nowOr(s.Now)
	if disabled {
		if _, err := s.Tokens.RevokeAllForUser(ctx, user.Username, now); err != nil {
			l.Error("set_status_failed", "status", 500, "reason", "cannot revoke refresh tokens", "error", err)
			return nil, err
		}
	}

	publishUser(ctx, s.Events, events.UserStatusChanged, user.Username, now, map[string]any{"disabled": disabled})
	l.Info("set_status_successful", "disabled", disabled)
	return user, nil
}
