package repo

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/medorder/internal/models"
	"github.com/google/uuid"
)

func (r *GormRepo) CreateUserIfNotExists(ctx context.Context, u *models.User) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", u.Username, u.Email).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUserAlreadyExist
	}

	return translate(r.DB.WithContext(ctx).Create(u).Error)
}

func (r *GormRepo) getUserBy(ctx context.Context, column string, value any) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := r.DB.WithContext(ctx).Where(column+" = ?", value).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUserBy(ctx, "email", email)
}

func (r *GormRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getUserBy(ctx, "username", username)
}

func (r *GormRepo) GetUserById(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getUserBy(ctx, "id", id)
}

func (r *GormRepo) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var users []models.User
	if err := r.DB.WithContext(ctx).Order("created_at ASC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// EmailTaken reports whether another user already owns email.
func (r *GormRepo) EmailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ? AND id <> ?", email, except).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) UpdateUser(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) SetUserDisabled(ctx context.Context, id uuid.UUID, disabled bool) (*models.User, error) {
	return r.UpdateUser(ctx, id, map[string]any{"disabled": disabled})
}

func (r *GormRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hashed string) error {
	if _, err := r.UpdateUser(ctx, id, map[string]any{"hashed_password": hashed}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
