package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/medorder/internal/models"
	"gorm.io/gorm"
)

func (r *GormRepo) AddRefreshToDB(ctx context.Context, token *models.RefreshToken) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.DB.WithContext(ctx).Create(token).Error
}

func (r *GormRepo) FindRefreshByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

// RevokeAllForUser only touches live rows, so revoked_at keeps the first revocation time.
func (r *GormRepo) RevokeAllForUser(ctx context.Context, username string, now time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("username = ? AND revoked = ?", username, false).
		Updates(map[string]any{"revoked": true, "revoked_at": now})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) markAsUsed(tx *gorm.DB, tokenHash string, now time.Time) error {
	res := tx.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked = ? AND expires_at > ?", tokenHash, false, now).
		Updates(map[string]any{"revoked": true, "revoked_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRefreshUnavailable
	}
	return nil
}

// RotateRefreshToken revokes the presented token and stores its successor atomically.
// The conditional update lets exactly one of several concurrent rotations win.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldHash string, now time.Time, next *models.RefreshToken) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.markAsUsed(tx, oldHash, now); err != nil {
			return err
		}
		return tx.Create(next).Error
	})
}
