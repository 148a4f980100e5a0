package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/medorder/internal/models"
	"gorm.io/gorm/clause"
)

// AddBlacklist is idempotent: a second insert for the same token id is ignored.
func (r *GormRepo) AddBlacklist(ctx context.Context, entry *models.BlacklistedToken) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry).Error
}

func (r *GormRepo) IsBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.BlacklistedToken{}).
		Where("token_id = ?", tokenID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// PruneBlacklist drops entries whose access token has already expired and so
// can no longer pass signature+expiry checks anyway.
func (r *GormRepo) PruneBlacklist(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res := r.DB.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.BlacklistedToken{})
	return res.RowsAffected, res.Error
}
