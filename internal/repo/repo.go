package repo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/Skotchmaster/medorder/internal/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrUserAlreadyExist   = errors.New("user already exist")
	ErrRefreshUnavailable = errors.New("refresh token expired or revoked")
)

type GormRepo struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func New(db *gorm.DB, timeout time.Duration) *GormRepo {
	return &GormRepo{DB: db, Timeout: timeout}
}

// withTimeout bounds every store call so no request blocks on a stuck connection.
func (r *GormRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.Timeout)
}

func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(models.All()...)
}

func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrUserAlreadyExist
	default:
		return err
	}
}
