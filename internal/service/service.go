package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/medorder/internal/events"
	"github.com/Skotchmaster/medorder/internal/models"
	"github.com/Skotchmaster/medorder/pkg/logging"
	"github.com/google/uuid"
)

type UserStore interface {
	CreateUserIfNotExists(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserById(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, error)
	EmailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error)
	UpdateUser(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.User, error)
	SetUserDisabled(ctx context.Context, id uuid.UUID, disabled bool) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hashed string) error
}

type TokenStore interface {
	AddRefreshToDB(ctx context.Context, token *models.RefreshToken) error
	FindRefreshByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeAllForUser(ctx context.Context, username string, now time.Time) (int64, error)
	RotateRefreshToken(ctx context.Context, oldHash string, now time.Time, next *models.RefreshToken) error
	PruneBlacklist(ctx context.Context, now time.Time) (int64, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	ListOrders(ctx context.Context, limit, offset int) ([]models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrdersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Order, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	SearchOrders(ctx context.Context, q string, limit int) ([]models.Order, error)
}

// Blacklist is the revoked access token set consulted on every authenticated request.
type Blacklist interface {
	Add(ctx context.Context, entry *models.BlacklistedToken) error
	Contains(ctx context.Context, tokenID string) (bool, error)
}

type Publisher interface {
	PublishUser(ctx context.Context, ev events.Event) error
	PublishOrder(ctx context.Context, ev events.Event) error
}

type OrderIndex interface {
	Index(ctx context.Context, o *models.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, size int) ([]uuid.UUID, error)
}

func nowOr(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}

// Events are best-effort: a broker failure is logged and never fails the request.
func publishUser(ctx context.Context, p Publisher, typ, subject string, at time.Time, data map[string]any) {
	if p == nil {
		return
	}
	ev := events.Event{Type: typ, Subject: subject, OccurredAt: at, Data: data}
	if err := p.PublishUser(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_failed", "event", typ, "error", err)
	}
}

func publishOrder(ctx context.Context, p Publisher, typ, subject string, at time.Time, data map[string]any) {
	if p == nil {
		return
	}
	ev := events.Event{Type: typ, Subject: subject, OccurredAt: at, Data: data}
	if err := p.PublishOrder(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_failed", "event", typ, "error", err)
	}
}
