package repo

import (
	"context"
	"testing"
	"time"

	"github.com/Skotchmaster/medorder/internal/models"
	pkgdb "github.com/Skotchmaster/medorder/pkg/db"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()

	db, err := pkgdb.Open(context.Background(), pkgdb.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(context.Background(), db))
	t.Cleanup(func() { _ = pkgdb.Close(db) })

	return New(db, 3*time.Second)
}

func newUser(username string) *models.User {
	return &models.User{
		Username:       username,
		Email:          username + "@x.com",
		FullName:       "Test " + username,
		Role:           "other",
		Permissions:    models.StringSet{"orders:read", "orders:write"},
		HashedPassword: "hash",
	}
}

func TestGormRepo_CreateUser_UniqueUsernameAndEmail(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CreateUserIfNotExists(ctx, newUser("alice")))

	dupName := newUser("alice")
	dupName.Email = "other@x.com"
	require.ErrorIs(t, r.CreateUserIfNotExists(ctx, dupName), ErrUserAlreadyExist)

	dupEmail := newUser("bob")
	dupEmail.Email = "alice@x.com"
	require.ErrorIs(t, r.CreateUserIfNotExists(ctx, dupEmail), ErrUserAlreadyExist)

	got, err := r.GetUserByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, models.StringSet{"orders:read", "orders:write"}, got.Permissions)
	assert.False(t, got.Disabled)

	_, err = r.GetUserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGormRepo_UpdateUser(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	u := newUser("alice")
	require.NoError(t, r.CreateUserIfNotExists(ctx, u))

	updated, err := r.SetUserDisabled(ctx, u.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Disabled)

	updated, err = r.UpdateUser(ctx, u.ID, map[string]any{"role": "admin", "permissions": models.StringSet{"users:manage"}})
	require.NoError(t, err)
	assert.Equal(t, "admin", updated.Role)
	assert.Equal(t, models.StringSet{"users:manage"}, updated.Permissions)

	_, err = r.UpdateUser(ctx, uuid.New(), map[string]any{"role": "admin"})
	require.ErrorIs(t, err, ErrNotFound)

	taken, err := r.EmailTaken(ctx, "alice@x.com", uuid.New())
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = r.EmailTaken(ctx, "alice@x.com", u.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func refreshRow(username, raw string, exp time.Time) *models.RefreshToken {
	return &models.RefreshToken{
		TokenHash: Sha256Hex(raw),
		JTI:       uuid.NewString(),
		Username:  username,
		ExpiresAt: exp.UTC(),
	}
}

func TestGormRepo_RotateRefreshToken_SingleUse(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := refreshRow("alice", "first", now.Add(time.Hour))
	require.NoError(t, r.AddRefreshToDB(ctx, first))

	second := refreshRow("alice", "second", now.Add(time.Hour))
	require.NoError(t, r.RotateRefreshToken(ctx, Sha256Hex("first"), now, second))

	old, err := r.FindRefreshByHash(ctx, Sha256Hex("first"))
	require.NoError(t, err)
	assert.True(t, old.Revoked)
	require.NotNil(t, old.RevokedAt)

	third := refreshRow("alice", "third", now.Add(time.Hour))
	require.ErrorIs(t, r.RotateRefreshToken(ctx, Sha256Hex("first"), now, third), ErrRefreshUnavailable)

	_, err = r.FindRefreshByHash(ctx, Sha256Hex("third"))
	require.ErrorIs(t, err, ErrNotFound)

	fresh, err := r.FindRefreshByHash(ctx, Sha256Hex("second"))
	require.NoError(t, err)
	assert.False(t, fresh.Revoked)
}

func TestGormRepo_RotateRefreshToken_Expired(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, r.AddRefreshToDB(ctx, refreshRow("alice", "stale", now.Add(-time.Minute))))
	err := r.RotateRefreshToken(ctx, Sha256Hex("stale"), now, refreshRow("alice", "next", now.Add(time.Hour)))
	require.ErrorIs(t, err, ErrRefreshUnavailable)
}

func TestGormRepo_RevokeAllForUser(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, r.AddRefreshToDB(ctx, refreshRow("alice", "a1", now.Add(time.Hour))))
	require.NoError(t, r.AddRefreshToDB(ctx, refreshRow("alice", "a2", now.Add(time.Hour))))
	require.NoError(t, r.AddRefreshToDB(ctx, refreshRow("bob", "b1", now.Add(time.Hour))))

	n, err := r.RevokeAllForUser(ctx, "alice", now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = r.RevokeAllForUser(ctx, "alice", now)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	bob, err := r.FindRefreshByHash(ctx, Sha256Hex("b1"))
	require.NoError(t, err)
	assert.False(t, bob.Revoked)
}

func TestGormRepo_Blacklist(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	live := &models.BlacklistedToken{TokenID: "live", Username: "alice", RevokedAt: now, ExpiresAt: now.Add(time.Hour)}
	stale := &models.BlacklistedToken{TokenID: "stale", Username: "alice", RevokedAt: now, ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, r.AddBlacklist(ctx, live))
	require.NoError(t, r.AddBlacklist(ctx, &models.BlacklistedToken{TokenID: "live", Username: "alice", RevokedAt: now, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, r.AddBlacklist(ctx, stale))

	ok, err := r.IsBlacklisted(ctx, "live")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.IsBlacklisted(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := r.PruneBlacklist(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	ok, err = r.IsBlacklisted(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = r.IsBlacklisted(ctx, "live")
	require.NoError(t, err)
	assert.True(t, ok)
}

func newOrder(patient string) *models.Order {
	return &models.Order{
		Date:        "2026-10-19",
		PatientName: patient,
		MobileNo:    "9876543210",
		Address:     "12 MG Road",
		Pincode:     "411001",
		Medicines: []models.Medicine{
			{Name: "Paracetamol", MRP: 25.5, Qty: 2},
			{Name: "Cetirizine", MRP: 18, Qty: 1},
		},
		Amount:      69,
		TotalAmount: 69,
		CreatedBy:   "alice",
	}
}

func TestGormRepo_Orders(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	created, err := r.CreateOrder(ctx, newOrder("Ravi Kumar"))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	_, err = r.CreateOrder(ctx, newOrder("Meena Shah"))
	require.NoError(t, err)

	got, err := r.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", got.PatientName)
	assert.Len(t, got.Medicines, 2)

	list, err := r.ListOrders(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	found, err := r.SearchOrders(ctx, "ravi", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)

	byIDs, err := r.GetOrdersByIDs(ctx, []uuid.UUID{created.ID})
	require.NoError(t, err)
	assert.Len(t, byIDs, 1)

	updated, err := r.UpdateOrder(ctx, created.ID, map[string]any{"dispatch_status": "dispatched"})
	require.NoError(t, err)
	assert.Equal(t, "dispatched", updated.DispatchStatus)

	require.NoError(t, r.DeleteOrder(ctx, created.ID))
	require.ErrorIs(t, r.DeleteOrder(ctx, created.ID), ErrNotFound)
	_, err = r.GetOrder(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
