package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Skotchmaster/medorder/internal/cache"
	"github.com/Skotchmaster/medorder/internal/events"
	"github.com/Skotchmaster/medorder/internal/models"
	"github.com/Skotchmaster/medorder/internal/repo"
	"github.com/Skotchmaster/medorder/internal/transport"
	pkgdb "github.com/Skotchmaster/medorder/pkg/db"
	"github.com/Skotchmaster/medorder/pkg/hash"
	"github.com/Skotchmaster/medorder/pkg/logging"
	"github.com/Skotchmaster/medorder/pkg/tokens"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) PublishUser(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) PublishOrder(ctx context.Context, ev events.Event) error {
	return r.PublishUser(ctx, ev)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	repo   *repo.GormRepo
	clock  *fakeClock
	pub    *recorder
	codec  *tokens.Codec
	auth   *AuthService
	guard  *Guard
	users  *UserService
	orders *OrderService
}

func newFixture(t *testing.T, rotate bool) *fixture {
	t.Helper()

	db, err := pkgdb.Open(context.Background(), pkgdb.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(context.Background(), db))
	t.Cleanup(func() { _ = pkgdb.Close(db) })

	r := repo.New(db, 3*time.Second)
	clock := &fakeClock{t: time.Now().UTC().Truncate(time.Second)}
	codec, err := tokens.NewCodec(tokens.Config{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     30 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Now:           clock.Now,
	})
	require.NoError(t, err)

	hasher := hash.New(bcrypt.MinCost)
	pub := &recorder{}
	bl := cache.NewBlacklist(nil, r)

	return &fixture{
		repo:  r,
		clock: clock,
		pub:   pub,
		codec: codec,
		auth: &AuthService{
			Users: r, Tokens: r, Blacklist: bl, Codec: codec, Hasher: hasher,
			Events: pub, Rotate: rotate, Now: clock.Now,
		},
		guard:  &Guard{Codec: codec, Users: r, Blacklist: bl},
		users:  &UserService{Users: r, Tokens: r, Hasher: hasher, Events: pub, Now: clock.Now},
		orders: &OrderService{Orders: r, Events: pub, Now: clock.Now},
	}
}

func ctx() context.Context {
	return logging.IntoContext(context.Background(), logging.Discard())
}

func (f *fixture) register(t *testing.T, username, role, password string) *models.User {
	t.Helper()
	u, err := f.users.Register(ctx(), transport.RegisterRequest{
		Email:       username + "@x.com",
		Username:    username,
		FullName:    "User " + username,
		Role:        role,
		Permissions: []string{"orders:read"},
		Password:    password,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) login(t *testing.T, username, password string) *TokenPair {
	t.Helper()
	pair, err := f.auth.Login(ctx(), username+"@x.com", password)
	require.NoError(t, err)
	return pair
}

func (f *fixture) authenticate(t *testing.T, access string) *UserContext {
	t.Helper()
	uc, err := f.guard.Authenticate(ctx(), access)
	require.NoError(t, err)
	return uc
}
