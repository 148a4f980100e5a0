package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Skotchmaster/medorder/internal/cache"
	authmw "github.com/Skotchmaster/medorder/internal/middleware/auth"
	"github.com/Skotchmaster/medorder/internal/repo"
	"github.com/Skotchmaster/medorder/internal/service"
	"github.com/Skotchmaster/medorder/internal/transport"
	pkgdb "github.com/Skotchmaster/medorder/pkg/db"
	"github.com/Skotchmaster/medorder/pkg/hash"
	"github.com/Skotchmaster/medorder/pkg/logging"
	"github.com/Skotchmaster/medorder/pkg/tokens"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	e    *echo.Echo
	repo *repo.GormRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := pkgdb.Open(context.Background(), pkgdb.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(context.Background(), db))
	t.Cleanup(func() { _ = pkgdb.Close(db) })

	r := repo.New(db, 3*time.Second)
	codec, err := tokens.NewCodec(tokens.Config{
		AccessSecret: []byte("test-secret"),
		AccessTTL:    30 * time.Minute,
		RefreshTTL:   7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	hasher := hash.New(bcrypt.MinCost)
	bl := cache.NewBlacklist(nil, r)
	guard := &service.Guard{Codec: codec, Users: r, Blacklist: bl}

	e := New(logging.Discard(), Options{})
	Register(e, &Deps{
		DB:   db,
		Auth: authmw.New(guard),
		AuthHandler: &AuthHTTP{Svc: &service.AuthService{
			Users: r, Tokens: r, Blacklist: bl, Codec: codec, Hasher: hasher, Rotate: true,
		}},
		UserHandler:  &UserHTTP{Svc: &service.UserService{Users: r, Tokens: r, Hasher: hasher}},
		OrderHandler: &OrderHTTP{Svc: &service.OrderService{Orders: r}},
	})
	return &testServer{e: e, repo: r}
}

type response struct {
	Code int
	Body []byte
	Hdr  http.Header
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return response{Code: rec.Code, Body: rec.Body.Bytes(), Hdr: rec.Header()}
}

func decode[T any](t *testing.T, r response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(r.Body, &v), string(r.Body))
	return v
}

func (s *testServer) register(t *testing.T, username, role, password string) transport.UserView {
	t.Helper()
	res := s.do(t, http.MethodPost, "/register", "", map[string]any{
		"email":       username + "@x.com",
		"username":    username,
		"full_name":   "User " + username,
		"role":        role,
		"permissions": []string{"orders:read"},
		"password":    password,
	})
	require.Equal(t, http.StatusOK, res.Code, string(res.Body))
	return decode[transport.UserView](t, res)
}

func (s *testServer) login(t *testing.T, username, password string) transport.TokenResponse {
	t.Helper()
	res := s.do(t, http.MethodPost, "/token", "", map[string]string{
		"email":    username + "@x.com",
		"password": password,
	})
	require.Equal(t, http.StatusOK, res.Code, string(res.Body))
	return decode[transport.TokenResponse](t, res)
}
