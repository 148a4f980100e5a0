package tokens

import (
	"encoding/base64"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCodec(t *testing.T, clock *fakeClock) *Codec {
	t.Helper()

	cfg := Config{
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     30 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
	if clock != nil {
		cfg.Now = clock.Now
	}
	c, err := NewCodec(cfg)
	require.NoError(t, err)
	return c
}

func TestCodec_IssueParse_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, nil)

	for _, kind := range []Kind{KindAccess, KindRefresh} {
		kind := kind
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			issued, err := codec.Issue(kind, "alice")
			require.NoError(t, err)
			require.NotEmpty(t, issued.Token)
			require.NotEmpty(t, issued.ID)

			claims, err := codec.Parse(kind, issued.Token)
			require.NoError(t, err)
			assert.Equal(t, "alice", claims.Subject)
			assert.Equal(t, issued.ID, claims.ID)
			assert.Equal(t, kind, claims.Kind)
			require.NotNil(t, claims.ExpiresAt)
			assert.True(t, claims.ExpiresAt.Time.Equal(issued.ExpiresAt))
			assert.WithinDuration(t, time.Now().Add(codec.TTL(kind)), claims.ExpiresAt.Time, 2*time.Second)
		})
	}
}

func TestCodec_Issue_FreshIDPerToken(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, nil)
	first, err := codec.Issue(KindAccess, "alice")
	require.NoError(t, err)
	second, err := codec.Issue(KindAccess, "alice")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.Token, second.Token)
}

func TestCodec_Issue_EmptySubject(t *testing.T) {
	t.Parallel()

	_, err := newTestCodec(t, nil).Issue(KindAccess, "")
	require.Error(t, err)
}

func TestCodec_Parse_ExpiredAfterTTL(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)

	issued, err := codec.Issue(KindAccess, "alice")
	require.NoError(t, err)

	clock.Advance(29 * time.Minute)
	_, err = codec.Parse(KindAccess, issued.Token)
	require.NoError(t, err)

	clock.Advance(time.Minute + time.Second)
	claims, err := codec.Parse(KindAccess, issued.Token)
	require.ErrorIs(t, err, ErrExpired)
	require.NotNil(t, claims)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, "alice", claims.Subject)
}

func TestCodec_Parse_AnyAlteredCharacterFailsSignature(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, nil)
	issued, err := codec.Issue(KindAccess, "alice")
	require.NoError(t, err)

	tok := issued.Token
	for i := 0; i < len(tok); i++ {
		if tok[i] == '.' {
			continue
		}
		replacement := byte('A')
		if tok[i] == 'A' {
			replacement = 'B'
		}
		tampered := tok[:i] + string(replacement) + tok[i+1:]

		_, err := codec.Parse(KindAccess, tampered)
		require.ErrorIsf(t, err, ErrInvalidSignature, "position %d", i)
	}
}

func TestCodec_Parse_Failures(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, nil)
	other, err := NewCodec(Config{
		AccessSecret: []byte("another-secret"),
		AccessTTL:    time.Minute,
		RefreshTTL:   time.Hour,
	})
	require.NoError(t, err)

	foreign, err := other.Issue(KindAccess, "alice")
	require.NoError(t, err)
	refresh, err := codec.Issue(KindRefresh, "alice")
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "alice", "jti": "x", "typ": "access"})
	noneToken, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "empty", token: "", want: ErrMalformed},
		{name: "garbage", token: "not-a-valid-jwt", want: ErrMalformed},
		{name: "two segments", token: "a.b", want: ErrMalformed},
		{name: "foreign secret", token: foreign.Token, want: ErrInvalidSignature},
		{name: "alg none", token: noneToken, want: ErrInvalidSignature},
		{name: "refresh presented as access", token: refresh.Token, want: ErrInvalidSignature},
		{name: "bad signature encoding", token: foreign.Token[:strings.LastIndex(foreign.Token, ".")] + ".!!!", want: ErrInvalidSignature},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, err := codec.Parse(KindAccess, tt.token)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, claims)
		})
	}
}

func TestCodec_Parse_SignedGarbageIsMalformed(t *testing.T) {
	t.Parallel()

	secret := []byte("test-jwt-secret")
	codec := newTestCodec(t, nil)

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`not json`))
	sig, err := jwt.SigningMethodHS256.Sign(header+"."+payload, secret)
	require.NoError(t, err)

	_, err = codec.Parse(KindAccess, header+"."+payload+"."+base64.RawURLEncoding.EncodeToString(sig))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestCodec_Parse_WrongKindWithSharedSecret(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec(Config{
		AccessSecret: []byte("shared"),
		AccessTTL:    time.Minute,
		RefreshTTL:   time.Hour,
	})
	require.NoError(t, err)

	refresh, err := codec.Issue(KindRefresh, "alice")
	require.NoError(t, err)

	_, err = codec.Parse(KindAccess, refresh.Token)
	require.ErrorIs(t, err, ErrWrongKind)
}

func TestNewCodec_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewCodec(Config{AccessTTL: time.Minute, RefreshTTL: time.Hour})
	require.Error(t, err)

	_, err = NewCodec(Config{AccessSecret: []byte("s"), RefreshTTL: time.Hour})
	require.Error(t, err)
}
