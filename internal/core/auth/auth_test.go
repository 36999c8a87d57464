package auth

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const testSecretID = "0123456789abcdef0123456789abcdef"

var testSecret = []byte("testsecret1234567890abcdefghijklmnop")

// fakeQueries serves get-api-key-by-hash from memory.
type fakeQueries struct {
	hash    []byte
	rec     keyRecord
	getErr  error
	updates int
}

func (f *fakeQueries) Get(_ context.Context, name string, dest any, args ...any) error {
	if f.getErr != nil {
		return f.getErr
	}
	if name != "get-api-key-by-hash" || len(args) != 1 {
		return errors.New("unexpected query")
	}
	if !bytes.Equal(args[0].([]byte), f.hash) {
		return sql.ErrNoRows
	}
	*dest.(*keyRecord) = f.rec
	return nil
}

func (f *fakeQueries) Exec(_ context.Context, name string, _ ...any) (sql.Result, error) {
	if name == "update-last-used" {
		f.updates++
	}
	return nil, nil
}

func newTestAuth(t *testing.T) (*Authenticator, *fakeQueries, string) {
	t.Helper()
	key, hash, err := GenerateAPIKey(testSecretID, testSecret)
	require.NoError(t, err)
	q := &fakeQueries{hash: hash, rec: keyRecord{APIKeyID: "k1", AppID: "launch-app"}}
	return NewAuthenticator(map[string][]byte{testSecretID: testSecret}, q), q, key
}

func TestParseAPIKey(t *testing.T) {
	random := strings.Repeat("ab", 32)
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid", FormatAPIKey(testSecretID, random), false},
		{"wrong prefix", "tk-v1-" + testSecretID + "-" + random, true},
		{"wrong version", "ab-v2-" + testSecretID + "-" + random, true},
		{"short secret id", "ab-v1-0123-" + random, true},
		{"short random", "ab-v1-" + testSecretID + "-abcd", true},
		{"uppercase hex", "ab-v1-" + strings.ToUpper(testSecretID) + "-" + random, true},
		{"extra segment", FormatAPIKey(testSecretID, random) + "-x", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secretID, randomData, err := ParseAPIKey(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKeyFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testSecretID, secretID)
			assert.Equal(t, random, randomData)
		})
	}
}

func TestGenerateAPIKey(t *testing.T) {
	k1, h1, err := GenerateAPIKey(testSecretID, testSecret)
	require.NoError(t, err)
	k2, _, err := GenerateAPIKey(testSecretID, testSecret)
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
	assert.True(t, VerifyHMAC(h1, ComputeHMAC(testSecret, k1)))
	assert.False(t, VerifyHMAC(h1, ComputeHMAC(testSecret, k2)))

	_, _, err = GenerateAPIKey("nothex", testSecret)
	assert.ErrorIs(t, err, ErrInvalidKeyFormat)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid key", func(t *testing.T) {
		a, q, key := newTestAuth(t)
		appID, err := a.Authenticate(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "launch-app", appID)
		assert.Equal(t, 1, q.updates)
	})

	t.Run("last used throttled", func(t *testing.T) {
		a, q, key := newTestAuth(t)
		now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		a.now = func() time.Time { return now }
		q.rec.LastUsedAt = sql.NullTime{Time: now.Add(-30 * time.Second), Valid: true}

		_, err := a.Authenticate(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 0, q.updates)

		q.rec.LastUsedAt.Time = now.Add(-2 * time.Minute)
		_, err = a.Authenticate(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 1, q.updates)
	})

	t.Run("unknown secret id", func(t *testing.T) {
		a, _, _ := newTestAuth(t)
		_, err := a.Authenticate(ctx, FormatAPIKey(strings.Repeat("f", 32), strings.Repeat("0", 64)))
		assert.ErrorIs(t, err, ErrUnknownKey)
	})

	t.Run("unregistered key", func(t *testing.T) {
		a, _, _ := newTestAuth(t)
		other, _, err := GenerateAPIKey(testSecretID, testSecret)
		require.NoError(t, err)
		_, err = a.Authenticate(ctx, other)
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("revoked", func(t *testing.T) {
		a, q, key := newTestAuth(t)
		q.rec.RevokedAt = sql.NullTime{Time: time.Now(), Valid: true}
		_, err := a.Authenticate(ctx, key)
		assert.ErrorIs(t, err, ErrKeyRevoked)
	})

	t.Run("store failure", func(t *testing.T) {
		a, q, key := newTestAuth(t)
		q.getErr = errors.New("connection refused")
		_, err := a.Authenticate(ctx, key)
		assert.ErrorIs(t, err, ErrStore)
	})
}

func TestUnaryInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/aepbridge.v1.Bridge/Invoke"}
	var seenApp string
	handler := func(ctx context.Context, _ any) (any, error) {
		seenApp = AppIDFromContext(ctx)
		return "ok", nil
	}
	withKey := func(key string) context.Context {
		return metadata.NewIncomingContext(context.Background(), metadata.Pairs(MetadataKey, key))
	}

	a, q, key := newTestAuth(t)
	intercept := a.UnaryInterceptor()

	resp, err := intercept(withKey(key), nil, info, handler)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, "launch-app", seenApp)

	tests := []struct {
		name string
		ctx  context.Context
		prep func()
		code codes.Code
	}{
		{"no metadata", context.Background(), nil, codes.Unauthenticated},
		{"no key", metadata.NewIncomingContext(context.Background(), metadata.MD{}), nil, codes.Unauthenticated},
		{"bad format", withKey("nope"), nil, codes.Unauthenticated},
		{"revoked", withKey(key), func() { q.rec.RevokedAt = sql.NullTime{Time: time.Now(), Valid: true} }, codes.PermissionDenied},
		{"store down", withKey(key), func() { q.getErr = errors.New("down") }, codes.Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.prep != nil {
				tt.prep()
			}
			_, err := intercept(tt.ctx, nil, info, handler)
			assert.Equal(t, tt.code, status.Code(err), "err = %v", err)
		})
	}

	t.Run("health bypass", func(t *testing.T) {
		_, err := intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, handler)
		assert.NoError(t, err)
	})
}

func TestAppIDFromContext(t *testing.T) {
	assert.Empty(t, AppIDFromContext(context.Background()))
	assert.Equal(t, "x", AppIDFromContext(WithAppID(context.Background(), "x")))
}
