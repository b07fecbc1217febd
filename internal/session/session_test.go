package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebrhq/backoffice/internal/kv"
)

func sample() *Session {
	return &Session{
		AccessToken: "tok",
		User:        User{ID: 7, Username: "ami", Email: "a@b.com", Role: "admin"},
		Companies: []Company{
			{ID: 1, RaisonSociale: "Chez Ami", IsActive: true},
			{ID: 2, RaisonSociale: "Le Maquis"},
		},
	}
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	st := NewStore(kv.NewMemory())

	require.NoError(t, st.Save(ctx, sample()))
	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestLoadMissingKeys(t *testing.T) {
	ctx := context.Background()
	for _, missing := range []string{KeyAccessToken, KeyUser, KeyCompanies} {
		t.Run(missing, func(t *testing.T) {
			mem := kv.NewMemory()
			st := NewStore(mem)
			require.NoError(t, st.Save(ctx, sample()))
			require.NoError(t, mem.Delete(ctx, missing))

			got, err := st.Load(ctx)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestLoadCorrupt(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	st := NewStore(mem)
	require.NoError(t, st.Save(ctx, sample()))
	require.NoError(t, mem.Set(ctx, KeyCompanies, "{"))

	_, err := st.Load(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestClearRemovesMarkers(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	st := NewStore(mem)
	require.NoError(t, st.Save(ctx, sample()))
	require.NoError(t, st.MarkJustAdded(ctx, 9))
	require.NoError(t, st.SetFromAddCompany(ctx))
	require.NoError(t, st.SetActiveCompany(ctx, 2))

	require.NoError(t, st.Clear(ctx))
	assert.Equal(t, 0, mem.Len())
}

func TestJustAddedReadOnce(t *testing.T) {
	ctx := context.Background()
	st := NewStore(kv.NewMemory())

	_, ok, err := st.TakeJustAdded(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.MarkJustAdded(ctx, 1700000000000))
	id, ok, err := st.TakeJustAdded(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1700000000000), id)

	_, ok, err = st.TakeJustAdded(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFromAddCompany(t *testing.T) {
	ctx := context.Background()
	st := NewStore(kv.NewMemory())

	set, err := st.FromAddCompany(ctx)
	require.NoError(t, err)
	assert.False(t, set)

	require.NoError(t, st.SetFromAddCompany(ctx))
	set, _ = st.FromAddCompany(ctx)
	assert.True(t, set)

	set, err = st.TakeFromAddCompany(ctx)
	require.NoError(t, err)
	assert.True(t, set)

	set, _ = st.TakeFromAddCompany(ctx)
	assert.False(t, set)
}

func TestActiveCompany(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	st := NewStore(mem)

	_, ok, err := st.ActiveCompany(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.SetActiveCompany(ctx, 2))
	id, ok, err := st.ActiveCompany(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)

	require.NoError(t, mem.Set(ctx, KeyActiveCompany, "two"))
	_, _, err = st.ActiveCompany(ctx)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestSessionCompany(t *testing.T) {
	s := sample()
	c, ok := s.Company(2)
	assert.True(t, ok)
	assert.Equal(t, "Le Maquis", c.RaisonSociale)
	_, ok = s.Company(3)
	assert.False(t, ok)
}

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("upstream-secret"))
	require.NoError(t, err)
	return tok
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"future exp", signed(t, jwt.MapClaims{"sub": "7", "exp": now.Add(time.Hour).Unix()}), false},
		{"exp equals now", signed(t, jwt.MapClaims{"exp": now.Unix()}), true},
		{"one second left", signed(t, jwt.MapClaims{"exp": now.Add(time.Second).Unix()}), false},
		{"past exp", signed(t, jwt.MapClaims{"exp": now.Add(-time.Second).Unix()}), true},
		{"no exp", signed(t, jwt.MapClaims{"sub": "7"}), true},
		{"garbage", "not-a-jwt", true},
		{"empty", "", true},
		{"bad payload", "eyJhbGciOiJIUzI1NiJ9.!!!.sig", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TokenExpired(tt.token, now))
		})
	}
}
