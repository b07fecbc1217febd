package console

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebrhq/backoffice/internal/backend"
	"github.com/ebrhq/backoffice/internal/kv"
	"github.com/ebrhq/backoffice/internal/onboarding"
	"github.com/ebrhq/backoffice/internal/validate"
)

type stubAuth struct {
	token string
}

func (s *stubAuth) Login(ctx context.Context, in backend.LoginRequest) (*backend.LoginResponse, error) {
	return &backend.LoginResponse{
		AccessToken: s.token,
		User:        backend.User{ID: 7, Email: in.Email},
		Entreprises: []backend.Company{{ID: 3, RaisonSociale: "Chez Ami"}},
	}, nil
}

func (s *stubAuth) Register(ctx context.Context, in backend.RegistrationRequest) (*backend.User, error) {
	return nil, errors.New("not used")
}

func (s *stubAuth) ValidateEmail(ctx context.Context, code string) error { return nil }

func (s *stubAuth) ResendValidationCode(ctx context.Context, userID int64) error { return nil }

type stubGauge struct {
	mu   sync.Mutex
	last int
}

func (g *stubGauge) SetActiveConsoles(n int) {
	g.mu.Lock()
	g.last = n
	g.mu.Unlock()
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	pool  *Pool
	store *kv.Memory
	gauge *stubGauge
	clock *clock
	auth  *stubAuth
}

func newFixture(t *testing.T, store *kv.Memory) *fixture {
	t.Helper()
	c := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": c.now.Add(24 * time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	f := &fixture{store: store, gauge: &stubGauge{}, clock: c, auth: &stubAuth{token: tok}}
	f.pool = NewPool(Deps{
		Store: store,
		Flow:  onboarding.Deps{Auth: f.auth},
		Gauge: f.gauge,
		Now:   c.Now,
	})
	return f
}

func login(t *testing.T, c *Console) {
	t.Helper()
	err := c.Flow.Login(context.Background(), validate.LoginForm{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, onboarding.StateDashboard, c.Flow.State())
}

func TestGetReusesConsole(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	ctx := context.Background()

	a, err := f.pool.Get(ctx, "a")
	require.NoError(t, err)
	again, err := f.pool.Get(ctx, "a")
	require.NoError(t, err)
	b, err := f.pool.Get(ctx, "b")
	require.NoError(t, err)

	assert.Same(t, a, again)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, f.pool.Len())
	assert.Equal(t, 2, f.gauge.last)
	assert.Equal(t, onboarding.StateLoggedOut, a.Flow.State())
}

func TestSessionsAreNamespaced(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	ctx := context.Background()

	a, err := f.pool.Get(ctx, "a")
	require.NoError(t, err)
	login(t, a)

	tok, err := f.store.Get(ctx, "sess:a:access_token")
	require.NoError(t, err)
	assert.Equal(t, f.auth.token, tok)

	b, err := f.pool.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, onboarding.StateLoggedOut, b.Flow.State())
	_, err = b.Flow.RequireSession(ctx)
	assert.ErrorIs(t, err, onboarding.ErrSessionExpired)
}

func TestNewPoolResumesPersistedSession(t *testing.T) {
	store := kv.NewMemory()
	ctx := context.Background()

	first := newFixture(t, store)
	a, err := first.pool.Get(ctx, "a")
	require.NoError(t, err)
	login(t, a)

	second := newFixture(t, store)
	resumed, err := second.pool.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, onboarding.StateDashboard, resumed.Flow.State())

	sc, err := resumed.Flow.RequireSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sc.Company.ID)
}

func TestSweepEvictsIdle(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	ctx := context.Background()

	a, err := f.pool.Get(ctx, "a")
	require.NoError(t, err)
	login(t, a)

	f.clock.advance(30 * time.Minute)
	_, err = f.pool.Get(ctx, "b")
	require.NoError(t, err)

	f.clock.advance(45 * time.Minute)
	assert.Equal(t, 1, f.pool.Sweep(time.Hour))
	assert.Equal(t, 1, f.pool.Len())
	assert.Equal(t, 1, f.gauge.last)

	assert.Zero(t, f.pool.Sweep(time.Hour))
}

func TestSweptSessionResumes(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	ctx := context.Background()

	a, err := f.pool.Get(ctx, "a")
	require.NoError(t, err)
	login(t, a)

	f.clock.advance(3 * time.Hour)
	require.Equal(t, 1, f.pool.Sweep(2*time.Hour))

	tok, err := f.store.Get(ctx, "sess:a:access_token")
	require.NoError(t, err)
	assert.Equal(t, f.auth.token, tok)

	again, err := f.pool.Get(ctx, "a")
	require.NoError(t, err)
	assert.NotSame(t, a, again)
	assert.Equal(t, onboarding.StateDashboard, again.Flow.State())
	sc, err := again.Flow.RequireSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sc.Company.ID)
}

func TestGetRefreshesLastSeen(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	ctx := context.Background()

	_, err := f.pool.Get(ctx, "a")
	require.NoError(t, err)
	f.clock.advance(50 * time.Minute)
	_, err = f.pool.Get(ctx, "a")
	require.NoError(t, err)
	f.clock.advance(50 * time.Minute)

	assert.Zero(t, f.pool.Sweep(time.Hour))
}

func TestForgetAfterLogout(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	ctx := context.Background()

	a, err := f.pool.Get(ctx, "a")
	require.NoError(t, err)
	login(t, a)
	require.NoError(t, f.store.Set(ctx, "sess:a:journee:3:1", "true"))

	require.NoError(t, a.Flow.Logout(ctx))
	f.pool.Forget("a")
	assert.Zero(t, f.pool.Len())
	assert.Zero(t, f.gauge.last)

	_, err = f.store.Get(ctx, "sess:a:access_token")
	assert.ErrorIs(t, err, kv.ErrNotFound)
	flag, err := f.store.Get(ctx, "sess:a:journee:3:1")
	require.NoError(t, err)
	assert.Equal(t, "true", flag)

	fresh, err := f.pool.Get(ctx, "a")
	require.NoError(t, err)
	assert.NotSame(t, a, fresh)
	assert.Equal(t, onboarding.StateLoggedOut, fresh.Flow.State())

	f.pool.Forget("missing")
	assert.Equal(t, 1, f.pool.Len())
}

func TestConcurrentFirstGetShareConsole(t *testing.T) {
	store := kv.NewMemory()
	ctx := context.Background()

	first := newFixture(t, store)
	a, err := first.pool.Get(ctx, "a")
	require.NoError(t, err)
	login(t, a)

	second := newFixture(t, store)
	const n = 8
	var (
		wg       sync.WaitGroup
		consoles [n]*Console
		errs     [n]error
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			consoles[i], errs[i] = second.pool.Get(ctx, "a")
		}()
	}
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		assert.Same(t, consoles[0], consoles[i])
	}
	assert.Equal(t, 1, second.pool.Len())
	assert.Equal(t, onboarding.StateDashboard, consoles[0].Flow.State())
	_, err = consoles[0].Flow.RequireSession(ctx)
	assert.NoError(t, err)
}

func TestGetWaitingForResumeHonoursContext(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	f.pool.pending["a"] = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.pool.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.pool.Len())
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.pool.Run(ctx, time.Millisecond, time.Hour)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
