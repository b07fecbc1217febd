package onboarding

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/ebrhq/backoffice/internal/backend"
	"github.com/ebrhq/backoffice/internal/kv"
	"github.com/ebrhq/backoffice/internal/session"
)

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func token(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": exp.Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

type fakeAuth struct {
	mu sync.Mutex

	loginResp *backend.LoginResponse
	loginErr  error
	logins    []backend.LoginRequest
	block     chan struct{}
	started   chan struct{}

	registerErr error
	registered  []backend.RegistrationRequest

	validateErr error
	codes       []string

	resendErr error
	resends   []int64
}

func (f *fakeAuth) Login(ctx context.Context, in backend.LoginRequest) (*backend.LoginResponse, error) {
	f.mu.Lock()
	f.logins = append(f.logins, in)
	block, started := f.block, f.started
	f.mu.Unlock()
	if started != nil {
		close(started)
	}
	if block != nil {
		<-block
	}
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResp, nil
}

func (f *fakeAuth) Register(ctx context.Context, in backend.RegistrationRequest) (*backend.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, in)
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &backend.User{ID: 42, Email: in.Email, Role: "admin"}, nil
}

func (f *fakeAuth) ValidateEmail(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, code)
	return f.validateErr
}

func (f *fakeAuth) ResendValidationCode(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resends = append(f.resends, userID)
	return f.resendErr
}

type fakeOffers struct {
	list  []backend.Offer
	err   error
	calls int
}

func (f *fakeOffers) List(ctx context.Context) ([]backend.Offer, error) {
	f.calls++
	return f.list, f.err
}

type fakeCompanies struct {
	nextID  int64
	err     error
	created []backend.CreateCompanyRequest
	tokens  []string
}

func (f *fakeCompanies) Create(ctx context.Context, token string, in backend.CreateCompanyRequest) (*backend.Company, error) {
	f.created = append(f.created, in)
	f.tokens = append(f.tokens, token)
	if f.err != nil {
		return nil, f.err
	}
	return &backend.Company{
		ID:            f.nextID,
		RaisonSociale: in.RaisonSociale,
		Email:         in.Email,
		IsActive:      true,
	}, nil
}

type journalEntry struct {
	from, to, event, err string
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []journalEntry
}

func (j *fakeJournal) RecordTransition(sessionID, from, to, event, errMsg string, at time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, journalEntry{from, to, event, errMsg})
}

type fakeMetrics struct {
	mu          sync.Mutex
	transitions int
	failures    map[string]int
}

func (m *fakeMetrics) ObserveTransition(from, to, event string) {
	m.mu.Lock()
	m.transitions++
	m.mu.Unlock()
}

func (m *fakeMetrics) ObserveValidationFailure(form string) {
	m.mu.Lock()
	if m.failures == nil {
		m.failures = map[string]int{}
	}
	m.failures[form]++
	m.mu.Unlock()
}

type harness struct {
	o         *Orchestrator
	auth      *fakeAuth
	offers    *fakeOffers
	companies *fakeCompanies
	store     *kv.Memory
	sessions  *session.Store
	journal   *fakeJournal
	metrics   *fakeMetrics
	now       time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		auth: &fakeAuth{},
		offers: &fakeOffers{list: []backend.Offer{
			{ID: 1, Code: "B1", Nom: "Basique", Prix: 5000, Fonctionnalites: []backend.Feature{{Nom: "Menus"}}},
			{ID: 2, Code: "S1", Nom: "Standard", Prix: 15000, Fonctionnalites: []backend.Feature{{Nom: "Menus"}, {Nom: "Tables"}}},
			{ID: 3, Code: "P1", Nom: "Premium", Prix: 30000},
		}},
		companies: &fakeCompanies{nextID: 1700000000000},
		store:     kv.NewMemory(),
		journal:   &fakeJournal{},
		metrics:   &fakeMetrics{},
		now:       testNow,
	}
	h.sessions = session.NewStore(h.store)
	h.auth.loginResp = &backend.LoginResponse{
		AccessToken: token(t, testNow.Add(time.Hour)),
		TokenType:   "bearer",
		User:        backend.User{ID: 7, Username: "ami", Email: "a@b.com", Role: "admin"},
		Entreprises: []backend.Company{
			{ID: 1, RaisonSociale: "Chez Ami", IsActive: true},
			{ID: 2, RaisonSociale: "Le Maquis", IsActive: true},
		},
	}
	h.o = New(Deps{
		Auth:      h.auth,
		Offers:    h.offers,
		Companies: h.companies,
		Sessions:  h.sessions,
		Now:       func() time.Time { return h.now },
		Journal:   h.journal,
		Metrics:   h.metrics,
		SessionID: "test",
	})
	return h
}
