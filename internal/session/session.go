// Package session persists the authenticated session (token, user and
// companies) and the onboarding markers in a kv.Store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ebrhq/backoffice/internal/backend"
	"github.com/ebrhq/backoffice/internal/kv"
)

// Persisted keys.
const (
	KeyAccessToken    = "access_token"
	KeyUser           = "user"
	KeyCompanies      = "entreprises"
	KeyNewCompanyID   = "new_company_id"
	KeyFromAddCompany = "from_add_company"
	KeyActiveCompany  = "active_company_id"
)

// ErrCorrupt is returned when a persisted value cannot be decoded.
var ErrCorrupt = errors.New("corrupt session data")

type (
	User    = backend.User
	Company = backend.Company
)

// Session is what a successful login yields.
type Session struct {
	AccessToken string    `json:"access_token"`
	User        User      `json:"user"`
	Companies   []Company `json:"entreprises"`
}

// Company returns the company with the given id from the session list.
func (s *Session) Company(id int64) (Company, bool) {
	for _, c := range s.Companies {
		if c.ID == id {
			return c, true
		}
	}
	return Company{}, false
}

// Store reads and writes sessions.
type Store struct {
	kv kv.Store
}

func NewStore(s kv.Store) *Store {
	return &Store{kv: s}
}

// Load returns the persisted session, or nil when any of the three
// session keys is missing.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	token, err := s.get(ctx, KeyAccessToken)
	if err != nil || token == "" {
		return nil, err
	}
	rawUser, err := s.get(ctx, KeyUser)
	if err != nil || rawUser == "" {
		return nil, err
	}
	rawCompanies, err := s.get(ctx, KeyCompanies)
	if err != nil || rawCompanies == "" {
		return nil, err
	}

	sess := &Session{AccessToken: token}
	if err := json.Unmarshal([]byte(rawUser), &sess.User); err != nil {
		return nil, fmt.Errorf("%w: user: %v", ErrCorrupt, err)
	}
	if err := json.Unmarshal([]byte(rawCompanies), &sess.Companies); err != nil {
		return nil, fmt.Errorf("%w: entreprises: %v", ErrCorrupt, err)
	}
	if sess.Companies == nil {
		sess.Companies = []Company{}
	}
	return sess, nil
}

// get returns "" without error for a missing key.
func (s *Store) get(ctx context.Context, key string) (string, error) {
	v, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", key, err)
	}
	return v, nil
}

// Save writes the three session keys.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	user, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	if err := s.kv.Set(ctx, KeyAccessToken, sess.AccessToken); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, KeyUser, string(user)); err != nil {
		return err
	}
	return s.SaveCompanies(ctx, sess.Companies)
}

// SaveCompanies replaces the persisted company list.
func (s *Store) SaveCompanies(ctx context.Context, companies []Company) error {
	if companies == nil {
		companies = []Company{}
	}
	data, err := json.Marshal(companies)
	if err != nil {
		return fmt.Errorf("encoding companies: %w", err)
	}
	return s.kv.Set(ctx, KeyCompanies, string(data))
}

// Clear removes the session and every onboarding marker.
func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx,
		KeyAccessToken, KeyUser, KeyCompanies,
		KeyNewCompanyID, KeyFromAddCompany, KeyActiveCompany,
	)
}

// MarkJustAdded records the id of a company created through the add-company
// branch. It becomes active once the offer step completes.
func (s *Store) MarkJustAdded(ctx context.Context, id int64) error {
	return s.kv.Set(ctx, KeyNewCompanyID, strconv.FormatInt(id, 10))
}

// TakeJustAdded returns the just-added company id and clears the marker.
func (s *Store) TakeJustAdded(ctx context.Context) (int64, bool, error) {
	id, ok, err := s.readID(ctx, KeyNewCompanyID)
	if err != nil || !ok {
		return 0, false, err
	}
	if err := s.kv.Delete(ctx, KeyNewCompanyID); err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// SetFromAddCompany flags that the offer step was entered from the
// add-company branch.
func (s *Store) SetFromAddCompany(ctx context.Context) error {
	return s.kv.Set(ctx, KeyFromAddCompany, "true")
}

// FromAddCompany reports the flag without clearing it.
func (s *Store) FromAddCompany(ctx context.Context) (bool, error) {
	v, err := s.get(ctx, KeyFromAddCompany)
	return v == "true", err
}

// TakeFromAddCompany reports the flag and clears it.
func (s *Store) TakeFromAddCompany(ctx context.Context) (bool, error) {
	set, err := s.FromAddCompany(ctx)
	if err != nil || !set {
		return false, err
	}
	return true, s.kv.Delete(ctx, KeyFromAddCompany)
}

// SetActiveCompany remembers the active company between runs.
func (s *Store) SetActiveCompany(ctx context.Context, id int64) error {
	return s.kv.Set(ctx, KeyActiveCompany, strconv.FormatInt(id, 10))
}

// ActiveCompany returns the remembered active company id.
func (s *Store) ActiveCompany(ctx context.Context) (int64, bool, error) {
	return s.readID(ctx, KeyActiveCompany)
}

func (s *Store) readID(ctx context.Context, key string) (int64, bool, error) {
	v, err := s.get(ctx, key)
	if err != nil || v == "" {
		return 0, false, err
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return id, true, nil
}

// TokenExpired reports whether now has reached the JWT's exp claim. The
// signature is not verified; the upstream does that on every call. A token
// that cannot be decoded or carries no exp counts as expired.
func TokenExpired(token string, now time.Time) bool {
	if token == "" {
		return true
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return !now.Before(exp.Time)
}
