// Package workspace implements the dashboard pages: employees, menus,
// tables and sales statistics, all scoped to the active company.
package workspace

import (
	"context"
	"errors"
	"time"

	"github.com/ebrhq/backoffice/internal/backend"
	"github.com/ebrhq/backoffice/internal/kv"
	"github.com/ebrhq/backoffice/internal/onboarding"
)

var (
	ErrNotManager    = errors.New("only a gerant has a journee")
	ErrNoTables      = errors.New("no table to activate or deactivate")
	ErrInvalidPeriod = errors.New("invalid period")
	ErrNotFound      = errors.New("not found")
)

// DefaultPageSize is the list size requested when the caller gives none.
const DefaultPageSize = 100

// Scoper yields the session scope of the current user. Expire is called
// when the upstream rejects the token.
type Scoper interface {
	RequireSession(ctx context.Context) (onboarding.Scope, error)
	Expire(ctx context.Context) error
}

type EmployeesService interface {
	Create(ctx context.Context, token string, in backend.CreateEmployeeRequest) (*backend.Employee, error)
	List(ctx context.Context, token string, companyID int64, skip, limit int) ([]backend.Employee, error)
	Update(ctx context.Context, token string, id int64, in backend.UpdateEmployeeRequest) (*backend.Employee, error)
	Delete(ctx context.Context, token string, id int64) error
}

type MenusService interface {
	Create(ctx context.Context, token string, in backend.CreateMenuRequest) (*backend.Menu, error)
	CreatePack(ctx context.Context, token string, in backend.CreatePackRequest) (*backend.Menu, error)
	List(ctx context.Context, token string, companyID int64, skip, limit int) ([]backend.Menu, error)
	PackDetails(ctx context.Context, token string, packID int64) (*backend.Menu, error)
	Update(ctx context.Context, token string, id int64, in backend.UpdateMenuRequest) (*backend.Menu, error)
	Delete(ctx context.Context, token string, id int64) error
	Activate(ctx context.Context, token string, id int64) error
	Deactivate(ctx context.Context, token string, id int64) error
}

type TablesService interface {
	Create(ctx context.Context, token string, in backend.CreateTableRequest) (*backend.Table, error)
	List(ctx context.Context, token string, companyID int64, skip, limit int) ([]backend.Table, error)
	Update(ctx context.Context, token string, id int64, in backend.UpdateTableRequest) (*backend.Table, error)
	Delete(ctx context.Context, token string, id int64) error
	Activate(ctx context.Context, token string, ids []int64) error
	Deactivate(ctx context.Context, token string, ids []int64) error
}

type ValidationsService interface {
	List(ctx context.Context, token string, companyID int64, from, to string) ([]backend.Validation, error)
}

// Services groups the upstream resources used by the pages.
type Services struct {
	Employees   EmployeesService
	Menus       MenusService
	Tables      TablesService
	Validations ValidationsService
}

// NewServices wires every resource to the same client.
func NewServices(c *backend.Client) Services {
	return Services{
		Employees:   backend.NewEmployeesAPI(c),
		Menus:       backend.NewMenusAPI(c),
		Tables:      backend.NewTablesAPI(c),
		Validations: backend.NewValidationsAPI(c),
	}
}

// Page selects a window of a list.
type Page struct {
	Skip  int
	Limit int
}

func (p Page) limit() int {
	if p.Limit <= 0 {
		return DefaultPageSize
	}
	return p.Limit
}

// Workspace serves the dashboard of one user. Local page state (journee
// toggles, tables switch) lives in store next to the session.
type Workspace struct {
	scope Scoper
	api   Services
	store kv.Store
	now   func() time.Time
}

func New(scope Scoper, api Services, store kv.Store, now func() time.Time) *Workspace {
	if now == nil {
		now = time.Now
	}
	return &Workspace{scope: scope, api: api, store: store, now: now}
}

// run resolves the scope and calls fn with it. An upstream 401 expires the
// session.
func (w *Workspace) run(ctx context.Context, fn func(sc onboarding.Scope) error) error {
	sc, err := w.scope.RequireSession(ctx)
	if err != nil {
		return err
	}
	err = fn(sc)
	if backend.IsUnauthorized(err) {
		return w.scope.Expire(ctx)
	}
	return err
}

// flag reads a boolean kept in the local store; missing keys yield def.
func (w *Workspace) flag(ctx context.Context, key string, def bool) (bool, error) {
	v, err := w.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	return v == "true", nil
}

func (w *Workspace) setFlag(ctx context.Context, key string, on bool) error {
	v := "false"
	if on {
		v = "true"
	}
	return w.store.Set(ctx, key, v)
}
