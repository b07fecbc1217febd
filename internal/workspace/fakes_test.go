package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/ebrhq/backoffice/internal/backend"
	"github.com/ebrhq/backoffice/internal/kv"
	"github.com/ebrhq/backoffice/internal/onboarding"
)

var testNow = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

type fakeScope struct {
	scope   onboarding.Scope
	err     error
	expired int
}

func (f *fakeScope) RequireSession(ctx context.Context) (onboarding.Scope, error) {
	return f.scope, f.err
}

func (f *fakeScope) Expire(ctx context.Context) error {
	f.expired++
	return onboarding.ErrSessionExpired
}

type fakeEmployees struct {
	list    []backend.Employee
	err     error
	created []backend.CreateEmployeeRequest
	updated map[int64]backend.UpdateEmployeeRequest
	deleted []int64
	pages   [][2]int
}

func (f *fakeEmployees) Create(ctx context.Context, token string, in backend.CreateEmployeeRequest) (*backend.Employee, error) {
	f.created = append(f.created, in)
	if f.err != nil {
		return nil, f.err
	}
	return &backend.Employee{
		ID: 99, Username: in.Username, Firstname: in.Firstname, Lastname: in.Lastname,
		Email: in.Email, Role: in.Role, IsActive: in.IsActive, EntrepriseID: in.EntrepriseID,
	}, nil
}

func (f *fakeEmployees) List(ctx context.Context, token string, companyID int64, skip, limit int) ([]backend.Employee, error) {
	f.pages = append(f.pages, [2]int{skip, limit})
	if f.err != nil {
		return nil, f.err
	}
	if skip >= len(f.list) {
		return nil, nil
	}
	return f.list[skip:min(skip+limit, len(f.list))], nil
}

func (f *fakeEmployees) Update(ctx context.Context, token string, id int64, in backend.UpdateEmployeeRequest) (*backend.Employee, error) {
	if f.updated == nil {
		f.updated = map[int64]backend.UpdateEmployeeRequest{}
	}
	f.updated[id] = in
	if f.err != nil {
		return nil, f.err
	}
	e := backend.Employee{ID: id}
	if in.Firstname != nil {
		e.Firstname = *in.Firstname
	}
	if in.Lastname != nil {
		e.Lastname = *in.Lastname
	}
	return &e, nil
}

func (f *fakeEmployees) Delete(ctx context.Context, token string, id int64) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

type fakeMenus struct {
	list        []backend.Menu
	err         error
	created     []backend.CreateMenuRequest
	packs       []backend.CreatePackRequest
	updated     []backend.UpdateMenuRequest
	activated   []int64
	deactivated []int64
	deleted     []int64
}

func (f *fakeMenus) Create(ctx context.Context, token string, in backend.CreateMenuRequest) (*backend.Menu, error) {
	f.created = append(f.created, in)
	if f.err != nil {
		return nil, f.err
	}
	return &backend.Menu{ID: 1, Nom: in.Nom, Prix: in.Prix, Categorie: in.Categorie, EntrepriseID: in.EntrepriseID}, nil
}

func (f *fakeMenus) CreatePack(ctx context.Context, token string, in backend.CreatePackRequest) (*backend.Menu, error) {
	f.packs = append(f.packs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &backend.Menu{ID: 2, Nom: in.Nom, Categorie: backend.CategoryPack}, nil
}

func (f *fakeMenus) List(ctx context.Context, token string, companyID int64, skip, limit int) ([]backend.Menu, error) {
	return f.list, f.err
}

func (f *fakeMenus) PackDetails(ctx context.Context, token string, packID int64) (*backend.Menu, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &backend.Menu{ID: packID, Categorie: backend.CategoryPack, Menus: f.list}, nil
}

func (f *fakeMenus) Update(ctx context.Context, token string, id int64, in backend.UpdateMenuRequest) (*backend.Menu, error) {
	f.updated = append(f.updated, in)
	if f.err != nil {
		return nil, f.err
	}
	return &backend.Menu{ID: id}, nil
}

func (f *fakeMenus) Delete(ctx context.Context, token string, id int64) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeMenus) Activate(ctx context.Context, token string, id int64) error {
	f.activated = append(f.activated, id)
	return f.err
}

func (f *fakeMenus) Deactivate(ctx context.Context, token string, id int64) error {
	f.deactivated = append(f.deactivated, id)
	return f.err
}

type fakeTables struct {
	list        []backend.Table
	err         error
	created     []backend.CreateTableRequest
	activated   [][]int64
	deactivated [][]int64
	lists       int
}

func (f *fakeTables) Create(ctx context.Context, token string, in backend.CreateTableRequest) (*backend.Table, error) {
	f.created = append(f.created, in)
	if f.err != nil {
		return nil, f.err
	}
	return &backend.Table{ID: 5, Nom: in.Nom, Ordre: in.Ordre, EntrepriseID: in.EntrepriseID}, nil
}

func (f *fakeTables) List(ctx context.Context, token string, companyID int64, skip, limit int) ([]backend.Table, error) {
	f.lists++
	return f.list, f.err
}

func (f *fakeTables) Update(ctx context.Context, token string, id int64, in backend.UpdateTableRequest) (*backend.Table, error) {
	return &backend.Table{ID: id}, f.err
}

func (f *fakeTables) Delete(ctx context.Context, token string, id int64) error {
	return f.err
}

func (f *fakeTables) Activate(ctx context.Context, token string, ids []int64) error {
	f.activated = append(f.activated, ids)
	return f.err
}

func (f *fakeTables) Deactivate(ctx context.Context, token string, ids []int64) error {
	f.deactivated = append(f.deactivated, ids)
	return f.err
}

type fakeValidations struct {
	list     []backend.Validation
	err      error
	from, to string
}

func (f *fakeValidations) List(ctx context.Context, token string, companyID int64, from, to string) ([]backend.Validation, error) {
	f.from, f.to = from, to
	return f.list, f.err
}

type fixture struct {
	ws          *Workspace
	scope       *fakeScope
	employees   *fakeEmployees
	menus       *fakeMenus
	tables      *fakeTables
	validations *fakeValidations
	store       *kv.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		scope: &fakeScope{scope: onboarding.Scope{
			Token:   "tok",
			User:    backend.User{ID: 7, Email: "a@b.com"},
			Company: backend.Company{ID: 3, RaisonSociale: "Chez Ami"},
		}},
		employees:   &fakeEmployees{},
		menus:       &fakeMenus{},
		tables:      &fakeTables{},
		validations: &fakeValidations{},
		store:       kv.NewMemory(),
	}
	f.ws = New(f.scope, Services{
		Employees:   f.employees,
		Menus:       f.menus,
		Tables:      f.tables,
		Validations: f.validations,
	}, f.store, func() time.Time { return testNow })
	return f
}
