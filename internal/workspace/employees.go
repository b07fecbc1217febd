package workspace

import (
	"context"
	"fmt"
	"strings"

	"github.com/ebrhq/backoffice/internal/backend"
	"github.com/ebrhq/backoffice/internal/kv"
	"github.com/ebrhq/backoffice/internal/onboarding"
	"github.com/ebrhq/backoffice/internal/validate"
)

// Employee is a company user with its display name and, for a gerant, the
// state of the journee.
type Employee struct {
	backend.Employee
	Name string `json:"name"`
	Open bool   `json:"is_open"`
}

// EmployeeUpdate lists the fields to change; nil fields are kept.
type EmployeeUpdate struct {
	Name     *string `json:"name,omitempty"`
	Role     *string `json:"role,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

const journeePrefix = "journee:"

func journeeKey(companyID, employeeID int64) string {
	return fmt.Sprintf("%s%d:%d", journeePrefix, companyID, employeeID)
}

func displayName(e backend.Employee) string {
	name := strings.TrimSpace(e.Firstname + " " + e.Lastname)
	if name == "" {
		return e.Username
	}
	return name
}

// Employees lists the employees of the active company.
func (w *Workspace) Employees(ctx context.Context, page Page) ([]Employee, error) {
	var out []Employee
	err := w.run(ctx, func(sc onboarding.Scope) error {
		list, err := w.api.Employees.List(ctx, sc.Token, sc.Company.ID, page.Skip, page.limit())
		if err != nil {
			return err
		}
		out = make([]Employee, 0, len(list))
		for _, e := range list {
			view := Employee{Employee: e, Name: displayName(e)}
			if e.Role == validate.RoleManager {
				if view.Open, err = w.flag(ctx, journeeKey(sc.Company.ID, e.ID), false); err != nil {
					return err
				}
			}
			out = append(out, view)
		}
		return nil
	})
	return out, err
}

// CreateEmployee adds an employee to the active company. The username and
// first/last names are derived from the full name.
func (w *Workspace) CreateEmployee(ctx context.Context, form validate.EmployeeForm) (*Employee, error) {
	if err := validate.Employee(form); err != nil {
		return nil, err
	}
	role := form.Role
	if role == "" {
		role = validate.RoleServer
	}
	first, last := validate.SplitName(form.Name)

	var out *Employee
	err := w.run(ctx, func(sc onboarding.Scope) error {
		created, err := w.api.Employees.Create(ctx, sc.Token, backend.CreateEmployeeRequest{
			Username:     validate.Username(form.Name),
			Firstname:    first,
			Lastname:     last,
			Email:        strings.TrimSpace(form.Email),
			Password:     form.Password,
			Role:         role,
			IsActive:     true,
			EntrepriseID: sc.Company.ID,
		})
		if err != nil {
			return err
		}
		out = &Employee{Employee: *created, Name: displayName(*created)}
		return nil
	})
	return out, err
}

// UpdateEmployee applies the non-nil fields of in.
func (w *Workspace) UpdateEmployee(ctx context.Context, id int64, in EmployeeUpdate) (*Employee, error) {
	v := &validate.Validator{}
	if in.Name != nil {
		v.Required("name", *in.Name)
	}
	if in.Role != nil {
		v.OneOf("role", *in.Role, validate.RoleManager, validate.RoleServer)
	}
	if in.Email != nil {
		v.Email("email", strings.TrimSpace(*in.Email))
	}
	if in.Password != nil {
		v.MinLen("password", *in.Password, validate.MinPasswordLen)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	req := backend.UpdateEmployeeRequest{
		Role:     in.Role,
		Password: in.Password,
		IsActive: in.IsActive,
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		req.Email = &email
	}
	if in.Name != nil {
		first, last := validate.SplitName(*in.Name)
		username := validate.Username(*in.Name)
		req.Firstname, req.Lastname, req.Username = &first, &last, &username
	}

	var out *Employee
	err := w.run(ctx, func(sc onboarding.Scope) error {
		updated, err := w.api.Employees.Update(ctx, sc.Token, id, req)
		if err != nil {
			return err
		}
		out = &Employee{Employee: *updated, Name: displayName(*updated)}
		return nil
	})
	return out, err
}

// DeleteEmployee removes the employee and forgets its journee.
func (w *Workspace) DeleteEmployee(ctx context.Context, id int64) error {
	return w.run(ctx, func(sc onboarding.Scope) error {
		if err := w.api.Employees.Delete(ctx, sc.Token, id); err != nil {
			return err
		}
		return w.store.Delete(ctx, journeeKey(sc.Company.ID, id))
	})
}

// findEmployee pages through the company's employees until id turns up.
func (w *Workspace) findEmployee(ctx context.Context, sc onboarding.Scope, id int64) (*backend.Employee, error) {
	for skip := 0; ; skip += DefaultPageSize {
		list, err := w.api.Employees.List(ctx, sc.Token, sc.Company.ID, skip, DefaultPageSize)
		if err != nil {
			return nil, err
		}
		for i := range list {
			if list[i].ID == id {
				return &list[i], nil
			}
		}
		if len(list) < DefaultPageSize {
			return nil, fmt.Errorf("employee %d: %w", id, ErrNotFound)
		}
	}
}

// ForgetJournees clears every journee flag kept in the local store.
func (w *Workspace) ForgetJournees(ctx context.Context) error {
	return kv.DeletePrefix(ctx, w.store, journeePrefix)
}

// ToggleJournee opens or closes the day of a gerant and returns the new
// state.
func (w *Workspace) ToggleJournee(ctx context.Context, id int64) (bool, error) {
	var open bool
	err := w.run(ctx, func(sc onboarding.Scope) error {
		found, err := w.findEmployee(ctx, sc, id)
		if err != nil {
			return err
		}
		if found.Role != validate.RoleManager {
			return ErrNotManager
		}
		key := journeeKey(sc.Company.ID, id)
		current, err := w.flag(ctx, key, false)
		if err != nil {
			return err
		}
		open = !current
		return w.setFlag(ctx, key, open)
	})
	return open, err
}
