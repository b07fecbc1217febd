package workspace

import (
	"context"
	"fmt"
	"strings"

	"github.com/ebrhq/backoffice/internal/backend"
	"github.com/ebrhq/backoffice/internal/onboarding"
	"github.com/ebrhq/backoffice/internal/validate"
)

// Tables is the tables page: the list and the global on/off switch.
type Tables struct {
	Tables []backend.Table `json:"tables"`
	Active bool            `json:"active"`
}

func tablesKey(companyID int64) string {
	return fmt.Sprintf("tables_active:%d", companyID)
}

func (w *Workspace) Tables(ctx context.Context, page Page) (*Tables, error) {
	var out *Tables
	err := w.run(ctx, func(sc onboarding.Scope) error {
		var err error
		out, err = w.loadTables(ctx, sc, page)
		return err
	})
	return out, err
}

func (w *Workspace) loadTables(ctx context.Context, sc onboarding.Scope, page Page) (*Tables, error) {
	list, err := w.api.Tables.List(ctx, sc.Token, sc.Company.ID, page.Skip, page.limit())
	if err != nil {
		return nil, err
	}
	active, err := w.flag(ctx, tablesKey(sc.Company.ID), true)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []backend.Table{}
	}
	return &Tables{Tables: list, Active: active}, nil
}

func (w *Workspace) CreateTable(ctx context.Context, form validate.TableForm) (*backend.Table, error) {
	if err := validate.Table(form); err != nil {
		return nil, err
	}
	var out *backend.Table
	err := w.run(ctx, func(sc onboarding.Scope) error {
		t, err := w.api.Tables.Create(ctx, sc.Token, backend.CreateTableRequest{
			Nom:          strings.TrimSpace(form.Name),
			Ordre:        form.Order,
			EntrepriseID: sc.Company.ID,
		})
		out = t
		return err
	})
	return out, err
}

func (w *Workspace) UpdateTable(ctx context.Context, id int64, in backend.UpdateTableRequest) (*backend.Table, error) {
	v := &validate.Validator{}
	if in.Nom != nil {
		v.Required("nom", *in.Nom)
	}
	if in.Ordre != nil {
		v.Custom("ordre", *in.Ordre <= 0, "must be greater than 0")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	var out *backend.Table
	err := w.run(ctx, func(sc onboarding.Scope) error {
		t, err := w.api.Tables.Update(ctx, sc.Token, id, in)
		out = t
		return err
	})
	return out, err
}

func (w *Workspace) DeleteTable(ctx context.Context, id int64) error {
	return w.run(ctx, func(sc onboarding.Scope) error {
		return w.api.Tables.Delete(ctx, sc.Token, id)
	})
}

// ToggleTables deactivates every table when the switch is on, activates
// them all otherwise, then reloads the page.
func (w *Workspace) ToggleTables(ctx context.Context) (*Tables, error) {
	var out *Tables
	err := w.run(ctx, func(sc onboarding.Scope) error {
		current, err := w.loadTables(ctx, sc, Page{})
		if err != nil {
			return err
		}
		if len(current.Tables) == 0 {
			return ErrNoTables
		}
		ids := make([]int64, 0, len(current.Tables))
		for _, t := range current.Tables {
			ids = append(ids, t.ID)
		}
		if current.Active {
			err = w.api.Tables.Deactivate(ctx, sc.Token, ids)
		} else {
			err = w.api.Tables.Activate(ctx, sc.Token, ids)
		}
		if err != nil {
			return err
		}
		if err := w.setFlag(ctx, tablesKey(sc.Company.ID), !current.Active); err != nil {
			return err
		}
		out, err = w.loadTables(ctx, sc, Page{})
		return err
	})
	return out, err
}
