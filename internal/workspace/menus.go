package workspace

import (
	"context"
	"strings"

	"github.com/ebrhq/backoffice/internal/backend"
	"github.com/ebrhq/backoffice/internal/onboarding"
	"github.com/ebrhq/backoffice/internal/validate"
)

// MenuUpdate lists the fields to change; nil fields are kept. A nil Image
// keeps the current picture.
type MenuUpdate struct {
	Name        *string        `json:"nom,omitempty"`
	Price       *float64       `json:"prix,omitempty"`
	Category    *string        `json:"categorie,omitempty"`
	Description *string        `json:"description,omitempty"`
	Image       *backend.Image `json:"-"`
}

func (w *Workspace) Menus(ctx context.Context, page Page) ([]backend.Menu, error) {
	var out []backend.Menu
	err := w.run(ctx, func(sc onboarding.Scope) error {
		list, err := w.api.Menus.List(ctx, sc.Token, sc.Company.ID, page.Skip, page.limit())
		out = list
		return err
	})
	return out, err
}

// CreateMenu adds a drink or a meal, with an optional picture.
func (w *Workspace) CreateMenu(ctx context.Context, form validate.MenuForm, img *backend.Image) (*backend.Menu, error) {
	if err := validate.Menu(form); err != nil {
		return nil, err
	}
	var out *backend.Menu
	err := w.run(ctx, func(sc onboarding.Scope) error {
		m, err := w.api.Menus.Create(ctx, sc.Token, backend.CreateMenuRequest{
			Nom:          strings.TrimSpace(form.Name),
			Prix:         form.Price,
			Categorie:    form.Category,
			EntrepriseID: sc.Company.ID,
			Description:  strings.TrimSpace(form.Description),
			Image:        img,
		})
		out = m
		return err
	})
	return out, err
}

// CreatePack groups existing menus under one price.
func (w *Workspace) CreatePack(ctx context.Context, form validate.PackForm, img *backend.Image) (*backend.Menu, error) {
	if err := validate.Pack(form); err != nil {
		return nil, err
	}
	var out *backend.Menu
	err := w.run(ctx, func(sc onboarding.Scope) error {
		m, err := w.api.Menus.CreatePack(ctx, sc.Token, backend.CreatePackRequest{
			Nom:          strings.TrimSpace(form.Name),
			Prix:         form.Price,
			EntrepriseID: sc.Company.ID,
			Description:  strings.TrimSpace(form.Description),
			MenuIDs:      form.MenuIDs,
			Image:        img,
		})
		out = m
		return err
	})
	return out, err
}

// PackDetails returns a pack with its menus.
func (w *Workspace) PackDetails(ctx context.Context, id int64) (*backend.Menu, error) {
	var out *backend.Menu
	err := w.run(ctx, func(sc onboarding.Scope) error {
		m, err := w.api.Menus.PackDetails(ctx, sc.Token, id)
		out = m
		return err
	})
	return out, err
}

func (w *Workspace) UpdateMenu(ctx context.Context, id int64, in MenuUpdate) (*backend.Menu, error) {
	v := &validate.Validator{}
	if in.Name != nil {
		v.Required("nom", *in.Name)
	}
	if in.Price != nil {
		v.Positive("prix", *in.Price)
	}
	if in.Category != nil {
		v.OneOf("categorie", *in.Category, validate.CategoryDrinks, validate.CategoryMeals, backend.CategoryPack)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	var out *backend.Menu
	err := w.run(ctx, func(sc onboarding.Scope) error {
		m, err := w.api.Menus.Update(ctx, sc.Token, id, backend.UpdateMenuRequest{
			Nom:         in.Name,
			Prix:        in.Price,
			Categorie:   in.Category,
			Description: in.Description,
			Image:       in.Image,
		})
		out = m
		return err
	})
	return out, err
}

func (w *Workspace) DeleteMenu(ctx context.Context, id int64) error {
	return w.run(ctx, func(sc onboarding.Scope) error {
		return w.api.Menus.Delete(ctx, sc.Token, id)
	})
}

// SetMenuActive shows or hides a menu for ordering.
func (w *Workspace) SetMenuActive(ctx context.Context, id int64, active bool) error {
	return w.run(ctx, func(sc onboarding.Scope) error {
		if active {
			return w.api.Menus.Activate(ctx, sc.Token, id)
		}
		return w.api.Menus.Deactivate(ctx, sc.Token, id)
	})
}
