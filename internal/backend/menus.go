package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

// CategoryPack is the category the upstream uses for packs.
const CategoryPack = "pack"

// MenusAPI manages dishes, drinks and packs.
type MenusAPI struct {
	c *Client
}

func NewMenusAPI(c *Client) *MenusAPI {
	return &MenusAPI{c: c}
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func imagePart(img *Image) *FilePart {
	if img == nil || len(img.Content) == 0 {
		return nil
	}
	return &FilePart{
		Field:       "image",
		Filename:    img.Filename,
		ContentType: img.ContentType,
		Content:     bytes.NewReader(img.Content),
	}
}

// Create adds a single menu. A plain menu is sent with an empty "menus" list.
func (a *MenusAPI) Create(ctx context.Context, token string, in CreateMenuRequest) (*Menu, error) {
	var out Menu
	err := a.c.DoMultipart(ctx, MultipartRequest{
		Name:   "menus.create",
		Method: http.MethodPost,
		Path:   "menus",
		Token:  token,
		Fields: []Field{
			{"nom", in.Nom},
			{"prix", formatPrice(in.Prix)},
			{"categorie", in.Categorie},
			{"entreprise_id", strconv.FormatInt(in.EntrepriseID, 10)},
			{"description", in.Description},
			{"menus", "[]"},
		},
		File: imagePart(in.Image),
		Out:  &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePack adds a pack grouping existing menus.
func (a *MenusAPI) CreatePack(ctx context.Context, token string, in CreatePackRequest) (*Menu, error) {
	ids := in.MenuIDs
	if ids == nil {
		ids = []int64{}
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}

	var out Menu
	err = a.c.DoMultipart(ctx, MultipartRequest{
		Name:   "menus.create_pack",
		Method: http.MethodPost,
		Path:   "menus",
		Token:  token,
		Fields: []Field{
			{"nom", in.Nom},
			{"prix", formatPrice(in.Prix)},
			{"categorie", CategoryPack},
			{"entreprise_id", strconv.FormatInt(in.EntrepriseID, 10)},
			{"description", in.Description},
			{"menus", string(encoded)},
		},
		File: imagePart(in.Image),
		Out:  &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns one page of the company's menus. The upstream wraps the list
// in a "detail" field.
func (a *MenusAPI) List(ctx context.Context, token string, companyID int64, skip, limit int) ([]Menu, error) {
	var out struct {
		Detail []Menu `json:"detail"`
	}
	err := a.c.Do(ctx, Request{
		Name:   "menus.list",
		Method: http.MethodGet,
		Path:   "menus/" + strconv.FormatInt(companyID, 10),
		Query: url.Values{
			"skip":  {strconv.Itoa(skip)},
			"limit": {strconv.Itoa(limit)},
		},
		Token: token,
		Out:   &out,
	})
	if err != nil {
		return nil, err
	}
	if out.Detail == nil {
		return []Menu{}, nil
	}
	return out.Detail, nil
}

// PackDetails returns a pack with its menus.
func (a *MenusAPI) PackDetails(ctx context.Context, token string, packID int64) (*Menu, error) {
	var out struct {
		Detail []Menu `json:"detail"`
	}
	err := a.c.Do(ctx, Request{
		Name:   "menus.pack",
		Method: http.MethodGet,
		Path:   "menus/pack/" + strconv.FormatInt(packID, 10),
		Token:  token,
		Out:    &out,
	})
	if err != nil {
		return nil, err
	}
	if len(out.Detail) == 0 {
		return nil, &Error{StatusCode: http.StatusNotFound, Detail: "pack not found"}
	}
	return &out.Detail[0], nil
}

// Update sends only the fields that are set.
func (a *MenusAPI) Update(ctx context.Context, token string, id int64, in UpdateMenuRequest) (*Menu, error) {
	var fields []Field
	if in.Nom != nil && *in.Nom != "" {
		fields = append(fields, Field{"nom", *in.Nom})
	}
	if in.Prix != nil {
		fields = append(fields, Field{"prix", formatPrice(*in.Prix)})
	}
	if in.Categorie != nil && *in.Categorie != "" {
		fields = append(fields, Field{"categorie", *in.Categorie})
	}
	if in.Description != nil && *in.Description != "" {
		fields = append(fields, Field{"description", *in.Description})
	}

	var out Menu
	err := a.c.DoMultipart(ctx, MultipartRequest{
		Name:   "menus.update",
		Method: http.MethodPut,
		Path:   "menus/" + strconv.FormatInt(id, 10),
		Token:  token,
		Fields: fields,
		File:   imagePart(in.Image),
		Out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *MenusAPI) Delete(ctx context.Context, token string, id int64) error {
	return a.c.Do(ctx, Request{
		Name:   "menus.delete",
		Method: http.MethodDelete,
		Path:   "menus/" + strconv.FormatInt(id, 10),
		Token:  token,
	})
}

// Activate sets the menu status to 1.
func (a *MenusAPI) Activate(ctx context.Context, token string, id int64) error {
	return a.c.Do(ctx, Request{
		Name:   "menus.activate",
		Method: http.MethodPost,
		Path:   "menusactiver/" + strconv.FormatInt(id, 10),
		Body:   struct{}{},
		Token:  token,
	})
}

// Deactivate sets the menu status to -1.
func (a *MenusAPI) Deactivate(ctx context.Context, token string, id int64) error {
	return a.c.Do(ctx, Request{
		Name:   "menus.deactivate",
		Method: http.MethodPost,
		Path:   "menusdesactiver/" + strconv.FormatInt(id, 10),
		Body:   struct{}{},
		Token:  token,
	})
}
