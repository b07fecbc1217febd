package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// TablesAPI manages the dining tables of a company.
type TablesAPI struct {
	c *Client
}

func NewTablesAPI(c *Client) *TablesAPI {
	return &TablesAPI{c: c}
}

func (a *TablesAPI) Create(ctx context.Context, token string, in CreateTableRequest) (*Table, error) {
	var out Table
	err := a.c.Do(ctx, Request{
		Name:   "tables.create",
		Method: http.MethodPost,
		Path:   "tables/",
		Body:   in,
		Token:  token,
		Out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns one page of tables; unlike menus the body is a bare array.
func (a *TablesAPI) List(ctx context.Context, token string, companyID int64, skip, limit int) ([]Table, error) {
	var out []Table
	err := a.c.Do(ctx, Request{
		Name:   "tables.list",
		Method: http.MethodGet,
		Path:   "tables/" + strconv.FormatInt(companyID, 10),
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
	if out == nil {
		out = []Table{}
	}
	return out, nil
}

func (a *TablesAPI) Update(ctx context.Context, token string, id int64, in UpdateTableRequest) (*Table, error) {
	var out Table
	err := a.c.Do(ctx, Request{
		Name:   "tables.update",
		Method: http.MethodPut,
		Path:   "tables/" + strconv.FormatInt(id, 10),
		Body:   in,
		Token:  token,
		Out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *TablesAPI) Delete(ctx context.Context, token string, id int64) error {
	return a.c.Do(ctx, Request{
		Name:   "tables.delete",
		Method: http.MethodDelete,
		Path:   "tables/" + strconv.FormatInt(id, 10),
		Token:  token,
	})
}

// Activate enables every listed table in one call.
func (a *TablesAPI) Activate(ctx context.Context, token string, ids []int64) error {
	return a.bulk(ctx, token, "tables.activate", "tables/activer", ids)
}

// Deactivate disables every listed table in one call.
func (a *TablesAPI) Deactivate(ctx context.Context, token string, ids []int64) error {
	return a.bulk(ctx, token, "tables.deactivate", "tables/desactiver", ids)
}

func (a *TablesAPI) bulk(ctx context.Context, token, name, path string, ids []int64) error {
	if ids == nil {
		ids = []int64{}
	}
	var out Ack
	return a.c.Do(ctx, Request{
		Name:   name,
		Method: http.MethodPost,
		Path:   path,
		Body:   ids,
		Token:  token,
		Out:    &out,
	})
}
