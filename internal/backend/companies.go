package backend

import (
	"context"
	"net/http"
)

// CompaniesAPI manages the companies owned by the logged-in user.
type CompaniesAPI struct {
	c *Client
}

func NewCompaniesAPI(c *Client) *CompaniesAPI {
	return &CompaniesAPI{c: c}
}

func (a *CompaniesAPI) Create(ctx context.Context, token string, in CreateCompanyRequest) (*Company, error) {
	var out Company
	err := a.c.Do(ctx, Request{
		Name:   "entreprises.create",
		Method: http.MethodPost,
		Path:   "entreprises/",
		Body:   in,
		Token:  token,
		Out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
