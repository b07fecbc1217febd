package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ValidationsAPI reads the orders validated by servers.
type ValidationsAPI struct {
	c *Client
}

func NewValidationsAPI(c *Client) *ValidationsAPI {
	return &ValidationsAPI{c: c}
}

// List returns the validations of a company between two dates (YYYY-MM-DD,
// both inclusive).
func (a *ValidationsAPI) List(ctx context.Context, token string, companyID int64, from, to string) ([]Validation, error) {
	var out []Validation
	err := a.c.Do(ctx, Request{
		Name:   "commandes.validations",
		Method: http.MethodGet,
		Path:   "commandes/validations/" + strconv.FormatInt(companyID, 10),
		Query: url.Values{
			"date_debut": {from},
			"date_fin":   {to},
		},
		Token: token,
		Out:   &out,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
