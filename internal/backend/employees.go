package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// EmployeesAPI manages staff accounts of a company.
type EmployeesAPI struct {
	c *Client
}

func NewEmployeesAPI(c *Client) *EmployeesAPI {
	return &EmployeesAPI{c: c}
}

func (a *EmployeesAPI) Create(ctx context.Context, token string, in CreateEmployeeRequest) (*Employee, error) {
	var out Employee
	err := a.c.Do(ctx, Request{
		Name:   "users.create",
		Method: http.MethodPost,
		Path:   "users",
		Body:   in,
		Token:  token,
		Out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns one page of employees of the given company.
func (a *EmployeesAPI) List(ctx context.Context, token string, companyID int64, skip, limit int) ([]Employee, error) {
	var out []Employee
	err := a.c.Do(ctx, Request{
		Name:   "users.list",
		Method: http.MethodGet,
		Path:   "users/",
		Query: url.Values{
			"entreprise_id": {strconv.FormatInt(companyID, 10)},
			"skip":          {strconv.Itoa(skip)},
			"limit":         {strconv.Itoa(limit)},
		},
		Token: token,
		Out:   &out,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *EmployeesAPI) Update(ctx context.Context, token string, id int64, in UpdateEmployeeRequest) (*Employee, error) {
	var out Employee
	err := a.c.Do(ctx, Request{
		Name:   "users.update",
		Method: http.MethodPut,
		Path:   "users/" + strconv.FormatInt(id, 10),
		Body:   in,
		Token:  token,
		Out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *EmployeesAPI) Delete(ctx context.Context, token string, id int64) error {
	return a.c.Do(ctx, Request{
		Name:   "users.delete",
		Method: http.MethodDelete,
		Path:   "users/" + strconv.FormatInt(id, 10),
		Token:  token,
	})
}
