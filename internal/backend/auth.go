package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// AuthAPI covers login, registration and email validation.
type AuthAPI struct {
	c *Client
}

func NewAuthAPI(c *Client) *AuthAPI {
	return &AuthAPI{c: c}
}

// Login authenticates an administrator.
func (a *AuthAPI) Login(ctx context.Context, in LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	err := a.c.Do(ctx, Request{
		Name:   "auth.login",
		Method: http.MethodPost,
		Path:   "auth/admin-login",
		Body:   in,
		Out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates the owner account together with its first company. The
// account is always an active admin without matricule or company link; the
// upstream attaches the company itself.
func (a *AuthAPI) Register(ctx context.Context, in RegistrationRequest) (*User, error) {
	in.Role = "admin"
	in.IsActive = true
	in.Matricule = ""
	in.EntrepriseID = 0

	var out User
	err := a.c.Do(ctx, Request{
		Name:   "users.register",
		Method: http.MethodPost,
		Path:   "users/inscription",
		Body:   in,
		Out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateEmail submits the code received by email.
func (a *AuthAPI) ValidateEmail(ctx context.Context, code string) error {
	var out Ack
	return a.c.Do(ctx, Request{
		Name:   "users.validate_email",
		Method: http.MethodGet,
		Path:   "users/validate-email",
		Query:  url.Values{"validation_code": {code}},
		Out:    &out,
	})
}

// ResendValidationCode asks the upstream to email a fresh code.
func (a *AuthAPI) ResendValidationCode(ctx context.Context, userID int64) error {
	var out Ack
	return a.c.Do(ctx, Request{
		Name:   "users.resend_validation",
		Method: http.MethodGet,
		Path:   "users/resend-validate-email",
		Query:  url.Values{"user_id": {strconv.FormatInt(userID, 10)}},
		Out:    &out,
	})
}
