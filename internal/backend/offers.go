package backend

import (
	"context"
	"net/http"
)

// OffersAPI lists the subscription tiers.
type OffersAPI struct {
	c *Client
}

func NewOffersAPI(c *Client) *OffersAPI {
	return &OffersAPI{c: c}
}

// List fetches every available offer. The upstream exposes it as a POST
// with an empty object body.
func (a *OffersAPI) List(ctx context.Context) ([]Offer, error) {
	var out []Offer
	err := a.c.Do(ctx, Request{
		Name:   "entreprises.offres",
		Method: http.MethodPost,
		Path:   "entreprises/offres",
		Body:   struct{}{},
		Out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
