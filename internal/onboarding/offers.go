package onboarding

import "github.com/ebrhq/backoffice/internal/backend"

// FeaturedOfferCode marks the tier highlighted as most popular.
const FeaturedOfferCode = "S1"

const defaultOfferColor = "#007A3F"

var offerColors = map[string]string{
	"B1": "#3B82F6",
	"S1": "#007A3F",
	"P1": "#8B5CF6",
}

// Offer is a subscription tier as presented during onboarding. It is
// immutable once fetched.
type Offer struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Description string   `json:"description,omitempty"`
	MaxUsers    int      `json:"max_users"`
	MaxOrders   int      `json:"max_orders"`
	Features    []string `json:"features"`
	Featured    bool     `json:"is_popular"`
	Color       string   `json:"color"`
}

// OfferFromBackend maps an upstream tier. The code doubles as identifier.
func OfferFromBackend(b backend.Offer) Offer {
	features := make([]string, 0, len(b.Fonctionnalites))
	for _, f := range b.Fonctionnalites {
		features = append(features, f.Nom)
	}
	color, ok := offerColors[b.Code]
	if !ok {
		color = defaultOfferColor
	}
	return Offer{
		ID:          b.Code,
		Name:        b.Nom,
		Price:       b.Prix,
		Description: b.Description,
		MaxUsers:    b.NbrUser,
		MaxOrders:   b.NbrCommande,
		Features:    features,
		Featured:    b.Code == FeaturedOfferCode,
		Color:       color,
	}
}
