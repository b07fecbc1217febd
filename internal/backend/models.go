package backend

import "encoding/json"

// User is the account summary returned by login and registration.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// Company is an "entreprise" as the upstream returns it.
type Company struct {
	ID                     int64  `json:"id"`
	RaisonSociale          string `json:"raison_sociale"`
	Telephone              string `json:"telephone"`
	Email                  string `json:"email"`
	SiteWeb                string `json:"site_web"`
	NumeroIFU              string `json:"numero_ifu"`
	NumeroRegistreCommerce string `json:"numero_registre_commerce"`
	IsActive               bool   `json:"is_active"`
	CodeEntreprise         string `json:"code_entreprise"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        User      `json:"user"`
	Entreprises []Company `json:"entreprises"`
}

// RegistrationRequest is the body of POST users/inscription.
type RegistrationRequest struct {
	RaisonSociale          string `json:"raison_sociale"`
	Telephone              string `json:"telephone"`
	Email                  string `json:"email"`
	SiteWeb                string `json:"site_web"`
	NumeroIFU              string `json:"numero_ifu"`
	NumeroRegistreCommerce string `json:"numero_registre_commerce"`
	Username               string `json:"username"`
	Firstname              string `json:"firstname"`
	Lastname               string `json:"lastname"`
	Role                   string `json:"role"`
	IsActive               bool   `json:"is_active"`
	Matricule              string `json:"matricule"`
	EntrepriseID           int64  `json:"entreprise_id"`
	Password               string `json:"password"`
}

// CreateCompanyRequest is the body of POST entreprises/.
type CreateCompanyRequest struct {
	RaisonSociale          string `json:"raison_sociale"`
	Telephone              string `json:"telephone"`
	Email                  string `json:"email"`
	SiteWeb                string `json:"site_web"`
	NumeroIFU              string `json:"numero_ifu"`
	NumeroRegistreCommerce string `json:"numero_registre_commerce"`
}

// Feature is one "fonctionnalite" of an offer.
type Feature struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Nom         string `json:"nom"`
	Description string `json:"description"`
}

// Offer is a subscription tier as the upstream returns it.
type Offer struct {
	ID              int64     `json:"id"`
	Code            string    `json:"code"`
	Nom             string    `json:"nom"`
	NbrUser         int       `json:"nbr_user"`
	NbrCommande     int       `json:"nbr_commande"`
	Prix            float64   `json:"prix"`
	Description     string    `json:"description"`
	Fonctionnalites []Feature `json:"fonctionnalites"`
}

// Employee is a staff account scoped to one company.
type Employee struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Firstname    string `json:"firstname"`
	Lastname     string `json:"lastname"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	IsActive     bool   `json:"is_active"`
	Matricule    string `json:"matricule"`
	EntrepriseID int64  `json:"entreprise_id"`
}

type CreateEmployeeRequest struct {
	Username     string `json:"username"`
	Firstname    string `json:"firstname"`
	Lastname     string `json:"lastname"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	IsActive     bool   `json:"is_active"`
	Matricule    string `json:"matricule"`
	EntrepriseID int64  `json:"entreprise_id"`
}

// UpdateEmployeeRequest is a partial update; nil fields are omitted.
type UpdateEmployeeRequest struct {
	Username  *string `json:"username,omitempty"`
	Firstname *string `json:"firstname,omitempty"`
	Lastname  *string `json:"lastname,omitempty"`
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
	Role      *string `json:"role,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// Menu is a dish, a drink or a pack of menus.
type Menu struct {
	ID           int64   `json:"id"`
	Nom          string  `json:"nom"`
	Prix         float64 `json:"prix"`
	Categorie    string  `json:"categorie"`
	Description  string  `json:"description"`
	Image        string  `json:"image"`
	Status       int     `json:"status"`
	EntrepriseID int64   `json:"entreprise_id"`
	Menus        []Menu  `json:"menus,omitempty"`
}

// Image is an optional upload attached to menu create/update calls.
type Image struct {
	Filename    string
	ContentType string
	Content     []byte
}

type CreateMenuRequest struct {
	Nom          string
	Prix         float64
	Categorie    string
	EntrepriseID int64
	Description  string
	Image        *Image
}

type CreatePackRequest struct {
	Nom          string
	Prix         float64
	EntrepriseID int64
	Description  string
	MenuIDs      []int64
	Image        *Image
}

// UpdateMenuRequest only sends the fields that are set.
type UpdateMenuRequest struct {
	Nom         *string
	Prix        *float64
	Categorie   *string
	Description *string
	Image       *Image
}

type Table struct {
	ID           int64  `json:"id"`
	Nom          string `json:"nom"`
	Ordre        int    `json:"ordre"`
	EntrepriseID int64  `json:"entreprise_id,omitempty"`
	EstOccupee   bool   `json:"est_occupee"`
}

type CreateTableRequest struct {
	Nom          string `json:"nom"`
	Ordre        int    `json:"ordre"`
	EntrepriseID int64  `json:"entreprise_id"`
}

type UpdateTableRequest struct {
	Nom   *string `json:"nom,omitempty"`
	Ordre *int    `json:"ordre,omitempty"`
}

// OrderItem is one line of a validated order.
type OrderItem struct {
	ID       int64   `json:"id"`
	Nom      string  `json:"nom"`
	Quantite int     `json:"quantite"`
	Prix     float64 `json:"prix"`
	Total    float64 `json:"total"`
}

// Validation is an order validated by a server at a table.
type Validation struct {
	ID           int64       `json:"id"`
	ServeurID    int64       `json:"serveur_id"`
	ServeurNom   string      `json:"serveur_nom"`
	TableNom     string      `json:"table_nom"`
	Items        []OrderItem `json:"items"`
	TotalMomo    float64     `json:"total_momo"`
	TotalEspeces float64     `json:"total_especes"`
	Total        float64     `json:"total"`
	ModePaiement string      `json:"mode_paiement"`
	Statut       string      `json:"statut"`
	ValidatedAt  string      `json:"validated_at"`
	CreatedAt    string      `json:"created_at"`
}

// Ack is the loosely typed payload of action endpoints (validate, resend,
// activate...). Only success matters to callers.
type Ack = json.RawMessage
