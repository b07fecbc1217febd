package validate

import (
	"strconv"
	"strings"
)

// Password rules shared by the registration and employee forms.
const MinPasswordLen = 6

// Employee roles.
const (
	RoleManager = "gerant"
	RoleServer  = "serveur"
)

// Menu categories selectable for single menus.
const (
	CategoryDrinks = "boissons"
	CategoryMeals  = "repas"
)

// Mobile money providers.
var Providers = []string{"mtn", "moov", "orange"}

type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Login(f LoginForm) error {
	v := &Validator{}
	v.Required("email", f.Email).
		Required("password", f.Password)
	return v.Err()
}

// RegistrationForm holds the company and owner fields of the signup page.
type RegistrationForm struct {
	RaisonSociale          string `json:"raison_sociale"`
	Telephone              string `json:"telephone"`
	Email                  string `json:"email"`
	SiteWeb                string `json:"site_web"`
	NumeroIFU              string `json:"numero_ifu"`
	NumeroRegistreCommerce string `json:"numero_registre_commerce"`
	Username               string `json:"username"`
	Firstname              string `json:"firstname"`
	Lastname               string `json:"lastname"`
	Password               string `json:"password"`
	ConfirmPassword        string `json:"confirm_password"`
	Country                string `json:"country"`
}

func Registration(f RegistrationForm) error {
	v := &Validator{}
	v.Required("raison_sociale", f.RaisonSociale).
		Required("telephone", f.Telephone).
		Required("email", f.Email).
		Email("email", f.Email).
		Required("username", f.Username).
		Required("firstname", f.Firstname).
		Required("lastname", f.Lastname).
		Required("password", f.Password).
		MinLen("password", f.Password, MinPasswordLen).
		Equal("confirm_password", f.ConfirmPassword, f.Password, "passwords do not match").
		Required("country", f.Country)
	if !v.HasError("country") {
		_, ok := CanonicalCountry(f.Country)
		v.Custom("country", !ok, "unknown country")
	}
	return v.Err()
}

type CardForm struct {
	Number string `json:"card_number"`
	Holder string `json:"card_holder"`
	Expiry string `json:"expiry_date"`
	CVV    string `json:"cvv"`
}

func Card(f CardForm) error {
	v := &Validator{}
	compact := stripSpaces(f.Number)
	v.Custom("card_number", compact != digits(compact) || len(compact) != 16,
		"card number must have 16 digits")
	v.Required("card_holder", f.Holder)
	v.Custom("expiry_date", !validExpiry(f.Expiry), "expiry must be MM/YY")
	v.Custom("cvv", len(f.CVV) != 3 || digits(f.CVV) != f.CVV, "CVV must be 3 digits")
	return v.Err()
}

func validExpiry(s string) bool {
	if len(s) != 5 || s[2] != '/' {
		return false
	}
	mm, yy := s[:2], s[3:]
	if digits(mm) != mm || digits(yy) != yy {
		return false
	}
	m, _ := strconv.Atoi(mm)
	return m >= 1 && m <= 12
}

type MobileMoneyForm struct {
	Phone    string `json:"phone_number"`
	Provider string `json:"provider"`
}

func MobileMoney(f MobileMoneyForm) error {
	v := &Validator{}
	v.Custom("phone_number", len(digits(f.Phone)) < 8, "phone number must have at least 8 digits")
	v.OneOf("provider", f.Provider, Providers...)
	return v.Err()
}

// CompanyForm is the add-company form.
type CompanyForm struct {
	RaisonSociale          string `json:"raison_sociale"`
	Telephone              string `json:"telephone"`
	Email                  string `json:"email"`
	SiteWeb                string `json:"site_web"`
	NumeroIFU              string `json:"numero_ifu"`
	NumeroRegistreCommerce string `json:"numero_registre_commerce"`
}

// Company requires the name; strict mode also requires phone and a
// well-formed email.
func Company(f CompanyForm, strict bool) error {
	v := &Validator{}
	v.Required("raison_sociale", f.RaisonSociale)
	if strict {
		v.Required("telephone", f.Telephone).
			Required("email", f.Email)
	}
	v.Email("email", f.Email)
	return v.Err()
}

type EmployeeForm struct {
	Name            string `json:"name"`
	Role            string `json:"role"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Employee validates a new employee. An empty role means serveur.
func Employee(f EmployeeForm) error {
	role := f.Role
	if role == "" {
		role = RoleServer
	}
	v := &Validator{}
	v.Required("name", f.Name).
		OneOf("role", role, RoleManager, RoleServer).
		Email("email", f.Email).
		Required("password", f.Password).
		MinLen("password", f.Password, MinPasswordLen).
		Equal("confirm_password", f.ConfirmPassword, f.Password, "passwords do not match")
	return v.Err()
}

type MenuForm struct {
	Name        string  `json:"nom"`
	Price       float64 `json:"prix"`
	Category    string  `json:"categorie"`
	Description string  `json:"description"`
}

func Menu(f MenuForm) error {
	v := &Validator{}
	v.Required("nom", f.Name).
		Positive("prix", f.Price).
		Required("categorie", f.Category)
	if !v.HasError("categorie") {
		v.OneOf("categorie", f.Category, CategoryDrinks, CategoryMeals)
	}
	return v.Err()
}

type PackForm struct {
	Name        string  `json:"nom"`
	Price       float64 `json:"prix"`
	Description string  `json:"description"`
	MenuIDs     []int64 `json:"menus"`
}

func Pack(f PackForm) error {
	v := &Validator{}
	v.Required("nom", f.Name).
		Positive("prix", f.Price).
		Custom("menus", len(f.MenuIDs) == 0, "select at least one menu")
	return v.Err()
}

type TableForm struct {
	Name  string `json:"nom"`
	Order int    `json:"ordre"`
}

func Table(f TableForm) error {
	v := &Validator{}
	v.Required("nom", strings.TrimSpace(f.Name)).
		Custom("ordre", f.Order <= 0, "must be greater than 0")
	return v.Err()
}
