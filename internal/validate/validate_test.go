package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration() RegistrationForm {
	return RegistrationForm{
		RaisonSociale:   "Le Maquis",
		Telephone:       "+229 97 00 00 00",
		Email:           "owner@maquis.bj",
		Username:        "ami",
		Firstname:       "Ami",
		Lastname:        "Kossou",
		Password:        "secret123",
		ConfirmPassword: "secret123",
		Country:         "Bénin",
	}
}

func TestValidatorChain(t *testing.T) {
	v := &Validator{}
	v.Required("a", " ").MinLen("b", "abc", 5).OneOf("c", "x", "y", "z")
	err := v.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))

	fields := FieldErrors(err)
	assert.Len(t, fields, 3)
	assert.Equal(t, "this field is required", fields["a"])
	assert.Contains(t, err.Error(), "b: must be at least 5 characters")
}

func TestValidatorPassing(t *testing.T) {
	v := &Validator{}
	assert.NoError(t, v.Required("a", "x").Email("e", "a@b.co").Err())
	assert.Nil(t, FieldErrors(errors.New("other")))
}

func TestFieldsKeepsFirstMessage(t *testing.T) {
	v := &Validator{}
	v.Custom("f", true, "first").Custom("f", true, "second")
	var ve *Errors
	require.ErrorAs(t, v.Err(), &ve)
	assert.Equal(t, "first", ve.Fields()["f"])
	assert.Len(t, ve.List(), 2)
}

func TestRegistration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegistrationForm)
		field  string
	}{
		{"empty raison sociale", func(f *RegistrationForm) { f.RaisonSociale = "" }, "raison_sociale"},
		{"empty phone", func(f *RegistrationForm) { f.Telephone = "" }, "telephone"},
		{"bad email", func(f *RegistrationForm) { f.Email = "owner@maquis" }, "email"},
		{"empty username", func(f *RegistrationForm) { f.Username = "" }, "username"},
		{"empty firstname", func(f *RegistrationForm) { f.Firstname = "" }, "firstname"},
		{"empty lastname", func(f *RegistrationForm) { f.Lastname = "" }, "lastname"},
		{"short password", func(f *RegistrationForm) { f.Password, f.ConfirmPassword = "abc", "abc" }, "password"},
		{"mismatch", func(f *RegistrationForm) { f.ConfirmPassword = "secret124" }, "confirm_password"},
		{"no country", func(f *RegistrationForm) { f.Country = "" }, "country"},
		{"unknown country", func(f *RegistrationForm) { f.Country = "Atlantis" }, "country"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validRegistration()
			tt.mutate(&f)
			err := Registration(f)
			require.Error(t, err)
			assert.Contains(t, FieldErrors(err), tt.field)
		})
	}

	assert.NoError(t, Registration(validRegistration()))
}

func TestRegistrationEmptyFormReportsEveryField(t *testing.T) {
	fields := FieldErrors(Registration(RegistrationForm{}))
	for _, f := range []string{"raison_sociale", "telephone", "email", "username", "firstname", "lastname", "password", "country"} {
		assert.Contains(t, fields, f)
	}
	assert.NotContains(t, fields, "confirm_password")
}

func TestCanonicalCountry(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Bénin", "Bénin", true},
		{"Be\u0301nin", "Bénin", true},
		{"  côte d’ivoire ", "Côte d'Ivoire", true},
		{"ÉTATS-UNIS", "États-Unis", true},
		{"Benin", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := CanonicalCountry(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Len(t, Countries, 13)
}

func TestLogin(t *testing.T) {
	assert.NoError(t, Login(LoginForm{Email: "a@b.com", Password: "secret123"}))
	fields := FieldErrors(Login(LoginForm{}))
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestCard(t *testing.T) {
	valid := CardForm{Number: "4111 1111 1111 1111", Holder: "AMI KOSSOU", Expiry: "12/27", CVV: "123"}
	assert.NoError(t, Card(valid))

	tests := []struct {
		name   string
		mutate func(*CardForm)
		field  string
	}{
		{"short number", func(f *CardForm) { f.Number = "4111 1111 1111 111" }, "card_number"},
		{"letters", func(f *CardForm) { f.Number = "4111 1111 1111 111a" }, "card_number"},
		{"20 digits", func(f *CardForm) { f.Number = "41111111111111112222" }, "card_number"},
		{"24 chars spaced", func(f *CardForm) { f.Number = "4111 1111 1111 1111 2222" }, "card_number"},
		{"17 digits", func(f *CardForm) { f.Number = "4111 1111 1111 1111 9" }, "card_number"},
		{"no holder", func(f *CardForm) { f.Holder = " " }, "card_holder"},
		{"short expiry", func(f *CardForm) { f.Expiry = "12/2" }, "expiry_date"},
		{"month 13", func(f *CardForm) { f.Expiry = "13/27" }, "expiry_date"},
		{"month 00", func(f *CardForm) { f.Expiry = "00/27" }, "expiry_date"},
		{"no slash", func(f *CardForm) { f.Expiry = "12-27" }, "expiry_date"},
		{"cvv 2", func(f *CardForm) { f.CVV = "12" }, "cvv"},
		{"cvv 4", func(f *CardForm) { f.CVV = "1234" }, "cvv"},
		{"cvv letters", func(f *CardForm) { f.CVV = "12a" }, "cvv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			assert.Contains(t, FieldErrors(Card(f)), tt.field)
		})
	}
}

func TestCardNumberLengths(t *testing.T) {
	// Formatted inputs between 16 and 19 characters all carry 16 digits.
	for _, in := range []string{"4111111111111111", "4111 111111111111", "4111 1111 1111 1111"} {
		assert.NoError(t, Card(CardForm{Number: in, Holder: "X", Expiry: "01/30", CVV: "000"}), in)
	}
	// The input mask drops anything past the sixteenth digit.
	masked := FormatCardNumber("4111 1111 1111 1111 99")
	assert.NoError(t, Card(CardForm{Number: masked, Holder: "X", Expiry: "01/30", CVV: "000"}))
}

func TestMobileMoney(t *testing.T) {
	assert.NoError(t, MobileMoney(MobileMoneyForm{Phone: "97 00 00 00", Provider: "mtn"}))
	assert.NoError(t, MobileMoney(MobileMoneyForm{Phone: "66000000", Provider: "orange"}))

	fields := FieldErrors(MobileMoney(MobileMoneyForm{Phone: "9700000", Provider: "wave"}))
	assert.Contains(t, fields, "phone_number")
	assert.Contains(t, fields, "provider")
}

func TestCompany(t *testing.T) {
	assert.NoError(t, Company(CompanyForm{RaisonSociale: "Cafe X"}, false))
	assert.Contains(t, FieldErrors(Company(CompanyForm{}, false)), "raison_sociale")

	fields := FieldErrors(Company(CompanyForm{RaisonSociale: "Cafe X"}, true))
	assert.Contains(t, fields, "telephone")
	assert.Contains(t, fields, "email")

	assert.NoError(t, Company(CompanyForm{RaisonSociale: "Cafe X", Telephone: "1", Email: "x@cafe.bj"}, true))
	assert.Contains(t, FieldErrors(Company(CompanyForm{RaisonSociale: "Cafe X", Email: "nope"}, false)), "email")
}

func TestEmployee(t *testing.T) {
	valid := EmployeeForm{Name: "Chantale EBOU", Password: "secret", ConfirmPassword: "secret"}
	assert.NoError(t, Employee(valid))

	manager := valid
	manager.Role = RoleManager
	assert.NoError(t, Employee(manager))

	bad := valid
	bad.Role = "chef"
	bad.ConfirmPassword = "other"
	fields := FieldErrors(Employee(bad))
	assert.Contains(t, fields, "role")
	assert.Contains(t, fields, "confirm_password")

	assert.Contains(t, FieldErrors(Employee(EmployeeForm{Name: "X", Password: "12345", ConfirmPassword: "12345"})), "password")
}

func TestMenuPackTable(t *testing.T) {
	assert.NoError(t, Menu(MenuForm{Name: "Flag", Price: 800, Category: CategoryDrinks}))
	fields := FieldErrors(Menu(MenuForm{Name: "", Price: 0, Category: "pack"}))
	assert.Contains(t, fields, "nom")
	assert.Contains(t, fields, "prix")
	assert.Contains(t, fields, "categorie")

	assert.NoError(t, Pack(PackForm{Name: "Midi", Price: 3500, MenuIDs: []int64{1}}))
	assert.Contains(t, FieldErrors(Pack(PackForm{Name: "Midi", Price: 3500})), "menus")

	assert.NoError(t, Table(TableForm{Name: "table 1", Order: 1}))
	fields = FieldErrors(Table(TableForm{Name: " ", Order: 0}))
	assert.Contains(t, fields, "nom")
	assert.Contains(t, fields, "ordre")
}

func TestFormatters(t *testing.T) {
	tests := []struct {
		fn   func(string) string
		in   string
		want string
	}{
		{FormatCardNumber, "4111111111111111", "4111 1111 1111 1111"},
		{FormatCardNumber, "41111", "4111 1"},
		{FormatCardNumber, "4111 1111 1111 1111 2222", "4111 1111 1111 1111"},
		{FormatCardNumber, "", ""},
		{FormatExpiry, "1227", "12/27"},
		{FormatExpiry, "12", "12"},
		{FormatExpiry, "12/27", "12/27"},
		{FormatExpiry, "122799", "12/27"},
		{FormatCVV, "12a34", "123"},
		{FormatCVV, "9", "9"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.fn(tt.in), tt.in)
	}
}

func TestNames(t *testing.T) {
	first, last := SplitName("  Chantale   EBOU  Mensah ")
	assert.Equal(t, "Chantale", first)
	assert.Equal(t, "EBOU Mensah", last)

	first, last = SplitName("Jean")
	assert.Equal(t, "Jean", first)
	assert.Empty(t, last)

	assert.Equal(t, "chantale.ebou", Username("Chantale ÉBOU"))
	assert.Equal(t, "jean.koup.2", Username("Jean-Koup 2"))
	assert.Equal(t, "", Username("  "))
}
