package onboarding

import (
	"maps"

	"github.com/ebrhq/backoffice/internal/session"
)

// RegistrationView is the non-secret part of the registration draft.
type RegistrationView struct {
	Email         string `json:"email"`
	RaisonSociale string `json:"raison_sociale"`
	UserID        int64  `json:"user_id,omitempty"`
}

// View is a snapshot of the orchestrator for rendering.
type View struct {
	State          State             `json:"state"`
	Busy           bool              `json:"busy"`
	Error          string            `json:"error,omitempty"`
	FieldErrors    map[string]string `json:"field_errors,omitempty"`
	Notice         string            `json:"notice,omitempty"`
	User           *session.User     `json:"user,omitempty"`
	Companies      []session.Company `json:"companies,omitempty"`
	ActiveCompany  *session.Company  `json:"active_company,omitempty"`
	Registration   *RegistrationView `json:"registration,omitempty"`
	Offers         []Offer           `json:"offers,omitempty"`
	SelectedOffer  *Offer            `json:"selected_offer,omitempty"`
	PaymentOffer   *Offer            `json:"payment_offer,omitempty"`
	FromAddCompany bool              `json:"from_add_company,omitempty"`
	PendingCompany *session.Company  `json:"pending_company,omitempty"`
}

// View returns a copy of the current state safe to hand out.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()

	v := View{
		State:          o.state,
		Busy:           o.busy,
		Error:          o.errMsg,
		FieldErrors:    maps.Clone(o.fieldErrors),
		Notice:         o.notice,
		FromAddCompany: o.addCompanyFlow,
	}
	if o.session != nil {
		u := o.session.User
		v.User = &u
		v.Companies = append([]session.Company{}, o.session.Companies...)
		if c, ok := o.session.Company(o.active); ok {
			v.ActiveCompany = &c
		}
		if c, ok := o.session.Company(o.pendingCompany); ok && o.pendingCompany != 0 {
			v.PendingCompany = &c
		}
	}
	if o.draft != nil {
		v.Registration = &RegistrationView{
			Email:         o.draft.Form.Email,
			RaisonSociale: o.draft.Form.RaisonSociale,
			UserID:        o.draft.UserID,
		}
	}
	if o.offers != nil {
		v.Offers = append([]Offer{}, o.offers...)
	}
	if o.selected != nil {
		s := *o.selected
		v.SelectedOffer = &s
	}
	if o.payment != nil {
		p := o.payment.offer
		v.PaymentOffer = &p
	}
	return v
}
