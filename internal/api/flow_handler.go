package api

import (
	"net/http"
	"strconv"

	"github.com/ebrhq/backoffice/internal/console"
	"github.com/ebrhq/backoffice/internal/onboarding"
	"github.com/ebrhq/backoffice/internal/validate"
)

// flowHandler exposes the onboarding orchestrator of the session console.
// Every successful call answers with the current view.
type flowHandler struct {
	pool *console.Pool
}

func (h *flowHandler) respond(w http.ResponseWriter, c *console.Console, err error) {
	if err != nil {
		writeFailure(w, err, c.Flow.State())
		return
	}
	writeJSON(w, http.StatusOK, c.Flow.View())
}

// decode reads the body into v, answering 400 on malformed JSON.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := readJSON(r, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return false
	}
	return true
}

// State handles GET /api/v1/state.
func (h *flowHandler) State(w http.ResponseWriter, r *http.Request) {
	h.respond(w, ConsoleFromContext(r.Context()), nil)
}

// ClearError handles POST /api/v1/error/clear, sent when a field is edited.
func (h *flowHandler) ClearError(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	c.Flow.ClearError()
	h.respond(w, c, nil)
}

// Login handles POST /api/v1/login.
func (h *flowHandler) Login(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	var form validate.LoginForm
	if !decode(w, r, &form) {
		return
	}
	err := c.Flow.Login(r.Context(), form)
	if err == nil {
		auditLog(r, "login", "session", c.ID)
	}
	h.respond(w, c, err)
}

// Logout handles POST /api/v1/logout.
func (h *flowHandler) Logout(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	auditLog(r, "logout", "session", c.ID)
	err := c.Flow.Logout(r.Context())
	if err == nil {
		h.pool.Forget(c.ID)
	}
	h.respond(w, c, err)
}

// StartRegistration handles POST /api/v1/registration/start.
func (h *flowHandler) StartRegistration(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	h.respond(w, c, c.Flow.StartRegistration())
}

// SubmitRegistration handles POST /api/v1/registration.
func (h *flowHandler) SubmitRegistration(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	var form validate.RegistrationForm
	if !decode(w, r, &form) {
		return
	}
	err := c.Flow.SubmitRegistration(r.Context(), form)
	if err == nil {
		auditLog(r, "register", "user", form.Email, "raison_sociale", form.RaisonSociale)
	}
	h.respond(w, c, err)
}

// BackToLogin handles POST /api/v1/registration/back.
func (h *flowHandler) BackToLogin(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	h.respond(w, c, c.Flow.BackToLogin())
}

type codeRequest struct {
	Code string `json:"code"`
}

// ValidateEmail handles POST /api/v1/email/validate.
func (h *flowHandler) ValidateEmail(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	var req codeRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, c, c.Flow.ValidateEmail(r.Context(), req.Code))
}

// AutoValidate handles POST /api/v1/email/auto with the query string of the
// validation link.
func (h *flowHandler) AutoValidate(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	_, err := c.Flow.AutoValidate(r.Context(), r.URL.Query())
	h.respond(w, c, err)
}

// ResendCode handles POST /api/v1/email/resend.
func (h *flowHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	h.respond(w, c, c.Flow.ResendCode(r.Context()))
}

// LoadOffers handles GET /api/v1/offers.
func (h *flowHandler) LoadOffers(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	_, err := c.Flow.LoadOffers(r.Context())
	h.respond(w, c, err)
}

type selectOfferRequest struct {
	OfferID string `json:"offer_id"`
}

// SelectOffer handles POST /api/v1/offers/select.
func (h *flowHandler) SelectOffer(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	var req selectOfferRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, c, c.Flow.SelectOffer(req.OfferID))
}

// Continue handles POST /api/v1/offers/continue.
func (h *flowHandler) Continue(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	h.respond(w, c, c.Flow.Continue(r.Context()))
}

// ChooseLater handles POST /api/v1/offers/later.
func (h *flowHandler) ChooseLater(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	h.respond(w, c, c.Flow.ChooseLater(r.Context()))
}

// paymentRequest carries either payment form; Method picks one.
type paymentRequest struct {
	Method string `json:"method"`
	onboarding.CardPayment
	onboarding.MobileMoneyPayment
}

func (p paymentRequest) payment() onboarding.Payment {
	switch p.Method {
	case "card":
		return p.CardPayment
	case "mobile_money":
		return p.MobileMoneyPayment
	}
	return nil
}

// SubmitPayment handles POST /api/v1/payment.
func (h *flowHandler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	var req paymentRequest
	if !decode(w, r, &req) {
		return
	}
	err := c.Flow.SubmitPayment(r.Context(), req.payment())
	if err == nil {
		auditLog(r, "pay", "subscription", c.ID, "method", req.Method)
	}
	h.respond(w, c, err)
}

// ClosePayment handles POST /api/v1/payment/close.
func (h *flowHandler) ClosePayment(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	h.respond(w, c, c.Flow.ClosePayment())
}

// StartAddCompany handles POST /api/v1/companies/start.
func (h *flowHandler) StartAddCompany(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	h.respond(w, c, c.Flow.StartAddCompany(r.Context()))
}

// SubmitCompany handles POST /api/v1/companies.
func (h *flowHandler) SubmitCompany(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	var form validate.CompanyForm
	if !decode(w, r, &form) {
		return
	}
	err := c.Flow.SubmitCompany(r.Context(), form)
	if err == nil {
		auditLog(r, "create", "company", form.RaisonSociale)
	}
	h.respond(w, c, err)
}

// CancelAddCompany handles POST /api/v1/companies/cancel.
func (h *flowHandler) CancelAddCompany(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	h.respond(w, c, c.Flow.CancelAddCompany())
}

type switchCompanyRequest struct {
	CompanyID int64 `json:"company_id"`
}

// SwitchCompany handles POST /api/v1/companies/switch.
func (h *flowHandler) SwitchCompany(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	var req switchCompanyRequest
	if !decode(w, r, &req) {
		return
	}
	err := c.Flow.SwitchCompany(r.Context(), req.CompanyID)
	if err == nil {
		auditLog(r, "switch", "company", strconv.FormatInt(req.CompanyID, 10))
	}
	h.respond(w, c, err)
}
