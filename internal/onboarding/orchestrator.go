// Package onboarding drives a user from login or signup to the dashboard:
// Login, Registration, EmailValidation, OfferSelection, Payment, then
// Dashboard, with an add-company branch for existing users. All steps are
// transitions of an explicit table; anything else fails with
// ErrIllegalTransition.
package onboarding

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ebrhq/backoffice/internal/backend"
	"github.com/ebrhq/backoffice/internal/session"
	"github.com/ebrhq/backoffice/internal/validate"
)

var (
	ErrIllegalTransition = errors.New("illegal transition")
	ErrGuardRejected     = errors.New("transition not allowed")
	ErrBusy              = errors.New("a request is already in progress")
	ErrSessionExpired    = errors.New("session expired")
	ErrNoOfferSelected   = errors.New("no offer selected")
	ErrUnknownOffer      = errors.New("unknown offer")
	ErrUnknownCompany    = errors.New("company not in session")
	ErrNoActiveCompany   = errors.New("no active company")
	ErrUnknownPayment    = errors.New("unknown payment type")
	ErrNoRegistration    = errors.New("no registration in progress")
)

// Messages shown alongside a state.
const (
	MsgFixFields       = "please correct the highlighted fields"
	MsgEmailValidated  = "email validated"
	MsgCodeResent      = "a new code has been sent to your email"
	MsgRegistrationEnd = "registration complete, you can now log in"
	MsgPaymentAccepted = "payment accepted"
)

// AuthService is the subset of backend.AuthAPI the flow needs.
type AuthService interface {
	Login(ctx context.Context, in backend.LoginRequest) (*backend.LoginResponse, error)
	Register(ctx context.Context, in backend.RegistrationRequest) (*backend.User, error)
	ValidateEmail(ctx context.Context, code string) error
	ResendValidationCode(ctx context.Context, userID int64) error
}

type OfferService interface {
	List(ctx context.Context) ([]backend.Offer, error)
}

type CompanyService interface {
	Create(ctx context.Context, token string, in backend.CreateCompanyRequest) (*backend.Company, error)
}

// Recorder receives one entry per transition and per failed attempt. It is
// called with the orchestrator locked and must not block.
type Recorder interface {
	RecordTransition(sessionID, from, to, event, errMsg string, at time.Time)
}

// Observer receives flow metrics.
type Observer interface {
	ObserveTransition(from, to, event string)
	ObserveValidationFailure(form string)
}

// Deps is everything the orchestrator talks to. Auth, Offers, Companies
// and Sessions are required.
type Deps struct {
	Auth      AuthService
	Offers    OfferService
	Companies CompanyService
	Sessions  *session.Store
	Now       func() time.Time
	Journal   Recorder
	Metrics   Observer
	Logger    *slog.Logger
	// SessionID labels journal entries (browser session or "cli").
	SessionID string
	// StrictCompany requires phone and email on the add-company form.
	StrictCompany bool
}

// Draft is the registration retained between signup and payment.
type Draft struct {
	Form   validate.RegistrationForm
	UserID int64
}

// paymentStep exists only while in StatePayment.
type paymentStep struct {
	offer Offer
}

// Scope is what a dashboard page needs to call the upstream.
type Scope struct {
	Token   string
	User    session.User
	Company session.Company
}

// Orchestrator holds one user's onboarding state. It is safe for concurrent
// use; only one network-backed step runs at a time.
type Orchestrator struct {
	deps Deps

	mu    sync.Mutex
	state State
	busy  bool

	errMsg      string
	fieldErrors map[string]string
	notice      string

	session *session.Session
	active  int64

	draft          *Draft
	offers         []Offer
	selected       *Offer
	payment        *paymentStep
	addCompanyFlow bool
	pendingCompany int64
	autoAttempted  bool
}

// New returns an orchestrator in StateLoggedOut.
func New(deps Deps) *Orchestrator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Orchestrator{deps: deps, state: StateLoggedOut}
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Message converts err into the single line shown to the user.
func Message(err error) string {
	var be *backend.Error
	var ve *validate.Errors
	switch {
	case err == nil:
		return ""
	case errors.As(err, &be):
		return be.Detail
	case errors.As(err, &ve):
		return MsgFixFields
	case errors.Is(err, ErrSessionExpired):
		return ""
	case errors.Is(err, ErrNoOfferSelected), errors.Is(err, ErrUnknownOffer),
		errors.Is(err, ErrUnknownCompany), errors.Is(err, ErrUnknownPayment):
		return err.Error()
	default:
		return backend.MsgUnexpected
	}
}

// fire moves to the target of ev. Caller holds mu.
func (o *Orchestrator) fire(ev Event) error {
	to, err := o.target(ev)
	if err != nil {
		return err
	}
	from := o.state
	o.state = to
	o.enter(from, to)
	o.record(ev, from, to, "")
	if o.deps.Metrics != nil {
		o.deps.Metrics.ObserveTransition(string(from), string(to), string(ev))
	}
	o.deps.Logger.Debug("onboarding transition",
		"session", o.deps.SessionID, "from", from, "to", to, "event", ev)
	return nil
}

// enter applies the data lifecycle of the destination state.
func (o *Orchestrator) enter(from, to State) {
	switch to {
	case StateLoggedOut:
		o.session = nil
		o.active = 0
		o.resetFlow()
	case StateRegistering:
		o.draft = nil
	case StateEmailValidation:
		if from != to {
			o.autoAttempted = false
		}
	case StateOfferSelection:
		o.payment = nil
		if from != StatePayment && from != StateOfferSelection {
			o.offers = nil
			o.selected = nil
		}
	case StatePayment:
		o.payment = &paymentStep{offer: *o.selected}
	case StateDashboard:
		o.resetFlow()
	}
}

func (o *Orchestrator) resetFlow() {
	o.draft = nil
	o.offers = nil
	o.selected = nil
	o.payment = nil
	o.addCompanyFlow = false
	o.pendingCompany = 0
	o.autoAttempted = false
}

func (o *Orchestrator) record(ev Event, from, to State, errMsg string) {
	if o.deps.Journal == nil {
		return
	}
	o.deps.Journal.RecordTransition(o.deps.SessionID, string(from), string(to), string(ev), errMsg, o.deps.Now())
}

func (o *Orchestrator) clearMessages() {
	o.errMsg = ""
	o.fieldErrors = nil
	o.notice = ""
}

// begin reserves the orchestrator for a network-backed step. check runs
// under the lock; a validation failure is recorded against form and never
// reaches the network.
func (o *Orchestrator) begin(ev Event, form string, check func() error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return ErrBusy
	}
	if !o.permitted(ev) {
		_, err := o.target(ev)
		return err
	}
	o.clearMessages()
	if check != nil {
		if err := check(); err != nil {
			if form != "" && o.deps.Metrics != nil && errors.Is(err, validate.ErrInvalid) {
				o.deps.Metrics.ObserveValidationFailure(form)
			}
			return o.fail(ev, err)
		}
	}
	o.busy = true
	return nil
}

// end releases the reservation taken by begin and leaves mu held.
func (o *Orchestrator) end() {
	o.mu.Lock()
	o.busy = false
}

// fail stores the user-facing error. Caller holds mu.
func (o *Orchestrator) fail(ev Event, err error) error {
	o.errMsg = Message(err)
	if fe := validate.FieldErrors(err); fe != nil {
		o.fieldErrors = fe
	}
	o.record(ev, o.state, o.state, err.Error())
	return err
}

// step runs a local transition that needs no network call.
func (o *Orchestrator) step(ev Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return ErrBusy
	}
	o.clearMessages()
	return o.fire(ev)
}

// adopt installs a session and picks the active company: preferred when it
// belongs to the list, else the first one. Caller holds mu.
func (o *Orchestrator) adopt(sess *session.Session, preferred int64) {
	o.session = sess
	o.active = pickActive(sess, preferred)
}

func pickActive(sess *session.Session, preferred int64) int64 {
	if _, ok := sess.Company(preferred); ok && preferred != 0 {
		return preferred
	}
	if len(sess.Companies) > 0 {
		return sess.Companies[0].ID
	}
	return 0
}

func sessionFromLogin(resp *backend.LoginResponse) *session.Session {
	companies := resp.Entreprises
	if companies == nil {
		companies = []session.Company{}
	}
	return &session.Session{
		AccessToken: resp.AccessToken,
		User:        resp.User,
		Companies:   companies,
	}
}

// establish logs in and persists the resulting session with its active
// company.
func (o *Orchestrator) establish(ctx context.Context, email, password string) (*session.Session, int64, error) {
	resp, err := o.deps.Auth.Login(ctx, backend.LoginRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	})
	if err != nil {
		return nil, 0, err
	}
	sess := sessionFromLogin(resp)
	active := pickActive(sess, 0)
	if err := o.deps.Sessions.Save(ctx, sess); err != nil {
		return nil, 0, err
	}
	if active != 0 {
		if err := o.deps.Sessions.SetActiveCompany(ctx, active); err != nil {
			return nil, 0, err
		}
	}
	return sess, active, nil
}

// Resume restores a persisted session. It stays logged out when none is
// stored or the token has expired.
func (o *Orchestrator) Resume(ctx context.Context) error {
	if err := o.begin(EventResume, "", nil); err != nil {
		return err
	}
	sess, active, err := o.loadLive(ctx)

	o.end()
	defer o.mu.Unlock()
	if err != nil {
		return o.fail(EventResume, err)
	}
	if sess == nil {
		return nil
	}
	o.adopt(sess, active)
	return o.fire(EventResume)
}

// loadLive returns the stored session when present and unexpired. Stale or
// corrupt data is cleared.
func (o *Orchestrator) loadLive(ctx context.Context) (*session.Session, int64, error) {
	sess, err := o.deps.Sessions.Load(ctx)
	if errors.Is(err, session.ErrCorrupt) {
		o.deps.Logger.Warn("discarding corrupt session", "session", o.deps.SessionID, "error", err)
		return nil, 0, o.deps.Sessions.Clear(ctx)
	}
	if err != nil || sess == nil {
		return nil, 0, err
	}
	if session.TokenExpired(sess.AccessToken, o.deps.Now()) {
		return nil, 0, o.deps.Sessions.Clear(ctx)
	}
	active, _, err := o.deps.Sessions.ActiveCompany(ctx)
	if err != nil && !errors.Is(err, session.ErrCorrupt) {
		return nil, 0, err
	}
	return sess, active, nil
}

// Login authenticates and lands on the dashboard with the first company
// active.
func (o *Orchestrator) Login(ctx context.Context, form validate.LoginForm) error {
	if err := o.begin(EventLogin, "login", func() error { return validate.Login(form) }); err != nil {
		return err
	}
	sess, active, err := o.establish(ctx, form.Email, form.Password)

	o.end()
	defer o.mu.Unlock()
	if err != nil {
		return o.fail(EventLogin, err)
	}
	o.adopt(sess, active)
	return o.fire(EventLogin)
}

// StartRegistration opens the signup form.
func (o *Orchestrator) StartRegistration() error {
	return o.step(EventStartRegistration)
}

// BackToLogin abandons the signup and discards the draft.
func (o *Orchestrator) BackToLogin() error {
	return o.step(EventBackToLogin)
}

// SubmitRegistration creates the owner account and company, then waits for
// the emailed code.
func (o *Orchestrator) SubmitRegistration(ctx context.Context, form validate.RegistrationForm) error {
	check := func() error { return validate.Registration(form) }
	if err := o.begin(EventSubmitRegistration, "registration", check); err != nil {
		return err
	}
	if c, ok := validate.CanonicalCountry(form.Country); ok {
		form.Country = c
	}
	user, err := o.deps.Auth.Register(ctx, backend.RegistrationRequest{
		RaisonSociale:          strings.TrimSpace(form.RaisonSociale),
		Telephone:              strings.TrimSpace(form.Telephone),
		Email:                  strings.TrimSpace(form.Email),
		SiteWeb:                strings.TrimSpace(form.SiteWeb),
		NumeroIFU:              strings.TrimSpace(form.NumeroIFU),
		NumeroRegistreCommerce: strings.TrimSpace(form.NumeroRegistreCommerce),
		Username:               strings.TrimSpace(form.Username),
		Firstname:              strings.TrimSpace(form.Firstname),
		Lastname:               strings.TrimSpace(form.Lastname),
		Password:               form.Password,
	})

	o.end()
	defer o.mu.Unlock()
	if err != nil {
		return o.fail(EventSubmitRegistration, err)
	}
	if err := o.fire(EventSubmitRegistration); err != nil {
		return err
	}
	o.draft = &Draft{Form: form, UserID: user.ID}
	return nil
}

// ValidateEmail submits the emailed code.
func (o *Orchestrator) ValidateEmail(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	check := func() error {
		v := &validate.Validator{}
		return v.Required("validation_code", code).Err()
	}
	if err := o.begin(EventValidateEmail, "email_validation", check); err != nil {
		return err
	}
	err := o.deps.Auth.ValidateEmail(ctx, code)

	o.end()
	defer o.mu.Unlock()
	if err != nil {
		return o.fail(EventValidateEmail, err)
	}
	if err := o.fire(EventValidateEmail); err != nil {
		return err
	}
	o.notice = MsgEmailValidated
	return nil
}

// AutoValidate submits a code carried by the confirmation link. It runs at
// most once per entry into EmailValidation and reports whether it ran.
// The code is read from validation_code, then code; user_id, when present,
// targets later resend requests.
func (o *Orchestrator) AutoValidate(ctx context.Context, q url.Values) (bool, error) {
	code := strings.TrimSpace(q.Get("validation_code"))
	if code == "" {
		code = strings.TrimSpace(q.Get("code"))
	}
	if code == "" {
		return false, nil
	}

	o.mu.Lock()
	if !o.permitted(EventValidateEmail) {
		_, err := o.target(EventValidateEmail)
		o.mu.Unlock()
		return false, err
	}
	if o.autoAttempted {
		o.mu.Unlock()
		return false, nil
	}
	o.autoAttempted = true
	if id, err := strconv.ParseInt(q.Get("user_id"), 10, 64); err == nil && id > 0 {
		if o.draft == nil {
			o.draft = &Draft{}
		}
		o.draft.UserID = id
	}
	o.mu.Unlock()

	return true, o.ValidateEmail(ctx, code)
}

// ResendCode asks the upstream for a new code. The state is unchanged.
func (o *Orchestrator) ResendCode(ctx context.Context) error {
	if err := o.begin(EventResendCode, "", nil); err != nil {
		return err
	}
	var userID int64
	if o.draft != nil {
		userID = o.draft.UserID
	}
	err := o.deps.Auth.ResendValidationCode(ctx, userID)

	o.end()
	defer o.mu.Unlock()
	if err != nil {
		return o.fail(EventResendCode, err)
	}
	if err := o.fire(EventResendCode); err != nil {
		return err
	}
	o.notice = MsgCodeResent
	return nil
}

// LoadOffers fetches the tiers. A previous selection survives when the
// offer is still listed.
func (o *Orchestrator) LoadOffers(ctx context.Context) ([]Offer, error) {
	if err := o.begin(EventLoadOffers, "", nil); err != nil {
		return nil, err
	}
	list, err := o.deps.Offers.List(ctx)

	o.end()
	defer o.mu.Unlock()
	if err != nil {
		return nil, o.fail(EventLoadOffers, err)
	}
	offers := make([]Offer, 0, len(list))
	for _, b := range list {
		offers = append(offers, OfferFromBackend(b))
	}
	if err := o.fire(EventLoadOffers); err != nil {
		return nil, err
	}
	o.offers = offers
	if o.selected != nil && findOffer(offers, o.selected.ID) == nil {
		o.selected = nil
	}
	return append([]Offer(nil), offers...), nil
}

func findOffer(offers []Offer, id string) *Offer {
	for i := range offers {
		if offers[i].ID == id {
			o := offers[i]
			return &o
		}
	}
	return nil
}

// SelectOffer marks one of the loaded offers.
func (o *Orchestrator) SelectOffer(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return ErrBusy
	}
	if !o.permitted(EventSelectOffer) {
		_, err := o.target(EventSelectOffer)
		return err
	}
	o.clearMessages()
	offer := findOffer(o.offers, id)
	if offer == nil {
		return o.fail(EventSelectOffer, ErrUnknownOffer)
	}
	o.selected = offer
	return o.fire(EventSelectOffer)
}

// loadBranch reads the add-company flag and, on that branch, consumes the
// just-added marker and makes that company active.
func (o *Orchestrator) loadBranch(ctx context.Context) (fromAdd bool, newID int64, err error) {
	fromAdd, err = o.deps.Sessions.TakeFromAddCompany(ctx)
	if err != nil || !fromAdd {
		return fromAdd, 0, err
	}
	id, ok, err := o.deps.Sessions.TakeJustAdded(ctx)
	if err != nil || !ok {
		return true, 0, err
	}
	if err := o.deps.Sessions.SetActiveCompany(ctx, id); err != nil {
		return true, 0, err
	}
	return true, id, nil
}

// finishBranch applies the add-company outcome. Caller holds mu.
func (o *Orchestrator) finishBranch(fromAdd bool, newID int64) {
	o.addCompanyFlow = fromAdd
	if fromAdd && newID != 0 && o.session != nil {
		if _, ok := o.session.Company(newID); ok {
			o.active = newID
		}
	}
}

// Continue proceeds with the selected offer: to Payment for a new
// registration, to the dashboard with the new company active otherwise.
func (o *Orchestrator) Continue(ctx context.Context) error {
	check := func() error {
		if o.selected == nil {
			return ErrNoOfferSelected
		}
		return nil
	}
	if err := o.begin(EventContinue, "", check); err != nil {
		return err
	}
	fromAdd, newID, err := o.loadBranch(ctx)

	o.end()
	defer o.mu.Unlock()
	if err != nil {
		return o.fail(EventContinue, err)
	}
	o.finishBranch(fromAdd, newID)
	return o.fire(EventContinue)
}

// ChooseLater skips the offer step: back to login for a new user, to the
// dashboard with the new company active for an existing one.
func (o *Orchestrator) ChooseLater(ctx context.Context) error {
	if err := o.begin(EventChooseLater, "", nil); err != nil {
		return err
	}
	fromAdd, newID, err := o.loadBranch(ctx)

	o.end()
	defer o.mu.Unlock()
	if err != nil {
		return o.fail(EventChooseLater, err)
	}
	o.finishBranch(fromAdd, newID)
	if err := o.fire(EventChooseLater); err != nil {
		return err
	}
	if !fromAdd {
		o.notice = MsgRegistrationEnd
	}
	return nil
}

// ClosePayment dismisses the payment step and keeps the selected offer.
func (o *Orchestrator) ClosePayment() error {
	return o.step(EventClosePayment)
}

// SubmitPayment validates p, then completes the registration by logging
// in with the draft credentials. Payment details are never stored. When
// that login fails the flow ends logged out with the upstream error.
func (o *Orchestrator) SubmitPayment(ctx context.Context, p Payment) error {
	var offer Offer
	var draft Draft
	check := func() error {
		if _, err := checkPayment(p); err != nil {
			return err
		}
		if o.draft == nil {
			return ErrNoRegistration
		}
		offer, draft = o.payment.offer, *o.draft
		return nil
	}
	if err := o.begin(EventSubmitPayment, Method(p), check); err != nil {
		return err
	}
	o.deps.Logger.Info("payment submitted",
		"session", o.deps.SessionID, "offer", offer.ID, "method", Method(p))
	sess, active, err := o.establish(ctx, draft.Form.Email, draft.Form.Password)

	o.end()
	defer o.mu.Unlock()
	if err != nil {
		msg := Message(err)
		o.record(EventSubmitPayment, o.state, o.state, err.Error())
		if ferr := o.fire(EventCompletionFailed); ferr != nil {
			return ferr
		}
		o.errMsg = msg
		return err
	}
	o.adopt(sess, active)
	if err := o.fire(EventSubmitPayment); err != nil {
		return err
	}
	o.notice = MsgPaymentAccepted
	return nil
}

// liveSession returns the session when present and unexpired, forcing the
// flow back to logged out otherwise.
func (o *Orchestrator) liveSession(ctx context.Context) (*session.Session, error) {
	o.mu.Lock()
	sess := o.session
	o.mu.Unlock()
	if sess != nil && !session.TokenExpired(sess.AccessToken, o.deps.Now()) {
		return sess, nil
	}
	return nil, o.Expire(ctx)
}

// Expire clears the persisted session and returns to StateLoggedOut. It
// always returns ErrSessionExpired, or the store error.
func (o *Orchestrator) Expire(ctx context.Context) error {
	if err := o.deps.Sessions.Clear(ctx); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.permitted(EventSessionExpired) {
		if err := o.fire(EventSessionExpired); err != nil {
			return err
		}
	}
	o.session = nil
	o.active = 0
	return ErrSessionExpired
}

// RequireSession returns the scope for a dashboard page.
func (o *Orchestrator) RequireSession(ctx context.Context) (Scope, error) {
	sess, err := o.liveSession(ctx)
	if err != nil {
		return Scope{}, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := sess.Company(o.active)
	if !ok {
		return Scope{}, ErrNoActiveCompany
	}
	return Scope{Token: sess.AccessToken, User: sess.User, Company: c}, nil
}

// StartAddCompany opens the add-company form.
func (o *Orchestrator) StartAddCompany(ctx context.Context) error {
	if _, err := o.liveSession(ctx); err != nil {
		return err
	}
	return o.step(EventStartAddCompany)
}

// CancelAddCompany returns to the dashboard.
func (o *Orchestrator) CancelAddCompany() error {
	return o.step(EventCancelAddCompany)
}

// SubmitCompany creates a company, appends it to the session list and moves
// to offer selection. The new company becomes active once the offer step
// completes.
func (o *Orchestrator) SubmitCompany(ctx context.Context, form validate.CompanyForm) error {
	sess, err := o.liveSession(ctx)
	if err != nil {
		return err
	}
	check := func() error { return validate.Company(form, o.deps.StrictCompany) }
	if err := o.begin(EventSubmitCompany, "company", check); err != nil {
		return err
	}

	email := strings.TrimSpace(form.Email)
	if email == "" {
		email = sess.User.Email
	}
	created, err := o.deps.Companies.Create(ctx, sess.AccessToken, backend.CreateCompanyRequest{
		RaisonSociale:          strings.TrimSpace(form.RaisonSociale),
		Telephone:              strings.TrimSpace(form.Telephone),
		Email:                  email,
		SiteWeb:                strings.TrimSpace(form.SiteWeb),
		NumeroIFU:              strings.TrimSpace(form.NumeroIFU),
		NumeroRegistreCommerce: strings.TrimSpace(form.NumeroRegistreCommerce),
	})
	if backend.IsUnauthorized(err) {
		o.end()
		o.mu.Unlock()
		return o.Expire(ctx)
	}

	var companies []session.Company
	if err == nil {
		companies = make([]session.Company, 0, len(sess.Companies)+1)
		companies = append(companies, sess.Companies...)
		companies = append(companies, *created)
		err = o.persistAdded(ctx, companies, created.ID)
	}

	o.end()
	defer o.mu.Unlock()
	if err != nil {
		return o.fail(EventSubmitCompany, err)
	}
	o.session = &session.Session{
		AccessToken: sess.AccessToken,
		User:        sess.User,
		Companies:   companies,
	}
	if err := o.fire(EventSubmitCompany); err != nil {
		return err
	}
	o.addCompanyFlow = true
	o.pendingCompany = created.ID
	return nil
}

func (o *Orchestrator) persistAdded(ctx context.Context, companies []session.Company, id int64) error {
	if err := o.deps.Sessions.SaveCompanies(ctx, companies); err != nil {
		return err
	}
	if err := o.deps.Sessions.MarkJustAdded(ctx, id); err != nil {
		return err
	}
	return o.deps.Sessions.SetFromAddCompany(ctx)
}

// SwitchCompany makes another company of the session active. The list is
// neither refetched nor modified.
func (o *Orchestrator) SwitchCompany(ctx context.Context, id int64) error {
	sess, err := o.liveSession(ctx)
	if err != nil {
		return err
	}

	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return ErrBusy
	}
	if !o.permitted(EventSwitchCompany) {
		_, err := o.target(EventSwitchCompany)
		o.mu.Unlock()
		return err
	}
	o.clearMessages()
	if _, ok := sess.Company(id); !ok {
		err := o.fail(EventSwitchCompany, ErrUnknownCompany)
		o.mu.Unlock()
		return err
	}
	o.active = id
	err = o.fire(EventSwitchCompany)
	o.mu.Unlock()
	if err != nil {
		return err
	}
	return o.deps.Sessions.SetActiveCompany(ctx, id)
}

// Logout clears the session and every marker. Logging out while logged
// out only clears the store.
func (o *Orchestrator) Logout(ctx context.Context) error {
	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return ErrBusy
	}
	o.mu.Unlock()

	if err := o.deps.Sessions.Clear(ctx); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.clearMessages()
	if o.state == StateLoggedOut {
		return nil
	}
	return o.fire(EventLogout)
}

// ClearError drops the current error, as editing any field does.
func (o *Orchestrator) ClearError() {
	o.mu.Lock()
	o.errMsg = ""
	o.fieldErrors = nil
	o.mu.Unlock()
}
