package onboarding

import "fmt"

// State is a step of the onboarding flow.
type State string

const (
	StateLoggedOut       State = "logged_out"
	StateRegistering     State = "registering"
	StateEmailValidation State = "email_validation"
	StateOfferSelection  State = "offer_selection"
	StatePayment         State = "payment"
	StateDashboard       State = "dashboard"
	StateAddingCompany   State = "adding_company"
)

// Protected reports whether the state needs a live session. OfferSelection
// is protected only on the add-company branch, which the orchestrator
// checks separately.
func (s State) Protected() bool {
	return s == StateDashboard || s == StateAddingCompany
}

// Event triggers a transition.
type Event string

const (
	EventResume             Event = "resume"
	EventLogin              Event = "login"
	EventStartRegistration  Event = "start_registration"
	EventBackToLogin        Event = "back_to_login"
	EventSubmitRegistration Event = "submit_registration"
	EventValidateEmail      Event = "validate_email"
	EventResendCode         Event = "resend_code"
	EventLoadOffers         Event = "load_offers"
	EventSelectOffer        Event = "select_offer"
	EventContinue           Event = "continue"
	EventChooseLater        Event = "choose_later"
	EventClosePayment       Event = "close_payment"
	EventSubmitPayment      Event = "submit_payment"
	EventCompletionFailed   Event = "completion_failed"
	EventStartAddCompany    Event = "start_add_company"
	EventCancelAddCompany   Event = "cancel_add_company"
	EventSubmitCompany      Event = "submit_company"
	EventSwitchCompany      Event = "switch_company"
	EventLogout             Event = "logout"
	EventSessionExpired     Event = "session_expired"
)

type guard func(o *Orchestrator) bool

type transition struct {
	to    State
	guard guard
}

type transitionKey struct {
	from  State
	event Event
}

func offerChosen(o *Orchestrator) bool { return o.selected != nil }

func newRegistration(o *Orchestrator) bool { return !o.addCompanyFlow }

func addingCompany(o *Orchestrator) bool { return o.addCompanyFlow }

func newRegistrationWithOffer(o *Orchestrator) bool {
	return newRegistration(o) && offerChosen(o)
}

func addingCompanyWithOffer(o *Orchestrator) bool {
	return addingCompany(o) && offerChosen(o)
}

// transitions lists every legal (state, event) pair. When several targets
// exist the first satisfied guard wins.
var transitions = map[transitionKey][]transition{
	{StateLoggedOut, EventResume}:            {{to: StateDashboard}},
	{StateLoggedOut, EventLogin}:             {{to: StateDashboard}},
	{StateLoggedOut, EventStartRegistration}: {{to: StateRegistering}},

	{StateRegistering, EventSubmitRegistration}: {{to: StateEmailValidation}},
	{StateRegistering, EventBackToLogin}:        {{to: StateLoggedOut}},

	{StateEmailValidation, EventValidateEmail}: {{to: StateOfferSelection}},
	{StateEmailValidation, EventResendCode}:    {{to: StateEmailValidation}},
	{StateEmailValidation, EventBackToLogin}:   {{to: StateLoggedOut}},

	{StateOfferSelection, EventLoadOffers}:  {{to: StateOfferSelection}},
	{StateOfferSelection, EventSelectOffer}: {{to: StateOfferSelection}},
	{StateOfferSelection, EventContinue}: {
		{to: StatePayment, guard: newRegistrationWithOffer},
		{to: StateDashboard, guard: addingCompanyWithOffer},
	},
	{StateOfferSelection, EventChooseLater}: {
		{to: StateLoggedOut, guard: newRegistration},
		{to: StateDashboard, guard: addingCompany},
	},

	{StatePayment, EventClosePayment}:     {{to: StateOfferSelection}},
	{StatePayment, EventSubmitPayment}:    {{to: StateDashboard}},
	{StatePayment, EventCompletionFailed}: {{to: StateLoggedOut}},

	{StateDashboard, EventStartAddCompany}: {{to: StateAddingCompany}},
	{StateDashboard, EventSwitchCompany}:   {{to: StateDashboard}},

	{StateAddingCompany, EventSubmitCompany}:    {{to: StateOfferSelection}},
	{StateAddingCompany, EventCancelAddCompany}: {{to: StateDashboard}},
}

func init() {
	for _, s := range []State{
		StateRegistering, StateEmailValidation, StateOfferSelection,
		StatePayment, StateDashboard, StateAddingCompany,
	} {
		transitions[transitionKey{s, EventLogout}] = []transition{{to: StateLoggedOut}}
		transitions[transitionKey{s, EventSessionExpired}] = []transition{{to: StateLoggedOut}}
	}
}

// permitted reports whether ev has an entry for the current state.
func (o *Orchestrator) permitted(ev Event) bool {
	_, ok := transitions[transitionKey{o.state, ev}]
	return ok
}

// target resolves the destination of ev from the current state.
func (o *Orchestrator) target(ev Event) (State, error) {
	ts, ok := transitions[transitionKey{o.state, ev}]
	if !ok {
		return "", fmt.Errorf("%w: %s in %s", ErrIllegalTransition, ev, o.state)
	}
	for _, t := range ts {
		if t.guard == nil || t.guard(o) {
			return t.to, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrGuardRejected, ev, o.state)
}
