// Package lifecycle computes the contest-detail view's state for one viewer.
// The state is re-derived from the contest and registration records on every
// render and every countdown tick; nothing here stores transitions.
package lifecycle

import (
	"strings"
	"time"

	"xports-bot/internal/models"
)

type State int

const (
	StateLoading State = iota
	StateNotRegisteredOpen
	StateNotRegisteredClosed
	StateRegisteredPending
	StateRegisteredSubmitted
	StateRegisteredClosed
	StateOwnerView
	StateRestrictedRole
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateNotRegisteredOpen:
		return "not_registered_open"
	case StateNotRegisteredClosed:
		return "not_registered_closed"
	case StateRegisteredPending:
		return "registered_pending"
	case StateRegisteredSubmitted:
		return "registered_submitted"
	case StateRegisteredClosed:
		return "registered_closed"
	case StateOwnerView:
		return "owner_view"
	case StateRestrictedRole:
		return "restricted_role"
	}
	return "unknown"
}

// Action is the single call-to-action a state enables.
type Action int

const (
	ActionNone Action = iota
	ActionRegister
	ActionSubmit
	ActionReview
)

func (s State) Action() Action {
	switch s {
	case StateNotRegisteredOpen:
		return ActionRegister
	case StateRegisteredPending:
		return ActionSubmit
	case StateOwnerView:
		return ActionReview
	}
	return ActionNone
}

type CloseReason int

const (
	CloseNone CloseReason = iota
	CloseWinnerDeclared
	CloseDeadlinePassed
)

// Closure reports whether the contest is closed and why. A declared winner
// outranks a passed deadline for the label shown to the viewer.
func Closure(c models.Contest, now time.Time) CloseReason {
	if c.Winner != nil || c.Status == models.StatusCompleted {
		return CloseWinnerDeclared
	}
	if c.Ended(now) {
		return CloseDeadlinePassed
	}
	return CloseNone
}

// Policy decides whether admins and creators may start new registrations.
// Existing registrations are honored either way.
type Policy struct {
	AllowElevatedParticipation bool
}

type Input struct {
	Contest      *models.Contest
	Registration *models.Registration
	ViewerEmail  string
	ViewerRole   models.Role
	Policy       Policy
	Now          time.Time
}

// Evaluate computes the viewer's state. Precedence: ownership, then an
// existing registration, then role restriction, then open/closed.
func Evaluate(in Input) State {
	if in.Contest == nil {
		return StateLoading
	}
	c := *in.Contest

	if in.ViewerEmail != "" && strings.EqualFold(in.ViewerEmail, c.OwnerEmail) {
		return StateOwnerView
	}

	if in.Registration == nil {
		return StateLoading
	}

	closed := Closure(c, in.Now) != CloseNone

	if in.Registration.Registered {
		// Registration outranks role restriction: the restriction exists to
		// stop new registrations, not to hide existing ones.
		if in.Registration.SubmissionStatus == models.SubmissionSubmitted {
			return StateRegisteredSubmitted
		}
		if closed {
			return StateRegisteredClosed
		}
		return StateRegisteredPending
	}

	if in.ViewerRole.Elevated() && !in.Policy.AllowElevatedParticipation {
		return StateRestrictedRole
	}

	if closed {
		return StateNotRegisteredClosed
	}
	return StateNotRegisteredOpen
}
