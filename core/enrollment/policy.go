package enrollment

import (
	"github.com/lejardineden/backend/core/user"
)

// Action is a lifecycle operation a caller may request on an Enrollment.
type Action string

const (
	ActionView     Action = "view"
	ActionUpdate   Action = "update"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionActivate Action = "activate"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

// Policy decides, for a (caller, enrollment, action) triple, whether the call
// is permitted, and which field subset the caller may modify on update.
// Admins may invoke every action; owners may view, update and self-cancel.
type Policy struct{}

func (Policy) Can(actor user.User, enr Enrollment, action Action) bool {
	if actor.IsAdmin() {
		return true
	}
	switch action {
	case ActionView, ActionUpdate, ActionCancel:
		return enr.IsOwnedBy(actor.ID)
	default:
		return false
	}
}

// FilterUpdate returns a copy of up holding only the fields the actor may
// modify. Disallowed fields are silently dropped rather than failing the
// whole request; partial field sets are accepted.
func (p Policy) FilterUpdate(actor user.User, enr Enrollment, up UpdateEnrollment) (UpdateEnrollment, error) {
	if !p.Can(actor, enr, ActionUpdate) {
		return UpdateEnrollment{}, ErrForbidden
	}
	if actor.IsAdmin() {
		return up, nil
	}

	// owners may only edit their enrollment while it is still pending or approved
	if !(enr.IsPending() || enr.IsApproved()) {
		return UpdateEnrollment{}, ErrInvalidState
	}
	up.Notes = nil // admin-only
	return up, nil
}
