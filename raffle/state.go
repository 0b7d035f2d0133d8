package raffle

import (
	"strings"

	"github.com/joanvup/rifa-app/errors"
)

// Action names a ticket state transition
type Action string

const (
	ActionAssign       Action = "assign"
	ActionAssignAndPay Action = "assign_and_pay"
	ActionPay          Action = "pay"
	ActionUnassign     Action = "unassign"
)

// Apply mutates the ticket according to the requested action.
//
// Transition table:
//
//	assign          any state  -> assigned, assignee overwritten
//	assign_and_pay  any state  -> paid, assignee overwritten
//	pay             assigned   -> paid (assignee unchanged); otherwise a no-op
//	unassign        any state  -> available, assignee cleared
//
// The two assignment actions require a non-blank name, keeping the
// invariant that a ticket carries an assignee exactly when it is not
// available. An unrecognized action is rejected with an invalid-action
// error.
func Apply(t *Ticket, action Action, name string) error {
	switch action {
	case ActionAssign, ActionAssignAndPay:
		if strings.TrimSpace(name) == "" {
			return errors.New(errors.ErrInvalidRequest, "assignee name is required")
		}
		if action == ActionAssign {
			t.State = StateAssigned
		} else {
			t.State = StatePaid
		}
		t.Assignee = name
	case ActionPay:
		// Paying an unassigned or already paid ticket leaves it untouched.
		if t.State == StateAssigned {
			t.State = StatePaid
		}
	case ActionUnassign:
		t.State = StateAvailable
		t.Assignee = ""
	default:
		return errors.Newf(errors.ErrInvalidAction, "unknown ticket action %q", string(action))
	}
	return nil
}
