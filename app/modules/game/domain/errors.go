package gamedomain

import "errors"

// RuleError is a user-visible game rule violation: wrong actor, wrong turn,
// invalid state for the action, game not found. The dispatch boundary turns
// it into an outbound chat message; Ephemeral asks for a snackbar
// acknowledgement tied to the triggering button event instead.
type RuleError struct {
	Text      string
	Ephemeral bool
}

func (e *RuleError) Error() string {
	return e.Text
}

// NewRuleError builds a rule violation delivered as a normal chat message.
func NewRuleError(text string) *RuleError {
	return &RuleError{Text: text}
}

// NewEphemeralRuleError builds a rule violation delivered as a snackbar.
func NewEphemeralRuleError(text string) *RuleError {
	return &RuleError{Text: text, Ephemeral: true}
}

// AsRuleError unwraps err into a RuleError if it is one.
func AsRuleError(err error) (*RuleError, bool) {
	var re *RuleError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
