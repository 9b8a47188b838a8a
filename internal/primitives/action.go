package primitives

import "fmt"

// Action is the tagged value dispatched into a store.
//
// Type carries the full namespaced tag. Payload is nil for empty actions.
// Consumers MUST NOT modify an Action after it has been dispatched.
type Action struct {
	Type    string
	Payload any
}

// NewAction creates and returns a new immutable Action.
func NewAction(actionType string, payload any) Action {
	return Action{
		Type:    actionType,
		Payload: payload,
	}
}

// String renders the action for logs, e.g. "Login/Event/LOGIN_FAILED(boom)".
func (a Action) String() string {
	if a.Payload == nil {
		return a.Type
	}
	return fmt.Sprintf("%s(%v)", a.Type, a.Payload)
}
