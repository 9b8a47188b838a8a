package loginflow

import (
	"github.com/comalice/loginflow/internal/core"
	"github.com/comalice/loginflow/internal/primitives"
)

type (
	// Action is a tagged value dispatched into a store.
	Action = primitives.Action
	// Update records one reduction of a login store.
	Update = core.Update[LoginState]
)

// Action type prefixes.
const (
	EventNamespace   = "Login/Event/"
	CommandNamespace = "Login/Command/"
)

var (
	eventNS   = primitives.NewNamespace[LoginState](EventNamespace)
	commandNS = primitives.NewNamespace[LoginState](CommandNamespace)
)

// Events are the actions that change LoginState.
var Events = struct {
	UsernameChanged *primitives.TypedCreator[LoginState, string]
	PasswordChanged *primitives.TypedCreator[LoginState, string]
	LoginStarted    *primitives.EmptyCreator[LoginState]
	LoginCompleted  *primitives.EmptyCreator[LoginState]
	LoginFailed     *primitives.TypedCreator[LoginState, string]
	CanLoginChanged *primitives.TypedCreator[LoginState, bool]
}{
	UsernameChanged: primitives.Typed(eventNS, "USERNAME_CHANGED",
		func(s LoginState, username string) LoginState {
			s.Username = username
			return s
		}),

	PasswordChanged: primitives.Typed(eventNS, "PASSWORD_CHANGED",
		func(s LoginState, password string) LoginState {
			s.Password = password
			return s
		}),

	LoginStarted: primitives.Empty(eventNS, "LOGIN_STARTED",
		func(s LoginState) LoginState {
			s.LoginInProgress = true
			s.Error = nil
			return s
		}),

	LoginCompleted: primitives.Empty(eventNS, "LOGIN_COMPLETED",
		func(s LoginState) LoginState {
			s.LoginInProgress = false
			s.LoginDone = true
			s.Error = nil
			return s
		}),

	LoginFailed: primitives.Typed(eventNS, "LOGIN_FAILED",
		func(s LoginState, msg string) LoginState {
			s.LoginInProgress = false
			s.LoginDone = false
			s.Error = &msg
			return s
		}),

	CanLoginChanged: primitives.Typed(eventNS, "CAN_LOGIN_CHANGED",
		func(s LoginState, canLogin bool) LoginState {
			s.CanLogin = canLogin
			return s
		}),
}

// Commands request work from effects and leave LoginState unchanged.
var Commands = struct {
	Login *primitives.EmptyCreator[LoginState]
}{
	Login: primitives.Empty[LoginState](commandNS, "LOGIN", nil),
}

var loginReducer = primitives.ReducerFromActions[LoginState](
	Events.UsernameChanged,
	Events.PasswordChanged,
	Events.LoginStarted,
	Events.LoginCompleted,
	Events.LoginFailed,
	Events.CanLoginChanged,
	Commands.Login,
)

// Reducer applies action to state. Unknown actions leave state unchanged.
func Reducer(state LoginState, action Action) LoginState {
	return loginReducer(state, action)
}
