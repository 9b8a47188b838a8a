package loginflow

// LoginState is the single value held by a login store.
type LoginState struct {
	Username        string
	Password        string
	LoginInProgress bool
	CanLogin        bool
	LoginDone       bool
	Error           *string // nil when no error is set
}

// DefaultLoginState returns the empty form.
func DefaultLoginState() LoginState {
	return LoginState{}
}

// ErrorMessage returns the current error or "".
func (s LoginState) ErrorMessage() string {
	if s.Error == nil {
		return ""
	}
	return *s.Error
}

// hasCredentials is the validation rule behind CanLogin.
func hasCredentials(s LoginState) bool {
	return s.Username != "" && s.Password != ""
}
