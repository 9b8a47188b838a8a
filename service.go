package loginflow

import "context"

// ResultKind tells a successful login from a rejected one.
type ResultKind string

const (
	ResultSuccess ResultKind = "success"
	ResultError   ResultKind = "error"
)

// Result is the answer of a login Service.
type Result struct {
	Kind  ResultKind
	Error string // set when Kind is ResultError
}

// Success returns a successful Result.
func Success() Result { return Result{Kind: ResultSuccess} }

// Failure returns a rejected Result carrying msg.
func Failure(msg string) Result { return Result{Kind: ResultError, Error: msg} }

// Service performs the actual login. The store treats it as opaque: it only
// relies on Login returning, or ctx expiring.
//
// A non-nil error is reported to the user as a failed login with the error's
// text. Implementations should honour ctx; an implementation that ignores it
// is abandoned once the login timeout elapses.
type Service interface {
	Login(ctx context.Context, username, password string) (Result, error)
}

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context, username, password string) (Result, error)

func (f ServiceFunc) Login(ctx context.Context, username, password string) (Result, error) {
	return f(ctx, username, password)
}
