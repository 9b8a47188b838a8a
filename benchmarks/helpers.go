// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"context"
	"fmt"
	"time"

	"github.com/comalice/loginflow"
	"github.com/comalice/loginflow/internal/primitives"
)

// InstantService answers every login with success.
var InstantService = loginflow.ServiceFunc(func(ctx context.Context, username, password string) (loginflow.Result, error) {
	return loginflow.Success(), nil
})

// LatentService answers every login with success after d, or gives up with ctx.
func LatentService(d time.Duration) loginflow.Service {
	return loginflow.ServiceFunc(func(ctx context.Context, username, password string) (loginflow.Result, error) {
		select {
		case <-time.After(d):
			return loginflow.Success(), nil
		case <-ctx.Done():
			return loginflow.Result{}, ctx.Err()
		}
	})
}

// GenTyping returns n actions that type a username one character at a time,
// then a password of the same length.
func GenTyping(n int) []primitives.Action {
	if n < 1 {
		n = 1
	}
	out := make([]primitives.Action, 0, 2*n)
	var user, pass string
	for i := 0; i < n; i++ {
		user += string(rune('a' + i%26))
		out = append(out, loginflow.Events.UsernameChanged.Create(user))
	}
	for i := 0; i < n; i++ {
		pass += fmt.Sprint(i % 10)
		out = append(out, loginflow.Events.PasswordChanged.Create(pass))
	}
	return out
}

// NewStartedStore creates and starts a login store, failing the caller on error.
func NewStartedStore(fatal func(args ...any), service loginflow.Service, opts ...loginflow.Option) *loginflow.LoginStore {
	s, err := loginflow.NewLoginStore(service, opts...)
	if err != nil {
		fatal(err)
	}
	if err := s.Start(); err != nil {
		fatal(err)
	}
	return s
}
