// Package loginflow implements a login form as a reactive store: typed action
// creators, a pure reducer and two effects.
//
// The validation effect keeps LoginState.CanLogin equal to "username and
// password are both non-empty". The login effect answers a Login command by
// dispatching LoginStarted, calling the Service, and dispatching
// LoginCompleted or LoginFailed with the outcome. A later Login supersedes an
// attempt still in flight, and an attempt that gets no answer within the login
// timeout fails with ServiceUnavailableMessage.
//
// # Example Usage
//
//	store, err := loginflow.NewLoginStore(service, loginflow.WithLoginTimeout(5*time.Second))
//	if err != nil {
//		return err
//	}
//	store.Start()
//	defer store.Stop()
//
//	store.SetUsername(ctx, "john")
//	store.SetPassword(ctx, "password")
//	store.Login(ctx)
package loginflow
