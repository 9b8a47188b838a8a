package loginflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/comalice/loginflow/internal/core"
	"github.com/comalice/loginflow/internal/primitives"
	"github.com/comalice/loginflow/internal/production"
	"github.com/comalice/loginflow/logging"
)

// ServiceUnavailableMessage is the failure reported when the service does not
// answer within the login timeout.
const ServiceUnavailableMessage = "Service is unavailable right now"

// DefaultLoginTimeout bounds a single login attempt.
const DefaultLoginTimeout = 10 * time.Second

func dispatchWith(ctx context.Context, d core.Dispatcher) primitives.DispatchFunc {
	return func(a Action) error {
		return d.Dispatch(ctx, a)
	}
}

// ValidationEffect dispatches CanLoginChanged whenever the credentials rule
// flips. The previous value starts at the initial state's CanLogin.
func ValidationEffect() core.Effect[LoginState] {
	return core.EffectFunc[LoginState](validate)
}

func validate(ctx context.Context, initial LoginState, updates <-chan Update, d core.Dispatcher) error {
	prev := initial.CanLogin
	for {
		select {
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			next := hasCredentials(u.State)
			if next == prev {
				continue
			}
			prev = next
			if err := Events.CanLoginChanged.DispatchOn(next, dispatchWith(ctx, d)); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// LoginEffect answers Login commands by calling service.
type LoginEffect struct {
	service Service
	timeout time.Duration
	logger  logging.Logger
	metrics *production.Metrics
}

// NewLoginEffect creates a LoginEffect. A non-positive timeout means
// DefaultLoginTimeout; nil logger and metrics are allowed.
func NewLoginEffect(service Service, timeout time.Duration, logger logging.Logger, metrics *production.Metrics) *LoginEffect {
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &LoginEffect{service: service, timeout: timeout, logger: logger, metrics: metrics}
}

type attempt struct {
	gen     uint64
	id      string
	started time.Time
}

type outcome struct {
	attempt
	action Action
	result string // success, error or timeout
}

// Run implements core.Effect. At most one attempt is awaited at a time:
// a newer Login cancels the older call and drops its answer.
func (e *LoginEffect) Run(ctx context.Context, _ LoginState, updates <-chan Update, d core.Dispatcher) error {
	outcomes := make(chan outcome)
	var current attempt
	cancelCurrent := context.CancelFunc(func() {})
	defer func() { cancelCurrent() }()

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			if !Commands.Login.IsA(u.Action) {
				continue
			}
			if !u.State.CanLogin {
				e.logger.Debug("login ignored", "reason", "credentials incomplete")
				continue
			}
			cancelCurrent()
			if current.id != "" {
				e.logger.Debug("login attempt superseded", "attempt_id", current.id)
			}
			current = attempt{gen: current.gen + 1, id: uuid.NewString(), started: time.Now()}

			if err := Events.LoginStarted.DispatchOn(dispatchWith(ctx, d)); err != nil {
				return err
			}
			attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
			cancelCurrent = cancel
			e.logger.Info("login started", "attempt_id", current.id, "username", u.State.Username)
			go e.call(attemptCtx, current, u.State.Username, u.State.Password, outcomes, ctx.Done())

		case o := <-outcomes:
			if o.gen != current.gen {
				continue
			}
			cancelCurrent()
			cancelCurrent = func() {}
			current.id = ""
			elapsed := time.Since(o.started)
			e.metrics.ObserveLogin(o.result, elapsed)
			e.logger.Info("login finished", "attempt_id", o.id, "result", o.result, "duration", elapsed)
			if err := d.Dispatch(ctx, o.action); err != nil {
				return err
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// call runs one service call and reports its outcome unless the attempt was
// cancelled by a newer one or by shutdown.
func (e *LoginEffect) call(ctx context.Context, a attempt, username, password string, out chan<- outcome, done <-chan struct{}) {
	type reply struct {
		res Result
		err error
	}
	replies := make(chan reply, 1)
	go func() {
		res, err := e.service.Login(ctx, username, password)
		replies <- reply{res: res, err: err}
	}()

	o := outcome{attempt: a}
	select {
	case r := <-replies:
		// The attempt's own context decides supersession and timeout; a
		// service error that merely wraps a context error is a failure.
		switch attemptErr := ctx.Err(); {
		case errors.Is(attemptErr, context.Canceled):
			return
		case errors.Is(attemptErr, context.DeadlineExceeded):
			o.action, o.result = Events.LoginFailed.Create(ServiceUnavailableMessage), "timeout"
		case r.err != nil:
			o.action, o.result = Events.LoginFailed.Create(r.err.Error()), "error"
		case r.res.Kind == ResultSuccess:
			o.action, o.result = Events.LoginCompleted.Create(), "success"
		default:
			o.action, o.result = Events.LoginFailed.Create(failureMessage(r.res)), "error"
		}
	case <-ctx.Done():
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}
		o.action, o.result = Events.LoginFailed.Create(ServiceUnavailableMessage), "timeout"
	}

	select {
	case out <- o:
	case <-done:
	}
}

func failureMessage(r Result) string {
	if r.Kind != ResultError {
		return fmt.Sprintf("unexpected login result kind %q", r.Kind)
	}
	return r.Error
}
