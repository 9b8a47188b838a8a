package loginflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/comalice/loginflow/internal/core"
	"github.com/comalice/loginflow/internal/production"
	"github.com/comalice/loginflow/logging"
)

// ErrNilService is returned by NewLoginStore when no Service is given.
var ErrNilService = errors.New("loginflow: nil login service")

// LoginStore is a running store of LoginState with the validation and login
// effects attached.
type LoginStore struct {
	*core.Store[LoginState]
}

type storeOptions struct {
	initial    LoginState
	timeout    time.Duration
	logger     logging.Logger
	registerer prometheus.Registerer
	storeOpts  []core.Option[LoginState]
}

// Option configures NewLoginStore.
type Option func(*storeOptions)

// WithInitialState starts the store from s instead of DefaultLoginState.
func WithInitialState(s LoginState) Option {
	return func(o *storeOptions) { o.initial = s }
}

// WithLoginTimeout bounds each login attempt. Defaults to DefaultLoginTimeout.
func WithLoginTimeout(d time.Duration) Option {
	return func(o *storeOptions) { o.timeout = d }
}

// WithLogger sets the logger used by the store and its effects.
func WithLogger(l logging.Logger) Option {
	return func(o *storeOptions) { o.logger = l }
}

// WithMetrics registers Prometheus collectors for the store on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *storeOptions) { o.registerer = reg }
}

// WithStoreOptions passes options straight to the underlying core store,
// e.g. middlewares, publishers or action sources.
func WithStoreOptions(opts ...core.Option[LoginState]) Option {
	return func(o *storeOptions) { o.storeOpts = append(o.storeOpts, opts...) }
}

// NewLoginStore wires Reducer, ValidationEffect and a LoginEffect over
// service into a store. The store is returned stopped; call Start.
func NewLoginStore(service Service, opts ...Option) (*LoginStore, error) {
	if service == nil {
		return nil, ErrNilService
	}
	o := storeOptions{
		initial: DefaultLoginState(),
		timeout: DefaultLoginTimeout,
		logger:  logging.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	var metrics *production.Metrics
	if o.registerer != nil {
		m, err := production.NewMetrics(o.registerer)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		metrics = m
	}

	coreOpts := []core.Option[LoginState]{
		core.WithLogger[LoginState](o.logger),
		core.WithEffect(ValidationEffect(), core.Effect[LoginState](NewLoginEffect(service, o.timeout, o.logger, metrics))),
	}
	if metrics != nil {
		coreOpts = append(coreOpts, core.WithMiddleware(production.ActionCounter[LoginState](metrics)))
	}
	coreOpts = append(coreOpts, o.storeOpts...)

	return &LoginStore{Store: core.NewStore(Reducer, o.initial, coreOpts...)}, nil
}

// SetUsername dispatches UsernameChanged.
func (s *LoginStore) SetUsername(ctx context.Context, username string) error {
	return s.Dispatch(ctx, Events.UsernameChanged.Create(username))
}

// SetPassword dispatches PasswordChanged.
func (s *LoginStore) SetPassword(ctx context.Context, password string) error {
	return s.Dispatch(ctx, Events.PasswordChanged.Create(password))
}

// Login dispatches the Login command.
func (s *LoginStore) Login(ctx context.Context) error {
	return s.Dispatch(ctx, Commands.Login.Create())
}
