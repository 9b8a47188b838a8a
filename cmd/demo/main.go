package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/comalice/loginflow"
	"github.com/comalice/loginflow/internal/config"
	"github.com/comalice/loginflow/internal/core"
	"github.com/comalice/loginflow/internal/extensibility"
	"github.com/comalice/loginflow/internal/production"
	"github.com/comalice/loginflow/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	username := flag.String("username", "john", "username typed into the form")
	password := flag.String("password", "password", "password typed into the form")
	latency := flag.Duration("delay", 500*time.Millisecond, "simulated login service latency")
	reject := flag.String("fail", "", "reject the login with this message")
	interval := flag.Duration("interval", 300*time.Millisecond, "pause between scripted form inputs")
	metricsAddr := flag.String("metrics", "", "serve Prometheus metrics on this address, e.g. :9090")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	level, ok := logging.ParseLevel(cfg.Log.Level)
	if !ok {
		level = logging.LevelInfo
	}
	logger := logging.NewLogger(logging.Config{Level: level, Format: cfg.Log.Format, Component: "demo"})

	var service loginflow.Service = loginflow.ServiceFunc(func(ctx context.Context, user, _ string) (loginflow.Result, error) {
		select {
		case <-time.After(*latency):
		case <-ctx.Done():
			return loginflow.Result{}, ctx.Err()
		}
		if *reject != "" {
			return loginflow.Failure(*reject), nil
		}
		return loginflow.Success(), nil
	})
	if cfg.Login.RateLimit > 0 {
		service = loginflow.Throttle(service, rate.Limit(cfg.Login.RateLimit), cfg.Login.Burst)
	}

	reg := prometheus.NewRegistry()
	if *metricsAddr != "" {
		ln, err := net.Listen("tcp", *metricsAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "metrics: %v\n", err)
			os.Exit(1)
		}
		shutdown := serveMetrics(ln, reg, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown", "error", err)
			}
		}()
	}

	publishChan := make(chan production.PublishedUpdate[loginflow.LoginState], 100)
	publisher := production.NewChannelPublisher[loginflow.LoginState]("demo", publishChan)

	script := extensibility.NewScriptedActionSource(*interval,
		loginflow.Events.UsernameChanged.Create(*username),
		loginflow.Events.PasswordChanged.Create(*password),
		loginflow.Commands.Login.Create(),
	)

	store, err := loginflow.NewLoginStore(service,
		loginflow.WithLoginTimeout(cfg.Login.Timeout),
		loginflow.WithLogger(logger),
		loginflow.WithMetrics(reg),
		loginflow.WithStoreOptions(
			core.WithQueueSize[loginflow.LoginState](cfg.Store.QueueSize),
			core.WithPublisher[loginflow.LoginState](publisher),
			core.WithActionSource[loginflow.LoginState](script),
			core.WithMiddleware(extensibility.LoggingMiddleware[loginflow.LoginState](logger)),
		),
	)
	if err != nil {
		panic(err)
	}
	if err := store.Start(); err != nil {
		panic(err)
	}
	defer func() {
		script.Stop()
		if err := store.Stop(); err != nil {
			fmt.Printf("Stop error: %v\n", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case pub, ok := <-publishChan:
			if !ok {
				return
			}
			s := pub.Update.State
			fmt.Printf("#%d %s -> user=%q canLogin=%t inProgress=%t done=%t error=%q\n",
				pub.Update.Seq, pub.Metadata.Action, s.Username, s.CanLogin, s.LoginInProgress, s.LoginDone, s.ErrorMessage())
			if s.LoginDone {
				fmt.Println("Logged in.")
				return
			}
			if loginflow.Events.LoginFailed.IsA(pub.Update.Action) {
				fmt.Println("Login failed:", s.ErrorMessage())
				return
			}
		case <-sig:
			fmt.Println("\nShutting down gracefully...")
			return
		}
	}
}

// serveMetrics serves reg on ln at /metrics until the returned func is called.
func serveMetrics(ln net.Listener, reg *prometheus.Registry, logger logging.Logger) func(context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	return srv.Shutdown
}
