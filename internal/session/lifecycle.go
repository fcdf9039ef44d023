package session

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component with a blocking Start and an
// idempotent Stop.
type Service interface {
	// Start runs the service and blocks until it finishes or fails.
	Start() error
	// Stop asks the service to wind down. It may be called while Start is
	// still blocked and must be safe to call more than once.
	Stop()
}

// FuncService adapts a start/stop function pair into the Service interface.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls the underlying start function.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls the underlying stop function, if any.
func (f *FuncService) Stop() {
	if f.StopFn != nil {
		f.StopFn()
	}
}

// Lifecycle starts services in registration order, waits for the first
// one to finish or for a termination signal, and stops everything in
// reverse order. The play session counts on this: the REPL returning,
// a Ctrl-C and a SIGTERM all funnel into the same orderly shutdown, so
// the save-on-exit hook always runs.
type Lifecycle struct {
	log      *zap.Logger
	services []namedService
	mu       sync.Mutex
}

type namedService struct {
	name string
	svc  Service
}

type serviceResult struct {
	name string
	err  error
}

// NewLifecycle creates an empty lifecycle manager. A nil logger disables
// logging.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lifecycle{log: logger}
}

// Add registers a named service. Services start in the order they are
// added and stop in the reverse order.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, svc: svc})
}

// Run starts every registered service and blocks until one of them
// returns, a SIGINT or SIGTERM arrives, or the context is cancelled.
// It then stops all services in reverse order.
//
// Postcondition: every Stop has run when Run returns; the return value
// is the error of the service that ended the run, nil otherwise.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()

	done := make(chan serviceResult, len(l.services))
	for _, ns := range l.services {
		ns := ns
		go func() {
			l.log.Info("starting service", zap.String("service", ns.name))
			done <- serviceResult{name: ns.name, err: ns.svc.Start()}
		}()
	}
	l.log.Info("all services started", zap.Int("count", len(l.services)))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		l.log.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case res := <-done:
		if res.err != nil {
			runErr = fmt.Errorf("service %s: %w", res.name, res.err)
			l.log.Error("service failed, shutting down",
				zap.String("service", res.name),
				zap.Error(res.err))
		} else {
			l.log.Info("service finished, shutting down", zap.String("service", res.name))
		}
	case <-ctx.Done():
		l.log.Info("context cancelled, shutting down")
	}

	l.shutdown()
	l.log.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))
	return runErr
}

func (l *Lifecycle) shutdown() {
	for i := len(l.services) - 1; i >= 0; i-- {
		ns := l.services[i]
		stopStart := time.Now()
		l.log.Info("stopping service", zap.String("service", ns.name))
		ns.svc.Stop()
		l.log.Info("service stopped",
			zap.String("service", ns.name),
			zap.Duration("elapsed", time.Since(stopStart)))
	}
}
