package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/easel/internal/config"
	"github.com/aretw0/easel/internal/logging"
)

// ErrInterrupted is returned by an InterruptibleReader after cancellation.
var ErrInterrupted = errors.New("interrupted")

// SignalContext is a context cancelled on SIGINT or SIGTERM that remembers
// which signal cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext works like signal.NotifyContext but exposes the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.stop.Do(func() {
			signal.Stop(sc.sigCh)
		})
	}()

	return sc
}

// Signal returns the signal that cancelled the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// NewLogger builds the application logger from the log section of the config.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	return logging.NewWithWriter(w, logging.ParseLevel(cfg.Level), cfg.JSON)
}

// InterruptibleReader wraps an io.Reader (like os.Stdin) and stops returning
// data once cancel is closed.
type InterruptibleReader struct {
	base   io.Reader
	cancel <-chan struct{}
}

func NewInterruptibleReader(base io.Reader, cancel <-chan struct{}) *InterruptibleReader {
	return &InterruptibleReader{
		base:   base,
		cancel: cancel,
	}
}

func (r *InterruptibleReader) Read(p []byte) (n int, err error) {
	select {
	case <-r.cancel:
		return 0, ErrInterrupted
	default:
	}

	// Blocks.
	n, err = r.base.Read(p)

	select {
	case <-r.cancel:
		return 0, ErrInterrupted
	default:
	}
	return n, err
}

// IsInterrupted reports whether err only means the user stopped the command.
func IsInterrupted(err error) bool {
	return errors.Is(err, ErrInterrupted) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, io.EOF)
}
