// Package interrupt ties context cancellation to OS termination signals.
package interrupt

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

var terminationSignals = []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}

// TerminationContext derives a context that is canceled when the process
// receives a termination signal. The stop function releases the signal
// handler, so a second signal kills the process the default way.
func TerminationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, terminationSignals...)
}
