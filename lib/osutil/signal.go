package osutil

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Returns a child of parent that will live until Ctrl+C is pressed
// or the process receives SIGTERM.
func SignalContext(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	return ctx
}
