//go:build !windows

package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// listenSignals reloads the rule set on SIGHUP until ctx is done.
func (a *App) listenSignals(ctx context.Context) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP)

	go func() {
		defer signal.Stop(signals)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-signals:
				a.Deps.Logger.Info().Str("signal", sig.String()).Msg("Reloading rules")
				a.reload(ctx, "signal")
			}
		}
	}()
}
