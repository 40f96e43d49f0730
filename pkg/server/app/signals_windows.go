//go:build windows

package app

import "context"

func (a *App) listenSignals(context.Context) {}
