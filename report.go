// Copyright (c) 2026 Robert Clausecker <fuz@fuz.su>

package fppop

import "context"
import "log/slog"
import "sync/atomic"

// A notice logs the method a selector picked whenever it differs from
// the method last logged.  last holds that method plus one, zero if
// nothing has been logged yet.  Concurrent selectors race on last with
// compare-and-swap and only the winner of a change logs it, so each
// transition is logged once.
type notice struct {
	msg     string
	enabled atomic.Bool
	last    atomic.Uint32
}

func (n *notice) report(logger *slog.Logger, m Method) {
	if !n.enabled.Load() {
		return
	}

	want := uint32(m) + 1
	for {
		old := n.last.Load()
		if old == want {
			return
		}

		if n.last.CompareAndSwap(old, want) {
			logger.LogAttrs(context.Background(), slog.LevelInfo, n.msg,
				slog.String("method", m.String()))
			return
		}
	}
}

// Enable or disable the notice.  Only the call that actually turns it
// on forgets the method last reported.
func (n *notice) setEnabled(report bool) {
	if !report {
		n.enabled.Store(false)
		return
	}

	if n.enabled.CompareAndSwap(false, true) {
		n.reset()
	}
}

// Forget the method last reported so the next selection is reported
// again.
func (n *notice) reset() {
	n.last.Store(0)
}

// NoopLogger returns a logger that discards everything.  Pass it to
// WithLogger to silence notices without disabling the reporting flags.
func NoopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
