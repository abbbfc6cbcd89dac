package capi

import (
	"context"
	"sync"
	"time"

	"github.com/ignite/click-relay/internal/pkg/logger"
)

// Dispatcher sends conversion events on detached background tasks.
// The handler never awaits a dispatch: outcome is logged, never surfaced to
// the visitor, and the redirect must not wait on Meta. Each task gets its own
// context so a finished request cannot cancel an in-flight send.
type Dispatcher struct {
	client  *Client
	timeout time.Duration

	wg       sync.WaitGroup
	warnOnce sync.Once
}

// NewDispatcher creates a dispatcher around the given client. A nil client
// means conversion dispatch is unconfigured: Dispatch becomes a logged no-op
// and every request still persists and redirects normally.
func NewDispatcher(client *Client, timeout time.Duration) *Dispatcher {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{client: client, timeout: timeout}
}

// Dispatch fires the events at Meta without blocking the caller.
func (d *Dispatcher) Dispatch(events []Event) {
	if d.client == nil {
		d.warnOnce.Do(func() {
			logger.Warn("meta conversions API credentials not configured, conversion dispatch disabled")
		})
		return
	}
	if len(events) == 0 {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.client.SendEvents(ctx, events); err != nil {
			logger.Error("conversion dispatch failed",
				"event_id", events[0].EventID, "error", err)
			return
		}
		logger.Info("conversion dispatched",
			"event_id", events[0].EventID, "events", len(events))
	}()
}

// Drain blocks until all in-flight dispatches finish or ctx expires.
// Called during shutdown so background sends are not killed mid-flight.
func (d *Dispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
