package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"

	"gleam/internal/metrics"
	"gleam/internal/types"
)

// ErrRejected wraps an OK false response from a relay.
var ErrRejected = errors.New("event rejected")

// Publish sends evt to every relay and waits for each relay's OK until ctx
// is done. It returns the relays that accepted the event and the
// aggregated failures of the rest; err is non-nil whenever any relay failed,
// callers decide whether a partial success is enough.
func (p *Pool) Publish(ctx context.Context, relays []string, evt *types.Event) ([]string, error) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []string
		errs     *multierror.Error
	)
	for _, relayURL := range relays {
		wg.Add(1)
		go func(relayURL string) {
			defer wg.Done()
			err := p.publishToRelay(ctx, relayURL, evt)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierror.Append(errs, err)
				return
			}
			accepted = append(accepted, relayURL)
		}(relayURL)
	}
	wg.Wait()

	metrics.IncPublished(evt.Kind, len(accepted) > 0)
	if len(accepted) == 0 && errs == nil {
		errs = multierror.Append(errs, errors.New("no relays to publish to"))
	}
	return accepted, errs.ErrorOrNil()
}

func (p *Pool) publishToRelay(ctx context.Context, relayURL string, evt *types.Event) error {
	rc, err := p.getOrCreateConn(ctx, relayURL)
	if err != nil {
		return err
	}

	ch := make(chan okResult, 1)
	rc.mu.Lock()
	if rc.closed {
		rc.mu.Unlock()
		return fmt.Errorf("%s: %w", relayURL, ErrConnClosed)
	}
	rc.okWaiters[evt.ID] = ch
	rc.mu.Unlock()

	removeWaiter := func() {
		rc.mu.Lock()
		if rc.okWaiters[evt.ID] == ch {
			delete(rc.okWaiters, evt.ID)
		}
		rc.mu.Unlock()
	}

	if err := rc.writeJSON([]interface{}{"EVENT", evt}); err != nil {
		removeWaiter()
		metrics.IncRelayError("publish")
		rc.markClosed()
		return fmt.Errorf("send EVENT to %s: %w", relayURL, err)
	}

	select {
	case res := <-ch:
		if !res.accepted {
			metrics.IncRelayError("publish")
			return fmt.Errorf("%s: %w: %s", relayURL, ErrRejected, res.message)
		}
		return nil
	case <-ctx.Done():
		removeWaiter()
		metrics.IncRelayError("publish")
		return fmt.Errorf("%s: waiting for OK: %w", relayURL, ctx.Err())
	}
}
