package relay

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/oklog/ulid/v2"

	"gleam/internal/metrics"
	"gleam/internal/nostr"
	"gleam/internal/types"
)

// Query runs filter against every relay in parallel until each relay sends
// EOSE or ctx is done. Events are verified, re-checked against the filter,
// deduplicated, sorted newest first and trimmed to the filter limit.
// An error is returned only when no relay could be queried.
func (p *Pool) Query(ctx context.Context, relays []string, filter types.Filter) ([]types.Event, error) {
	events, _, err := p.QueryComplete(ctx, relays, filter)
	return events, err
}

// QueryComplete is Query that also reports whether at least one relay sent
// EOSE. When complete is false the result may be missing stored events
// even if it is empty.
func (p *Pool) QueryComplete(ctx context.Context, relays []string, filter types.Filter) (events []types.Event, complete bool, err error) {
	if len(relays) == 0 {
		return nil, false, nil
	}
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req := nostr.FilterToREQ(filter)
	eventChan := make(chan types.Event, 1000)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		errs     *multierror.Error
		finished int
	)
	for _, relayURL := range relays {
		wg.Add(1)
		go func(relayURL string) {
			defer wg.Done()
			eose, ferr := p.fetchFromRelay(ctx, relayURL, req, eventChan)
			mu.Lock()
			defer mu.Unlock()
			if ferr != nil {
				errs = multierror.Append(errs, ferr)
			}
			if eose {
				finished++
			}
		}(relayURL)
	}

	go func() {
		wg.Wait()
		close(eventChan)
	}()

	// Relays answer in any order, so everything is collected before the
	// page is sorted and trimmed.
	seen := make(map[string]int)

collectLoop:
	for {
		select {
		case evt, ok := <-eventChan:
			if !ok {
				break collectLoop
			}
			if !nostr.MatchesFilter(&evt, filter) {
				continue
			}
			if i, dup := seen[evt.ID]; dup {
				events[i].RelaysSeen = appendUnique(events[i].RelaysSeen, evt.RelaysSeen...)
				continue
			}
			seen[evt.ID] = len(events)
			events = append(events, evt)
		case <-ctx.Done():
			break collectLoop
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt != events[j].CreatedAt {
			return events[i].CreatedAt > events[j].CreatedAt
		}
		return events[i].ID > events[j].ID
	})
	if filter.Limit > 0 && len(events) > filter.Limit {
		events = events[:filter.Limit]
	}

	metrics.ObserveRelayQuery(time.Since(start), len(events))

	// Stop the fetchers before reading their results.
	cancel()
	wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	if errs != nil && len(errs.Errors) == len(relays) {
		return nil, false, errs.ErrorOrNil()
	}
	if errs != nil {
		p.log.Debug("partial relay failure", "failed", len(errs.Errors), "relays", len(relays), "error", errs)
	}
	if finished == 0 {
		p.log.Debug("no relay sent EOSE", "relays", len(relays), "events", len(events))
	}
	return events, finished > 0, nil
}

// fetchFromRelay streams events for one relay until EOSE, close or ctx done.
// eose reports whether the relay finished sending stored events.
func (p *Pool) fetchFromRelay(ctx context.Context, relayURL string, req map[string]interface{}, out chan<- types.Event) (eose bool, err error) {
	subID := "q-" + strings.ToLower(ulid.Make().String())
	sub, err := p.Subscribe(ctx, relayURL, subID, req)
	if err != nil {
		return false, err
	}
	defer p.Unsubscribe(relayURL, sub)

	for {
		select {
		case evt := <-sub.EventChan:
			select {
			case out <- evt:
			case <-ctx.Done():
				return false, nil
			}
		case <-sub.EOSEChan:
			// drain what arrived before EOSE
			for {
				select {
				case evt := <-sub.EventChan:
					select {
					case out <- evt:
					case <-ctx.Done():
						return true, nil
					}
				default:
					return true, nil
				}
			}
		case <-sub.Done:
			return false, nil
		case <-ctx.Done():
			return false, nil
		}
	}
}

func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, have := range list {
			if have == v {
				found = true
				break
			}
		}
		if !found {
			list = append(list, v)
		}
	}
	return list
}
