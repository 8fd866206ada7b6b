// The fetcher package connects to the relay set, drives bounded
// subscriptions against it, and exposes the public query surface of the
// review engine: per-mint review feeds with pagination, the popular-mint
// ranking, the global recent-review feed and the all-mints listing.
package fetcher

import (
	"context"
	"sync"

	"github.com/cashumints/directory/pkg/utils/logger"
	"github.com/nbd-wtf/go-nostr"
)

// DefaultRelays is the relay set queried for reviews. The cashumints
// relay is the primary home of kind 38000/38172 events.
var DefaultRelays = []string{
	"wss://relay.cashumints.space",
	"wss://relay.damus.io",
	"wss://nos.lol",
	"wss://relay.primal.net",
	"wss://relay.snort.social",
}

// FallbackRelay is tried once, alone, if no primary relay connects.
const FallbackRelay = "wss://relay.damus.io"

// Pool holds the open relay connections of the engine. Connecting to any
// subset of the endpoints, including none, is not a failure: a pool with
// zero live relays yields subscriptions that complete empty at timeout.
type Pool struct {
	pool *nostr.SimplePool
	log  *logger.Aggregate

	mu   sync.Mutex
	urls []string // relays that connected
}

// Connect opens the relay endpoints in parallel and returns the pool.
// Unreachable endpoints are logged and skipped. If not a single primary
// endpoint connects, the fallback relay is attempted once; beyond that
// there are no retries.
func Connect(ctx context.Context, log *logger.Aggregate, relays []string, fallback string) *Pool {
	p := &Pool{
		pool: nostr.NewSimplePool(ctx),
		log:  log,
	}

	var wg sync.WaitGroup
	for _, url := range relays {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()

			if _, err := p.pool.EnsureRelay(url); err != nil {
				log.Warn("relay %s unreachable: %v", url, err)
				return
			}

			p.mu.Lock()
			p.urls = append(p.urls, url)
			p.mu.Unlock()
		}(url)
	}
	wg.Wait()

	if len(p.urls) == 0 && fallback != "" {
		log.Warn("no primary relay connected, trying fallback %s", fallback)

		if _, err := p.pool.EnsureRelay(fallback); err != nil {
			log.Error("fallback relay %s unreachable: %v", fallback, err)
		} else {
			p.urls = append(p.urls, fallback)
		}
	}

	log.Info("relay pool ready: %d/%d endpoints connected", len(p.urls), len(relays))
	return p
}

// Relays returns the URLs of the connected relays.
func (p *Pool) Relays() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	urls := make([]string, len(p.urls))
	copy(urls, p.urls)
	return urls
}

// FetchEose fans the filters out to every connected relay and returns the
// merged event channel. The channel closes once every relay signalled
// end-of-stored-events or ctx expires, whichever comes first.
func (p *Pool) FetchEose(ctx context.Context, filters nostr.Filters) <-chan nostr.RelayEvent {
	return p.pool.SubManyEose(ctx, p.Relays(), filters)
}

// Close shuts down every relay connection in the pool.
func (p *Pool) Close() {
	p.log.Info("closing relay connections...")
	p.pool.Relays.Range(func(_ string, relay *nostr.Relay) bool {
		relay.Close()
		return true
	})
}
