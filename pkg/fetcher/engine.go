package fetcher

import (
	"context"
	"sync"
	"time"

	"github.com/cashumints/directory/pkg/models"
	"github.com/cashumints/directory/pkg/profiles"
	"github.com/cashumints/directory/pkg/reviews"
	"github.com/cashumints/directory/pkg/utils/logger"
	"github.com/cashumints/directory/pkg/utils/urlx"
	"github.com/nbd-wtf/go-nostr"
)

// Relayer is the part of the Pool the engine depends on.
type Relayer interface {
	FetchEose(ctx context.Context, filters nostr.Filters) <-chan nostr.RelayEvent
}

// PubkeyResolver resolves a mint URL to its published pubkey. The
// mintinfo.Client satisfies it.
type PubkeyResolver interface {
	Pubkey(ctx context.Context, mintURL string) (string, error)
}

// Engine is the public surface of the review engine. One Engine serves
// every scope; each logical query owns its own store and subscription,
// and starting a new fetch for a scope cancels the previous one so two
// writers never race into the same result set.
type Engine struct {
	relay    Relayer
	resolver PubkeyResolver
	profiles *profiles.Cache
	log      *logger.Aggregate
	timeout  time.Duration

	mu     sync.Mutex
	scopes map[string]*scope
}

// scope is the session state of one logical query.
type scope struct {
	store      *reviews.Store
	pager      *paginator
	mintPubkey string // resolved mint pubkey, empty when /v1/info failed
	cancel     context.CancelFunc
}

// NewEngine wires the engine. cache may be nil when profile enrichment
// is not wanted.
func NewEngine(relay Relayer, resolver PubkeyResolver, cache *profiles.Cache, log *logger.Aggregate) *Engine {
	return &Engine{
		relay:    relay,
		resolver: resolver,
		profiles: cache,
		log:      log,
		timeout:  FetchTimeout,
		scopes:   make(map[string]*scope),
	}
}

// SetTimeout overrides the per-round subscription deadline.
func (e *Engine) SetTimeout(d time.Duration) {
	if d > 0 {
		e.timeout = d
	}
}

// FetchReviews runs a fresh fetch of the review feed of one mint. Any
// previous session state for the mint is discarded.
func (e *Engine) FetchReviews(ctx context.Context, mintURL string) (*models.ReviewFeed, error) {
	if mintURL == "" {
		return nil, models.ErrEmptyMintURL
	}

	sc, ctx, cancel := e.resetScope(ctx, keyMint(mintURL))
	defer cancel()

	sc.mintPubkey = e.resolvePubkey(ctx, mintURL)
	return e.fetchMintRound(ctx, sc, mintURL), nil
}

// LoadMoreReviews widens the fetch window of an ongoing feed session and
// refetches. The returned feed is cumulative. Without a prior
// FetchReviews for the mint it behaves like one.
func (e *Engine) LoadMoreReviews(ctx context.Context, mintURL string) (*models.ReviewFeed, error) {
	if mintURL == "" {
		return nil, models.ErrEmptyMintURL
	}

	e.mu.Lock()
	sc, ok := e.scopes[keyMint(mintURL)]
	e.mu.Unlock()

	if !ok {
		return e.FetchReviews(ctx, mintURL)
	}

	sc, ctx, cancel := e.continueScope(ctx, keyMint(mintURL), sc)
	defer cancel()

	sc.pager.widen()
	return e.fetchMintRound(ctx, sc, mintURL), nil
}

// fetchMintRound drives one bounded subscription round for a single-mint
// scope and settles pagination.
func (e *Engine) fetchMintRound(ctx context.Context, sc *scope, mintURL string) *models.ReviewFeed {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	// identity under which every matched record is deduplicated
	mintID := sc.mintPubkey
	if mintID == "" {
		mintID = urlx.Normalize(mintURL)
	}

	filters := MintFilters(mintURL, sc.mintPubkey, sc.pager.limit)

	raw := collect(ctx, e.relay.FetchEose(ctx, filters), func(event *nostr.Event) {
		record, err := reviews.ParseReview(event)
		if err != nil {
			return
		}

		if !reviews.Valid(record) {
			return
		}

		match := reviews.MatchMint(record, mintURL, sc.mintPubkey)
		if match == reviews.NoMatch {
			return
		}

		record.Canonical = match == reviews.MatchCanonical
		record.MintID = mintID
		if record.MintURL == "" {
			record.MintURL = mintURL
		}

		sc.store.Ingest(record)
	})

	sc.pager.complete(sc.store.Size(), raw)
	e.log.Info("mint %s: %d raw events, %d surviving reviews, hasMore=%t",
		mintURL, raw, sc.store.Size(), sc.pager.hasMore)

	return &models.ReviewFeed{
		Reviews: sc.store.Snapshot(),
		HasMore: sc.pager.hasMore,
	}
}

// FetchPopularMints scans recent Cashu reviews across all mints and
// returns the top mints ranked by the composite volume/quality score.
func (e *Engine) FetchPopularMints(ctx context.Context, limit int) ([]*models.MintAggregate, error) {
	sc, ctx, cancel := e.resetScope(ctx, "popular")
	defer cancel()

	e.fetchGlobalRound(ctx, sc)
	return reviews.Rank(sc.store.Aggregates(), limit), nil
}

// FetchGlobalReviews returns the most recent surviving Cashu reviews
// across all mints, newest first.
func (e *Engine) FetchGlobalReviews(ctx context.Context, limit int) ([]*models.ReviewRecord, error) {
	sc, ctx, cancel := e.resetScope(ctx, "global")
	defer cancel()

	e.fetchGlobalRound(ctx, sc)

	records := sc.store.Snapshot()
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// FetchAllMints lists every announced mint, alphabetically, with review
// statistics merged in where reviews exist. Unlike the popular ranking it
// keeps mints without a single review.
func (e *Engine) FetchAllMints(ctx context.Context) ([]*models.MintAggregate, error) {
	sc, ctx, cancel := e.resetScope(ctx, "mints")
	defer cancel()

	announced := e.fetchAnnouncements(ctx)
	e.fetchGlobalRound(ctx, sc)

	byURL := make(map[string]*models.MintAggregate, len(announced))
	for _, agg := range announced {
		byURL[agg.MintURL] = agg
	}

	// review stats override the empty announcement entries
	for _, agg := range sc.store.Aggregates() {
		byURL[agg.MintURL] = agg
	}

	all := make([]*models.MintAggregate, 0, len(byURL))
	for _, agg := range byURL {
		all = append(all, agg)
	}

	reviews.SortByName(all)
	return all, nil
}

// fetchGlobalRound runs the all-mints review pipeline: same parser,
// validator and store as the single-mint path, but gated on the
// Cashu-vs-Fedimint heuristic instead of a target mint.
func (e *Engine) fetchGlobalRound(ctx context.Context, sc *scope) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	filters := GlobalReviewFilters(sc.pager.limit)

	raw := collect(ctx, e.relay.FetchEose(ctx, filters), func(event *nostr.Event) {
		record, err := reviews.ParseReview(event)
		if err != nil {
			return
		}

		if record.MintURL == "" {
			// without a URL the review cannot be attributed to a mint
			return
		}

		if !reviews.Valid(record) {
			return
		}

		if !reviews.IsCashuReview(record) {
			return
		}

		record.Canonical = record.MintPubkey != "" && record.RefKind == cashuKindTag

		// every record here carries a URL, so it is the one identity
		// under which an author's canonical replacement supersedes
		// their older legacy review of the same mint
		record.MintID = urlx.Normalize(record.MintURL)

		sc.store.Ingest(record)
	})

	sc.pager.complete(sc.store.Size(), raw)
	e.log.Info("global scan: %d raw events, %d surviving reviews", raw, sc.store.Size())
}

// fetchAnnouncements collects kind 38172 mint announcements into empty
// aggregates, one per distinct URL.
func (e *Engine) fetchAnnouncements(ctx context.Context) []*models.MintAggregate {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	byURL := make(map[string]*models.MintAggregate)
	collect(ctx, e.relay.FetchEose(ctx, AnnouncementFilters(1000)), func(event *nostr.Event) {
		announcement, err := reviews.ParseAnnouncement(event)
		if err != nil {
			return
		}

		url := urlx.Normalize(announcement.MintURL)
		if _, ok := byURL[url]; ok {
			return
		}

		byURL[url] = &models.MintAggregate{
			MintURL:  url,
			MintName: urlx.DisplayName(announcement.MintURL),
			Domain:   urlx.Domain(announcement.MintURL),
		}
	})

	announced := make([]*models.MintAggregate, 0, len(byURL))
	for _, agg := range byURL {
		announced = append(announced, agg)
	}
	return announced
}

// ResolveAuthors warms the shared profile cache for the authors of the
// given records. Purely cosmetic; errors are absorbed by the cache.
func (e *Engine) ResolveAuthors(ctx context.Context, records []*models.ReviewRecord) {
	if e.profiles == nil {
		return
	}

	seen := make(map[string]bool, len(records))
	pubkeys := make([]string, 0, len(records))
	for _, record := range records {
		if !seen[record.Author] {
			seen[record.Author] = true
			pubkeys = append(pubkeys, record.Author)
		}
	}

	e.profiles.Resolve(ctx, pubkeys)
}

// ProfileOf returns the cached profile of an author, if any.
func (e *Engine) ProfileOf(pubkey string) (*models.Profile, bool) {
	if e.profiles == nil {
		return nil, false
	}
	return e.profiles.Get(pubkey)
}

// resetScope discards any session state of the scope, cancels its
// running subscription, and installs a fresh store and paginator.
func (e *Engine) resetScope(ctx context.Context, key string) (*scope, context.Context, context.CancelFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if prev, ok := e.scopes[key]; ok && prev.cancel != nil {
		prev.cancel()
	}

	ctx, cancel := context.WithCancel(ctx)
	sc := &scope{
		store:  reviews.NewStore(),
		pager:  newPaginator(),
		cancel: cancel,
	}
	e.scopes[key] = sc

	return sc, ctx, cancel
}

// continueScope keeps the store and paginator of an ongoing session but
// cancels its previous subscription before starting a new one.
func (e *Engine) continueScope(ctx context.Context, key string, sc *scope) (*scope, context.Context, context.CancelFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if sc.cancel != nil {
		sc.cancel()
	}

	ctx, cancel := context.WithCancel(ctx)
	sc.cancel = cancel
	e.scopes[key] = sc

	return sc, ctx, cancel
}

// resolvePubkey fetches the mint's published pubkey, degrading to the
// legacy URL heuristic when the mint info endpoint is unreachable.
func (e *Engine) resolvePubkey(ctx context.Context, mintURL string) string {
	if e.resolver == nil {
		return ""
	}

	pubkey, err := e.resolver.Pubkey(ctx, mintURL)
	if err != nil {
		e.log.Warn("mint %s: pubkey resolution failed, using legacy matching only: %v", mintURL, err)
		return ""
	}

	if pubkey != "" && !nostr.IsValidPublicKey(pubkey) {
		e.log.Warn("mint %s: /v1/info returned malformed pubkey %q", mintURL, pubkey)
		return ""
	}

	return pubkey
}

// keyMint returns the scope key of a single-mint feed.
func keyMint(mintURL string) string {
	return "mint:" + urlx.Normalize(mintURL)
}
