package fetcher

const (
	// InitialFetchLimit is the per-filter limit of the first fetch. It
	// starts high because many raw events are filtered out before any
	// review survives.
	InitialFetchLimit = 500

	// FetchLimitIncrement widens the window on every load-more call.
	FetchLimitIncrement = 500
)

// paginator tracks the load-more state of one single-mint feed. The
// fetch limit only ever grows; each round refetches the widened window
// and the surviving-record count decides whether another round could
// still find anything.
type paginator struct {
	limit     int
	lastCount int  // surviving records after the previous round
	hasMore   bool // sticky false once a round yields nothing new
	fetched   bool // at least one round completed
}

func newPaginator() *paginator {
	return &paginator{
		limit:   InitialFetchLimit,
		hasMore: true,
	}
}

// widen grows the fetch window for the next load-more round.
func (p *paginator) widen() {
	p.limit += FetchLimitIncrement
}

// complete records the outcome of a fetch round and updates hasMore.
//
// On the first round there is no previous count to compare against, so
// hasMore is inferred: at least two surviving records, or a raw event
// count that filled the window, both suggest more may exist upstream.
// Later rounds compare against the previous surviving count: an unchanged
// count means the window widened past the last event there is.
func (p *paginator) complete(surviving, raw int) {
	if !p.fetched {
		p.fetched = true
		p.hasMore = surviving >= 2 || raw >= p.limit
	} else {
		p.hasMore = surviving > p.lastCount
	}

	p.lastCount = surviving
}
