package fetcher

import (
	"context"
	"strconv"
	"time"

	"github.com/cashumints/directory/pkg/models"
	"github.com/cashumints/directory/pkg/utils/urlx"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/nbd-wtf/go-nostr"
)

const (
	// FetchTimeout bounds a single subscription round. On expiry whatever
	// accumulated is delivered as a best-effort partial result.
	FetchTimeout = 15 * time.Second

	// GlobalWindow limits the popular-mints and recent-review scans to
	// recent history.
	GlobalWindow = 90 * 24 * time.Hour
)

var cashuKindTag = strconv.Itoa(models.KindCashuMint)

// MintFilters builds the subscription filters for a single-mint scope.
// Two independent filters run together, unioned by event id:
//
//   - the canonical NIP-87 filter, keyed on the mint's published pubkey;
//   - the legacy filter, keyed on every historical spelling of the URL.
//
// mintPubkey may be empty when /v1/info could not be reached; the
// canonical filter is then omitted and the fetch degrades to legacy-only.
func MintFilters(mintURL, mintPubkey string, limit int) nostr.Filters {
	var filters nostr.Filters

	if mintPubkey != "" {
		filters = append(filters, nostr.Filter{
			Kinds: []int{models.KindMintRecommendation},
			Tags: nostr.TagMap{
				"d": []string{mintPubkey},
				"k": []string{cashuKindTag},
			},
			Limit: limit,
		})
	}

	filters = append(filters, nostr.Filter{
		Kinds: []int{models.KindMintRecommendation},
		Tags: nostr.TagMap{
			"u": urlx.Variants(mintURL),
		},
		Limit: limit,
	})

	return filters
}

// GlobalReviewFilters builds the filters for the all-mints review scans:
// canonical Cashu reviews plus a broad kind scan for legacy events, both
// bounded to the recent window. Fedimint reviews slip through the broad
// filter and are dropped client-side.
func GlobalReviewFilters(limit int) nostr.Filters {
	since := nostr.Timestamp(time.Now().Add(-GlobalWindow).Unix())

	return nostr.Filters{
		{
			Kinds: []int{models.KindMintRecommendation},
			Tags:  nostr.TagMap{"k": []string{cashuKindTag}},
			Limit: limit,
			Since: &since,
		},
		{
			Kinds: []int{models.KindMintRecommendation},
			Limit: limit,
			Since: &since,
		},
	}
}

// AnnouncementFilters builds the filter for the kind 38172 mint
// announcement listing.
func AnnouncementFilters(limit int) nostr.Filters {
	return nostr.Filters{{
		Kinds: []int{models.KindCashuMint},
		Limit: limit,
	}}
}

// collect drains the merged relay event channel, invoking handle once per
// distinct event id. The same event arrives from several relays, and an
// event matching both the canonical and the legacy filter arrives twice
// even from one relay, so ids are deduplicated before any matching runs.
//
// collect returns the raw count of distinct events seen. It ends when the
// channel closes (every relay signalled EOSE) or ctx expires; a timeout
// is not an error, partial results stand.
func collect(ctx context.Context, events <-chan nostr.RelayEvent, handle func(*nostr.Event)) int {
	seen := mapset.NewThreadUnsafeSet[string]()

	for {
		select {
		case <-ctx.Done():
			return seen.Cardinality()

		case event, ok := <-events:
			if !ok {
				return seen.Cardinality()
			}

			if event.Event == nil {
				continue
			}

			if !seen.Add(event.ID) {
				continue
			}

			handle(event.Event)
		}
	}
}
