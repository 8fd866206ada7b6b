package reviews

import (
	"sort"

	"github.com/cashumints/directory/pkg/models"
	"github.com/cashumints/directory/pkg/utils/urlx"
)

// Store owns the surviving review records of one query scope. Reviews are
// replaceable events: for each (author, mint) pair only the newest record
// survives, which makes ingestion idempotent and order-independent.
//
// A Store is scoped to a single logical fetch and written by a single
// goroutine; it is not safe for concurrent use.
type Store struct {
	records map[string]*models.ReviewRecord // (author, mint identifier) -> surviving record
}

// NewStore returns an empty review store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*models.ReviewRecord),
	}
}

// Ingest adds a record to the store. An existing record for the same
// (author, mint identifier) pair is replaced only if the new one is
// strictly newer; equal timestamps keep the existing record, which makes
// the outcome deterministic regardless of arrival order.
func (s *Store) Ingest(record *models.ReviewRecord) {
	if record == nil {
		return
	}

	key := record.Key()
	existing, ok := s.records[key]
	if !ok || record.CreatedAt > existing.CreatedAt {
		s.records[key] = record
	}
}

// Size returns the number of surviving records.
func (s *Store) Size() int {
	return len(s.records)
}

// Snapshot returns the surviving records sorted by creation time, newest
// first. It never mutates the store and can be called repeatedly.
func (s *Store) Snapshot() []*models.ReviewRecord {
	records := make([]*models.ReviewRecord, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt != records[j].CreatedAt {
			return records[i].CreatedAt > records[j].CreatedAt
		}
		return records[i].ID < records[j].ID
	})

	return records
}

// Aggregates derives per-mint statistics from the surviving records,
// grouped by normalized mint URL. Review counts are counts of distinct
// authors by construction, and averages are recomputed from scratch so
// replacements can never make them drift.
func (s *Store) Aggregates() []*models.MintAggregate {
	type stats struct {
		agg   *models.MintAggregate
		total int
	}

	byMint := make(map[string]*stats)
	for _, record := range s.records {
		if record.MintURL == "" {
			continue
		}

		url := urlx.Normalize(record.MintURL)
		st, ok := byMint[url]
		if !ok {
			st = &stats{
				agg: &models.MintAggregate{
					MintURL:  url,
					MintName: urlx.DisplayName(record.MintURL),
					Domain:   urlx.Domain(record.MintURL),
				},
			}
			byMint[url] = st
		}

		st.agg.ReviewCount++
		st.total += record.Rating
		if record.CreatedAt > st.agg.LastReviewAt {
			st.agg.LastReviewAt = record.CreatedAt
		}
	}

	aggregates := make([]*models.MintAggregate, 0, len(byMint))
	for _, st := range byMint {
		st.agg.AverageRating = float64(st.total) / float64(st.agg.ReviewCount)
		aggregates = append(aggregates, st.agg)
	}

	return aggregates
}
