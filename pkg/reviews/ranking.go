package reviews

import (
	"sort"

	"github.com/cashumints/directory/pkg/models"
)

// Composite score constants. A raw average would rank a mint with one
// 5-star review above one with fifty 4.8-star reviews, so a bounded
// volume bonus is added on top: up to VolumeBonusWeight, saturating at
// VolumeBonusCap reviews.
const (
	VolumeBonusWeight = 0.5
	VolumeBonusCap    = 20
)

// Score returns the composite ranking score of a mint:
// averageRating + VolumeBonusWeight * min(reviewCount, cap) / cap.
func Score(agg *models.MintAggregate) float64 {
	count := agg.ReviewCount
	if count > VolumeBonusCap {
		count = VolumeBonusCap
	}

	return agg.AverageRating + VolumeBonusWeight*float64(count)/float64(VolumeBonusCap)
}

// Rank orders mint aggregates by composite score and returns the top
// limit entries. Ties break on review count, then on the most recent
// review. Mints without any surviving review are excluded; they still
// show up in the unranked all-mints listing.
func Rank(aggregates []*models.MintAggregate, limit int) []*models.MintAggregate {
	ranked := make([]*models.MintAggregate, 0, len(aggregates))
	for _, agg := range aggregates {
		if agg.ReviewCount > 0 {
			ranked = append(ranked, agg)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		scoreI, scoreJ := Score(ranked[i]), Score(ranked[j])
		if scoreI != scoreJ {
			return scoreI > scoreJ
		}

		if ranked[i].ReviewCount != ranked[j].ReviewCount {
			return ranked[i].ReviewCount > ranked[j].ReviewCount
		}

		return ranked[i].LastReviewAt > ranked[j].LastReviewAt
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}

// SortByName orders aggregates alphabetically for the unranked
// all-mints listing.
func SortByName(aggregates []*models.MintAggregate) {
	sort.Slice(aggregates, func(i, j int) bool {
		if aggregates[i].MintName != aggregates[j].MintName {
			return aggregates[i].MintName < aggregates[j].MintName
		}
		return aggregates[i].MintURL < aggregates[j].MintURL
	})
}
