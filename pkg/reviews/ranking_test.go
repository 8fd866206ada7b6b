package reviews

import (
	"math"
	"reflect"
	"testing"

	"github.com/cashumints/directory/pkg/models"
)

func TestScore(t *testing.T) {
	testCases := []struct {
		name          string
		agg           *models.MintAggregate
		expectedScore float64
	}{
		{
			name:          "bonus saturates at the cap",
			agg:           &models.MintAggregate{AverageRating: 4.0, ReviewCount: 20},
			expectedScore: 4.5,
		},
		{
			name:          "single review gets a sliver of bonus",
			agg:           &models.MintAggregate{AverageRating: 4.5, ReviewCount: 1},
			expectedScore: 4.525,
		},
		{
			name:          "count above the cap adds nothing more",
			agg:           &models.MintAggregate{AverageRating: 4.0, ReviewCount: 500},
			expectedScore: 4.5,
		},
		{
			name:          "half the cap gets half the bonus",
			agg:           &models.MintAggregate{AverageRating: 3.0, ReviewCount: 10},
			expectedScore: 3.25,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			score := Score(test.agg)
			if math.Abs(score-test.expectedScore) > 1e-9 {
				t.Fatalf("Score(): expected %f, got %f", test.expectedScore, score)
			}
		})
	}
}

func TestRank(t *testing.T) {
	volume := &models.MintAggregate{MintURL: "volume.mint", AverageRating: 4.8, ReviewCount: 50, LastReviewAt: 10}
	lucky := &models.MintAggregate{MintURL: "lucky.mint", AverageRating: 5.0, ReviewCount: 1, LastReviewAt: 99}
	steady := &models.MintAggregate{MintURL: "steady.mint", AverageRating: 4.0, ReviewCount: 20, LastReviewAt: 50}
	unreviewed := &models.MintAggregate{MintURL: "silent.mint", ReviewCount: 0}

	// volume: 4.8 + 0.5 = 5.3; lucky: 5.0 + 0.025 = 5.025; steady: 4.5
	ranked := Rank([]*models.MintAggregate{lucky, steady, unreviewed, volume}, 0)

	expected := []string{"volume.mint", "lucky.mint", "steady.mint"}
	if len(ranked) != len(expected) {
		t.Fatalf("Rank(): expected %d mints, got %d", len(expected), len(ranked))
	}

	for i, agg := range ranked {
		if agg.MintURL != expected[i] {
			t.Fatalf("Rank(): expected %v, got %s at %d", expected, agg.MintURL, i)
		}
	}
}

func TestRankTieBreaks(t *testing.T) {
	// identical scores: count decides, then recency
	busyOld := &models.MintAggregate{MintURL: "busy-old.mint", AverageRating: 4.0, ReviewCount: 20, LastReviewAt: 10}
	busyNew := &models.MintAggregate{MintURL: "busy-new.mint", AverageRating: 4.0, ReviewCount: 20, LastReviewAt: 90}
	bigger := &models.MintAggregate{MintURL: "bigger.mint", AverageRating: 4.0, ReviewCount: 40, LastReviewAt: 5}

	ranked := Rank([]*models.MintAggregate{busyOld, busyNew, bigger}, 0)

	expected := []string{"bigger.mint", "busy-new.mint", "busy-old.mint"}
	for i, agg := range ranked {
		if agg.MintURL != expected[i] {
			t.Fatalf("Rank(): expected %v, got %s at %d", expected, agg.MintURL, i)
		}
	}
}

func TestRankDeterminism(t *testing.T) {
	aggregates := []*models.MintAggregate{
		{MintURL: "a.mint", AverageRating: 4.2, ReviewCount: 7, LastReviewAt: 30},
		{MintURL: "b.mint", AverageRating: 4.9, ReviewCount: 2, LastReviewAt: 80},
		{MintURL: "c.mint", AverageRating: 3.1, ReviewCount: 60, LastReviewAt: 10},
		{MintURL: "d.mint", AverageRating: 4.2, ReviewCount: 7, LastReviewAt: 30},
	}

	first := Rank(aggregates, 0)
	for trial := 0; trial < 10; trial++ {
		if again := Rank(aggregates, 0); !reflect.DeepEqual(first, again) {
			t.Fatalf("Rank(): non-deterministic order across calls")
		}
	}
}

func TestRankLimit(t *testing.T) {
	aggregates := []*models.MintAggregate{
		{MintURL: "a.mint", AverageRating: 5, ReviewCount: 5},
		{MintURL: "b.mint", AverageRating: 4, ReviewCount: 5},
		{MintURL: "c.mint", AverageRating: 3, ReviewCount: 5},
	}

	if ranked := Rank(aggregates, 2); len(ranked) != 2 {
		t.Fatalf("Rank(): expected 2 mints, got %d", len(ranked))
	}
}
