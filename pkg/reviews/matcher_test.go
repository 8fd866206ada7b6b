package reviews

import (
	"testing"

	"github.com/cashumints/directory/pkg/models"
)

func TestMatchMint(t *testing.T) {
	testCases := []struct {
		name         string
		record       *models.ReviewRecord
		targetURL    string
		targetPubkey string
		expected     Match
	}{
		{
			name:      "nil record",
			record:    nil,
			targetURL: "mint.example.com",
			expected:  NoMatch,
		},
		{
			name:      "empty target URL",
			record:    &models.ReviewRecord{MintURL: "mint.example.com"},
			targetURL: "",
			expected:  NoMatch,
		},
		{
			name: "canonical match",
			record: &models.ReviewRecord{
				MintPubkey: mintPubkey,
				RefKind:    "38172",
			},
			targetURL:    "mint.example.com",
			targetPubkey: mintPubkey,
			expected:     MatchCanonical,
		},
		{
			name: "canonical pubkey without referenced kind is not canonical",
			record: &models.ReviewRecord{
				MintPubkey: mintPubkey,
			},
			targetURL:    "mint.example.com",
			targetPubkey: mintPubkey,
			expected:     NoMatch,
		},
		{
			name: "legacy match ignores scheme and trailing slash",
			record: &models.ReviewRecord{
				MintURL: "https://mint.example.com/",
			},
			targetURL: "mint.example.com",
			expected:  MatchLegacy,
		},
		{
			name: "legacy match ignores case",
			record: &models.ReviewRecord{
				MintURL: "https://Mint.Example.Com",
			},
			targetURL: "mint.example.com",
			expected:  MatchLegacy,
		},
		{
			name: "legacy domain match strips www",
			record: &models.ReviewRecord{
				MintURL: "https://www.mint.example.com/cashu",
			},
			targetURL: "mint.example.com",
			expected:  MatchLegacy,
		},
		{
			name: "content mention alone never matches",
			record: &models.ReviewRecord{
				Content: "great place, check mint.example.com",
			},
			targetURL: "mint.example.com",
			expected:  NoMatch,
		},
		{
			name: "different domain rejected",
			record: &models.ReviewRecord{
				MintURL: "https://other.example.org",
			},
			targetURL: "mint.example.com",
			expected:  NoMatch,
		},
		{
			name: "subdomain is not the same mint",
			record: &models.ReviewRecord{
				MintURL: "https://test.mint.example.com",
			},
			targetURL: "mint.example.com",
			expected:  NoMatch,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			match := MatchMint(test.record, test.targetURL, test.targetPubkey)
			if match != test.expected {
				t.Fatalf("MatchMint(): expected %v, got %v", test.expected, match)
			}
		})
	}
}

// MatchMint is a pure function: repeated calls with the same inputs give
// the same answer regardless of what was matched before.
func TestMatchMintPurity(t *testing.T) {
	record := &models.ReviewRecord{MintURL: "https://mint.example.com/"}
	other := &models.ReviewRecord{MintURL: "https://unrelated.org"}

	first := MatchMint(record, "mint.example.com", "")
	MatchMint(other, "unrelated.org", mintPubkey)
	MatchMint(record, "somewhere-else.net", "")
	second := MatchMint(record, "mint.example.com", "")

	if first != second {
		t.Fatalf("MatchMint(): expected stable result, got %v then %v", first, second)
	}
}

func TestIsCashuReview(t *testing.T) {
	testCases := []struct {
		name     string
		record   *models.ReviewRecord
		expected bool
	}{
		{
			name:     "nil record",
			record:   nil,
			expected: false,
		},
		{
			name:     "canonical k tag settles it",
			record:   &models.ReviewRecord{RefKind: "38172"},
			expected: true,
		},
		{
			name:     "no URL and no k tag",
			record:   &models.ReviewRecord{Content: "cashu is great"},
			expected: false,
		},
		{
			name:     "fedi URL excluded",
			record:   &models.ReviewRecord{MintURL: "https://fedimint.example.com", Content: "cashu rocks"},
			expected: false,
		},
		{
			name:     "fedi content excluded",
			record:   &models.ReviewRecord{MintURL: "https://example.com", Content: "our federation guardian is solid"},
			expected: false,
		},
		{
			name:     "cashu URL pattern",
			record:   &models.ReviewRecord{MintURL: "https://mint.example.com", Content: "good one"},
			expected: true,
		},
		{
			name:     "cashu content term",
			record:   &models.ReviewRecord{MintURL: "https://example.com", Content: "best ecash experience so far"},
			expected: true,
		},
		{
			name:     "nothing cashu about it",
			record:   &models.ReviewRecord{MintURL: "https://example.com", Content: "nice website"},
			expected: false,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			if got := IsCashuReview(test.record); got != test.expected {
				t.Fatalf("IsCashuReview(): expected %t, got %t", test.expected, got)
			}
		})
	}
}
