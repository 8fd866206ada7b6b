package reviews

import (
	"strconv"
	"strings"

	"github.com/cashumints/directory/pkg/models"
	"github.com/cashumints/directory/pkg/utils/urlx"
)

// Match classifies how a record relates to a target mint.
type Match int

const (
	NoMatch Match = iota

	// MatchCanonical means the record carries the mint's published pubkey
	// in its "d" tag and references the Cashu announcement kind.
	MatchCanonical

	// MatchLegacy means the record's "u" tag resolves to the same URL or
	// domain as the target. Pre-NIP-87 reviews only carry URLs.
	MatchLegacy
)

var cashuMintKindTag = strconv.Itoa(models.KindCashuMint)

// MatchMint decides whether a parsed record pertains to the target mint.
// targetPubkey may be empty when the mint's /v1/info was unreachable; the
// decision then degrades to the legacy URL comparison. The function is
// pure: same inputs, same answer, no hidden state.
//
// There is deliberately no content-based fallback. Matching reviews on
// mere mentions of a mint URL in free text produces too many false
// positives.
func MatchMint(record *models.ReviewRecord, targetURL, targetPubkey string) Match {
	if record == nil || targetURL == "" {
		return NoMatch
	}

	if targetPubkey != "" &&
		record.MintPubkey == targetPubkey &&
		record.RefKind == cashuMintKindTag {
		return MatchCanonical
	}

	if record.MintURL == "" {
		return NoMatch
	}

	recordURL := urlx.Normalize(record.MintURL)
	mintURL := urlx.Normalize(targetURL)

	if recordURL == mintURL {
		return MatchLegacy
	}

	recordDomain := urlx.StripWWW(urlx.Domain(record.MintURL))
	mintDomain := urlx.StripWWW(urlx.Domain(targetURL))

	if recordDomain == mintDomain && strings.Contains(mintDomain, ".") {
		return MatchLegacy
	}

	return NoMatch
}

// Cashu-specific signals used to keep Fedimint reviews out of the global
// feeds. Kind 38000 is shared between ecash implementations, so legacy
// events need URL and content heuristics.
var (
	cashuURLPatterns = []string{"cashu", "mint", "/v1/info", "/api/v1/"}

	cashuContentTerms = []string{"cashu", "ecash", "blind signature", "lightning", "nuts", "chaumian"}
	fediContentTerms  = []string{"fedi", "fedimint", "federation", "guardian"}
)

// IsCashuReview reports whether a record reviews a Cashu mint rather than
// a Fedimint federation. A "k" tag referencing the Cashu announcement
// kind settles it; otherwise URL and content terms decide.
func IsCashuReview(record *models.ReviewRecord) bool {
	if record == nil {
		return false
	}

	if record.RefKind == cashuMintKindTag {
		return true
	}

	if record.MintURL == "" {
		return false
	}

	url := strings.ToLower(record.MintURL)
	if strings.Contains(url, "fedi") {
		return false
	}

	content := strings.ToLower(record.Content)
	for _, term := range fediContentTerms {
		if strings.Contains(content, term) {
			return false
		}
	}

	for _, pattern := range cashuURLPatterns {
		if strings.Contains(url, pattern) {
			return true
		}
	}

	for _, term := range cashuContentTerms {
		if strings.Contains(content, term) {
			return true
		}
	}

	return false
}
