package reviews

import (
	"regexp"

	"github.com/cashumints/directory/pkg/models"
)

// spamRunLength is the length of an identical-character run that marks
// content as spam.
const spamRunLength = 11

// links to disposable-domain TLDs commonly used by spam campaigns
var disposableURLRegexp = regexp.MustCompile(`(?i)https?://\S+\.(tk|ml|ga|cf)`)

// Valid reports whether a parsed record passes the spam and sanity
// checks. Invalid records are dropped, never surfaced as errors.
func Valid(record *models.ReviewRecord) bool {
	if record == nil {
		return false
	}

	if len(record.Content) < models.MinContentLength {
		return false
	}

	if len(record.Content) > models.MaxContentLength {
		return false
	}

	if record.Rating < models.MinRating || record.Rating > models.MaxRating {
		return false
	}

	if hasRepeatedRun(record.Content, spamRunLength) {
		return false
	}

	if disposableURLRegexp.MatchString(record.Content) {
		return false
	}

	return true
}

// hasRepeatedRun reports whether the string contains a run of at least
// n identical consecutive runes.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	var run int

	for _, r := range s {
		if r == prev {
			run++
			if run >= n {
				return true
			}
			continue
		}

		prev = r
		run = 1
	}

	return false
}
