// The reviews package implements the review pipeline: parsing and
// validating raw nostr events, matching them against a target mint,
// deduplicating by author, and ranking the resulting mint aggregates.
// Single-mint, all-mint and global-recent queries all flow through the
// same parser, matcher and store; only the filters and ranking differ.
package reviews

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cashumints/directory/pkg/models"
	"github.com/nbd-wtf/go-nostr"
)

// DefaultRating is assumed when an event carries no recognizable rating.
const DefaultRating = 5

var (
	bracketRatingRegexp = regexp.MustCompile(`^\s*\[([1-5])/5\]`)
	looseRatingRegexp   = regexp.MustCompile(`(?i)rating[:\s]*([1-5])|([1-5])/5|([1-5])\s*star`)

	ratingPrefixRegexp  = regexp.MustCompile(`^\s*\[\d/5\]\s*`)
	reviewFooterRegexp  = regexp.MustCompile(`(?i)\n\nReviewing:\s*https?://\S+$`)
	sentenceSplitRegexp = regexp.MustCompile(`[.!?]`)
)

// ParseReview converts a raw event into a ReviewRecord. It returns an
// error when the event cannot be a review at all: wrong kind, or no tag
// identifying which mint it refers to. Whether the record belongs to a
// particular mint is the matcher's call, not the parser's.
func ParseReview(event *nostr.Event) (*models.ReviewRecord, error) {
	if event == nil {
		return nil, models.ErrNilEventPointer
	}

	if event.Kind != models.KindMintRecommendation {
		return nil, models.ErrWrongKind
	}

	dTag := firstTagValue(event.Tags, "d")
	uTag := firstTagValue(event.Tags, "u")
	kTag := firstTagValue(event.Tags, "k")
	aTag := firstTagValue(event.Tags, "a")

	if dTag == "" && uTag == "" {
		return nil, models.ErrNoMintIdentifier
	}

	rating := ExtractRating(firstTagValue(event.Tags, "rating"), event.Content)

	return &models.ReviewRecord{
		ID:         event.ID,
		Author:     event.PubKey,
		MintURL:    uTag,
		MintPubkey: dTag,
		RefKind:    kTag,
		Rating:     rating,
		Title:      ExtractTitle(event.Content),
		Content:    event.Content,
		CreatedAt:  event.CreatedAt.Time().Unix(),
		Address:    aTag,
		Sig:        event.Sig,
	}, nil
}

// ExtractRating pulls a 1-5 rating out of the rating tag or the content.
// Extraction order: explicit tag, leading "[N/5]" bracket, loose in-content
// patterns ("rating: N", "N/5", "N star"), then DefaultRating.
func ExtractRating(ratingTag, content string) int {
	if ratingTag != "" {
		if rating, err := strconv.Atoi(strings.TrimSpace(ratingTag)); err == nil {
			if rating >= models.MinRating && rating <= models.MaxRating {
				return rating
			}
		}
	}

	if match := bracketRatingRegexp.FindStringSubmatch(content); match != nil {
		rating, _ := strconv.Atoi(match[1])
		return rating
	}

	if match := looseRatingRegexp.FindStringSubmatch(content); match != nil {
		// only one of the three capture groups is set per match
		for _, group := range match[1:] {
			if group != "" {
				rating, _ := strconv.Atoi(group)
				return rating
			}
		}
	}

	return DefaultRating
}

// ExtractTitle derives a short display title from the content: the first
// sentence or line of reasonable length, with the rating prefix removed,
// otherwise a 60-character truncation.
func ExtractTitle(content string) string {
	clean := ratingPrefixRegexp.ReplaceAllString(content, "")

	if sentence := firstSegment(sentenceSplitRegexp.Split(clean, -1)); sentence != "" {
		return sentence
	}

	if line := firstSegment(strings.Split(clean, "\n")); line != "" {
		return line
	}

	if len(clean) > 60 {
		return clean[:60] + "..."
	}
	return clean
}

// CleanContent strips the rating prefix and "Reviewing: <url>" footer,
// leaving just the review text for display.
func CleanContent(content string) string {
	clean := ratingPrefixRegexp.ReplaceAllString(content, "")
	clean = reviewFooterRegexp.ReplaceAllString(clean, "")
	return strings.TrimSpace(clean)
}

// firstSegment returns the first trimmed segment of presentable title
// length, or the empty string.
func firstSegment(segments []string) string {
	if len(segments) == 0 {
		return ""
	}

	segment := strings.TrimSpace(segments[0])
	if len(segment) > 5 && len(segment) < 120 {
		return segment
	}
	return ""
}

// firstTagValue returns the value of the first tag with the given name,
// or the empty string. Badly formatted tags are ignored.
func firstTagValue(tags nostr.Tags, name string) string {
	for _, tag := range tags {
		if len(tag) < 2 {
			continue
		}

		if tag[0] == name {
			return tag[1]
		}
	}
	return ""
}
