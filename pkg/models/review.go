// The models package defines the core types shared by the review pipeline:
// review records, mint aggregates and author profiles.
package models

import (
	"errors"
	"fmt"
)

const (
	// KindMintRecommendation is the NIP-87 mint recommendation/review event kind.
	KindMintRecommendation = 38000

	// KindCashuMint is the NIP-87 Cashu mint announcement event kind.
	KindCashuMint = 38172
)

const (
	MinRating = 1
	MaxRating = 5

	MinContentLength = 10
	MaxContentLength = 2000
)

// ReviewRecord is a validated review derived from a single nostr event.
// Exactly one record exists per raw event that passed validation.
type ReviewRecord struct {
	ID         string // event id (content hash)
	Author     string // reviewer pubkey
	MintURL    string // mint URL, from the "u" tag
	MintPubkey string // mint pubkey, from the "d" tag
	RefKind    string // referenced announcement kind, from the "k" tag
	MintID     string // dedup identifier, filled by the pipeline: mint pubkey when canonical, normalized URL otherwise
	Rating     int    // always within [MinRating, MaxRating]
	Title      string
	Content    string
	CreatedAt  int64  // unix seconds
	Canonical  bool   // matched via the mint pubkey rather than the legacy URL heuristic
	Address    string // "a" tag pointing back to the announcement, informational
	Sig        string // pass-through, never verified here
}

// Key returns the dedup key of the record. One surviving record exists
// per (author, mint identifier) pair.
func (r *ReviewRecord) Key() string {
	return fmt.Sprintf("%s:%s", r.Author, r.MintID)
}

// MintAggregate is the per-mint summary derived from surviving reviews.
type MintAggregate struct {
	MintURL       string
	MintName      string
	Domain        string
	ReviewCount   int     // distinct surviving authors
	AverageRating float64 // recomputed from surviving records, never adjusted in place
	LastReviewAt  int64
}

// Profile is the kind:0 metadata of a review author.
type Profile struct {
	PubKey      string `json:"-"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Picture     string `json:"picture,omitempty"`
	About       string `json:"about,omitempty"`
	NIP05       string `json:"nip05,omitempty"`
}

// BestName returns the most presentable name of the profile, falling back
// to the truncated pubkey.
func (p *Profile) BestName() string {
	switch {
	case p == nil:
		return "anonymous"
	case p.DisplayName != "":
		return p.DisplayName
	case p.Name != "":
		return p.Name
	case len(p.PubKey) >= 8:
		return p.PubKey[:8] + "..."
	default:
		return "anonymous"
	}
}

// ReviewFeed is the result of a single-mint fetch.
type ReviewFeed struct {
	Reviews []*ReviewRecord
	HasMore bool
}

//--------------------------ERROR-CODES--------------------------

var ErrNilEventPointer = errors.New("nostr event pointer is nil")
var ErrWrongKind = errors.New("unexpected event kind")
var ErrNoMintIdentifier = errors.New("event carries neither a mint pubkey nor a mint URL")
var ErrEmptyMintURL = errors.New("mint URL is empty")
