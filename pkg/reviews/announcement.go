package reviews

import (
	"github.com/cashumints/directory/pkg/models"
	"github.com/nbd-wtf/go-nostr"
)

// MintAnnouncement is a parsed kind 38172 Cashu mint announcement.
type MintAnnouncement struct {
	ID        string
	Pubkey    string
	MintURL   string
	CreatedAt int64
}

// ParseAnnouncement converts a raw event into a MintAnnouncement.
// Announcements without a "u" tag identify no mint and are rejected.
func ParseAnnouncement(event *nostr.Event) (*MintAnnouncement, error) {
	if event == nil {
		return nil, models.ErrNilEventPointer
	}

	if event.Kind != models.KindCashuMint {
		return nil, models.ErrWrongKind
	}

	url := firstTagValue(event.Tags, "u")
	if url == "" {
		return nil, models.ErrNoMintIdentifier
	}

	return &MintAnnouncement{
		ID:        event.ID,
		Pubkey:    event.PubKey,
		MintURL:   url,
		CreatedAt: event.CreatedAt.Time().Unix(),
	}, nil
}
