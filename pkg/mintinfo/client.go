// The mintinfo package fetches a mint's /v1/info document, used to
// resolve the pubkey that keys canonical NIP-87 reviews. Resolution
// failures degrade review matching to the legacy URL heuristic; they are
// warnings, never fatal.
package mintinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cashumints/directory/pkg/models"
	"github.com/cashumints/directory/pkg/utils/urlx"
)

const (
	// DefaultTimeout bounds the single unconditional GET.
	DefaultTimeout = 10 * time.Second

	maxBodySize = 1 << 20 // 1MB
)

var ErrOnionMint = errors.New("mint is only reachable via Tor")

// Info is the subset of the NUT-06 /v1/info response the engine consumes.
// Unknown sections pass through untouched.
type Info struct {
	Name        string          `json:"name"`
	Pubkey      string          `json:"pubkey"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	MOTD        string          `json:"motd"`
	IconURL     string          `json:"icon_url"`
	Contact     json.RawMessage `json:"contact,omitempty"`
	Nuts        json.RawMessage `json:"nuts,omitempty"`
}

// Client fetches mint info documents over HTTPS with a bounded timeout.
type Client struct {
	http *http.Client
}

// NewClient returns a Client with the default timeout.
func NewClient() *Client {
	return &Client{
		http: &http.Client{Timeout: DefaultTimeout},
	}
}

// Info fetches and decodes {mint}/v1/info. Tor-only mints cannot be
// reached over clearnet and return ErrOnionMint.
func (c *Client) Info(ctx context.Context, mintURL string) (*Info, error) {
	if mintURL == "" {
		return nil, models.ErrEmptyMintURL
	}

	if urlx.IsOnion(mintURL) {
		return nil, ErrOnionMint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, infoURL(mintURL), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch mint info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mint info endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read mint info response: %w", err)
	}

	var info Info
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("invalid mint info JSON: %w", err)
	}

	return &info, nil
}

// Pubkey resolves the mint's published pubkey. It returns an empty string
// without error for Tor-only mints, whose info cannot be fetched.
func (c *Client) Pubkey(ctx context.Context, mintURL string) (string, error) {
	if urlx.IsOnion(mintURL) {
		return "", nil
	}

	info, err := c.Info(ctx, mintURL)
	if err != nil {
		return "", err
	}

	return info.Pubkey, nil
}

// infoURL builds the /v1/info endpoint from however the mint URL was
// spelled. https is assumed unless the URL is explicitly http (local
// mints, tests).
func infoURL(mintURL string) string {
	scheme := "https"
	if strings.HasPrefix(mintURL, "http://") {
		scheme = "http"
	}

	clean := strings.TrimRight(urlx.StripScheme(mintURL), "/")
	return fmt.Sprintf("%s://%s/v1/info", scheme, clean)
}
