package scammer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Jforjo/IsleofDucks-sub001/internal/utils"
)

// Entry is one scammer-list record for a Minecraft account.
type Entry struct {
	UUID     string `json:"uuid"`
	Reason   string `json:"reason"`
	Evidence string `json:"evidence"`
}

// Client talks to the third-party scammer list. The list is advisory; every
// failure here is surfaced to the caller and rendered as a user-visible
// message, never retried.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Lookup returns the scammer entry for a UUID, or found=false when the
// account is clean.
func (c *Client) Lookup(ctx context.Context, uuid string) (Entry, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/scammers/"+url.PathEscape(uuid), nil)
	if err != nil {
		return Entry{}, false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Entry{}, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return Entry{}, false, nil
	case http.StatusOK:
		var entry Entry
		if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
			return Entry{}, false, err
		}
		return entry, true, nil
	default:
		return Entry{}, false, fmt.Errorf("scammer lookup: status %d", resp.StatusCode)
	}
}

// Report submits a new scammer report. The evidence link is normalized
// before it leaves the process.
func (c *Client) Report(ctx context.Context, uuid, reason, evidenceURL string) error {
	normalized, _, err := utils.NormalizeURL(evidenceURL)
	if err != nil {
		return fmt.Errorf("invalid evidence url: %w", err)
	}

	payload, err := json.Marshal(Entry{UUID: uuid, Reason: reason, Evidence: normalized})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scammers", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("scammer report: status %d", resp.StatusCode)
	}
	return nil
}
