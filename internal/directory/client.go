// Package directory is the HTTP client for the remote identity/profile
// store. The service owns the username/email → address mapping and keeps a
// mirror of ledger rows; wallet-core treats it as an external collaborator
// with its own availability semantics.
package directory

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/veltapay/wallet-core/internal/logger"
	"github.com/veltapay/wallet-core/internal/model"
)

// Client talks to the directory service over HTTP.
// It embeds *resty.Client to expose its configuration knobs directly.
type Client struct {
	http *resty.Client
	log  *logger.Logger
}

// New creates a directory client for the given base URL.
func New(baseURL string, log *logger.Logger) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")
	return &Client{http: rc, log: log}
}

// Lookup fetches the profile for a username or email identifier.
// Returns (nil, nil) when the directory has no record for it.
func (c *Client) Lookup(ctx context.Context, identifier string) (*model.Profile, error) {
	var profile model.Profile

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("identifier", identifier).
		SetResult(&profile).
		Get("/profiles")
	if err != nil {
		return nil, fmt.Errorf("directory lookup: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return &profile, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("directory lookup: unexpected status %d", resp.StatusCode())
	}
}

// MirrorLedgerEntry pushes a confirmed ledger row to the directory service.
// The local ledger remains authoritative; a mirror failure is reported to
// the caller, who logs it for reconciliation rather than retrying the
// transfer.
func (c *Client) MirrorLedgerEntry(ctx context.Context, entry model.LedgerEntry) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(entry).
		Post("/ledger")
	if err != nil {
		return fmt.Errorf("ledger mirror: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("ledger mirror: unexpected status %d", resp.StatusCode())
	}

	c.log.Debug().Str("signature", entry.Signature).Msg("ledger entry mirrored to directory")
	return nil
}
