package bankapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"k8s.io/klog"

	"github.com/bcaldwell/bistroledger/pkg/apperror"
)

const defaultTimeout = 30 * time.Second

// Client talks to an open-banking aggregator on behalf of one connected bank.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func NewClient(baseURL, accessToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Transactions fetches the raw transaction payload for accountID.
func (c *Client) Transactions(ctx context.Context, accountID string) ([]byte, error) {
	if c.baseURL == "" || accountID == "" {
		return nil, apperror.New(apperror.Validation, "bank base url and account id are required")
	}

	endpoint := fmt.Sprintf("%s/accounts/%s/transactions/", c.baseURL, url.PathEscape(accountID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to build bank request")
	}
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.Wrap(apperror.External, err, "failed to reach bank api")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Wrap(apperror.External, err, "failed to read bank api response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		klog.Warningf("bank api rejected credentials for account %s (%d)", accountID, resp.StatusCode)
		return nil, apperror.ErrBankSessionExpired
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, apperror.Newf(apperror.External, "bank api returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
