package client

import (
	"context"
	"net/url"
)

// MyRequests returns the caller's own requests, newest first.
func (c *Client) MyRequests(ctx context.Context) ([]RequestRecord, error) {
	var out []RequestRecord
	if err := c.get(ctx, "/requests/my", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PendingRequests returns every request awaiting a decision. Admin only.
func (c *Client) PendingRequests(ctx context.Context) ([]RequestRecord, error) {
	var out []RequestRecord
	if err := c.get(ctx, "/requests/pending", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RequestFeed returns recent requests across all users, optionally
// filtered by status (PENDING, APPROVED, REJECTED).
func (c *Client) RequestFeed(ctx context.Context, status string) ([]RequestRecord, error) {
	var query url.Values
	if status != "" {
		query = url.Values{"status": {status}}
	}
	var out []RequestRecord
	if err := c.get(ctx, "/requests/feed", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ApproveRequest accepts a pending request and applies its effect.
func (c *Client) ApproveRequest(ctx context.Context, requestID string) error {
	return c.post(ctx, "/requests/"+requestID+"/approve", nil, nil)
}

// RejectRequest declines a pending request with an optional note.
func (c *Client) RejectRequest(ctx context.Context, requestID, note string) error {
	var body any
	if note != "" {
		body = map[string]string{"note": note}
	}
	return c.post(ctx, "/requests/"+requestID+"/reject", body, nil)
}
