package client

import (
	"context"
	"net/url"
	"strconv"
)

// History returns the action log, newest first. A zero limit takes the
// backend default page size.
func (c *Client) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	var out []HistoryEntry
	if err := c.get(ctx, "/history", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}
