package client

import "context"

// Notice scopes. ScopeAll reaches everyone; the others narrow delivery
// to the listed roles or user ids.
const (
	ScopeAll  = "ALL"
	ScopeRole = "ROLE"
	ScopeUser = "USER"
)

// ActiveNotices returns the notices currently visible to the caller,
// highest priority first.
func (c *Client) ActiveNotices(ctx context.Context) ([]Notice, error) {
	var out []Notice
	if err := c.get(ctx, "/notices", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateNotice publishes an announcement. Admin only.
func (c *Client) CreateNotice(ctx context.Context, in Notice) (Notice, error) {
	var out Notice
	if err := c.post(ctx, "/notices", in, &out); err != nil {
		return Notice{}, err
	}
	return out, nil
}

// UpdateNotice applies a partial edit to an existing notice.
func (c *Client) UpdateNotice(ctx context.Context, noticeID string, patch NoticePatch) (Notice, error) {
	var out Notice
	if err := c.patch(ctx, "/notices/"+noticeID, patch, &out); err != nil {
		return Notice{}, err
	}
	return out, nil
}

// DeleteNotice removes a notice entirely.
func (c *Client) DeleteNotice(ctx context.Context, noticeID string) error {
	return c.delete(ctx, "/notices/"+noticeID)
}
