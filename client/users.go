package client

import "context"

// ListMembers returns the full roster. Admin only on the backend side.
func (c *Client) ListMembers(ctx context.Context) ([]Member, error) {
	var out []Member
	if err := c.get(ctx, "/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateMember registers a new console user and returns the stored record.
func (c *Client) CreateMember(ctx context.Context, in NewMember) (Member, error) {
	var out Member
	if err := c.post(ctx, "/users", in, &out); err != nil {
		return Member{}, err
	}
	return out, nil
}

// DeactivateMember soft-deletes a user; their history rows survive.
func (c *Client) DeactivateMember(ctx context.Context, userID string) error {
	return c.delete(ctx, "/users/"+userID)
}
