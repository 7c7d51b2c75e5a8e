package client

import (
	"context"
	"time"
)

// HealthReport is one probe result against the backend's health endpoint.
type HealthReport struct {
	Healthy bool
	Status  string
	Latency time.Duration
}

// Health probes the backend once. A transport failure or non-2xx status
// comes back as Healthy=false with the error, so callers that only care
// about reachability can ignore the error and read the flag.
func (c *Client) Health(ctx context.Context) (HealthReport, error) {
	started := time.Now()
	var body struct {
		Status string `json:"status"`
	}
	err := c.get(ctx, "/health", nil, &body)
	report := HealthReport{
		Healthy: err == nil,
		Status:  body.Status,
		Latency: time.Since(started),
	}
	return report, err
}
