package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"greenhouse-server/internal/modules/telemetry/types"
)

// responses larger than this are rejected rather than buffered
const maxResponseBytes = 8 << 20

// Payload is one decoded response from the telemetry endpoint. Archival is
// true when the backend reported that it is serving from its failover
// archive: the data is usable but not fresh enough to re-cache.
type Payload struct {
	Readings []types.Reading
	History  []types.HistoryEntry
	Archival bool
}

// envelope is the current response shape. The legacy shape is a bare
// Reading array with no history or status.
type envelope struct {
	SystemStatus string               `json:"system_status"`
	Data         []types.Reading      `json:"data"`
	History      []types.HistoryEntry `json:"history"`
}

// Client polls the remote telemetry endpoint. Timeouts, transport errors and
// non-2xx statuses are all reported as a plain error; callers treat them
// uniformly as "fetch failed".
type Client struct {
	url  string
	http *http.Client
}

func New(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// Fetch issues one GET against the endpoint and decodes the body, accepting
// both the envelope object and the legacy bare array.
func (c *Client) Fetch(ctx context.Context) (Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("telemetry fetch: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Payload{}, fmt.Errorf("telemetry endpoint status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Payload{}, fmt.Errorf("read response: %w", err)
	}

	return decodePayload(body)
}

func decodePayload(body []byte) (Payload, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return Payload{}, fmt.Errorf("empty response body")
	}

	if trimmed[0] == '[' {
		var readings []types.Reading
		if err := json.Unmarshal(trimmed, &readings); err != nil {
			return Payload{}, fmt.Errorf("decode readings array: %w", err)
		}
		return Payload{Readings: readings}, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return Payload{}, fmt.Errorf("decode envelope: %w", err)
	}
	return Payload{
		Readings: env.Data,
		History:  env.History,
		Archival: archivalStatus(env.SystemStatus),
	}, nil
}

// archivalStatus reports whether a system_status value indicates the backend
// is serving degraded archival data (e.g. "S3 (Failover Archive)"). An empty
// status counts as healthy.
func archivalStatus(status string) bool {
	s := strings.ToLower(status)
	return strings.Contains(s, "archive") || strings.Contains(s, "failover")
}
