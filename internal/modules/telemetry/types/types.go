package types

import "time"

// Reading is the current value for one sensor. The anomaly flag is set by an
// upstream detector and passed through untouched.
type Reading struct {
	Sensor    string  `json:"sensor"`
	Value     float64 `json:"value"`
	IsAnomaly bool    `json:"is_anomaly"`
}

// HistoryEntry is one timestamped bundle of past sensor values. The data map
// is sparse: not every sensor appears in every entry, and a present key may
// still carry a JSON null (nil pointer).
type HistoryEntry struct {
	Timestamp time.Time           `json:"timestamp"`
	Data      map[string]*float64 `json:"data"`
}

// SeriesPoint is one charted point of a sensor's history.
type SeriesPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// CacheSnapshot is the last-known-good payload persisted across sessions.
// CapturedAt records when the snapshot was fetched online; it is only ever
// written on healthy fetches, never on archival or fallback data.
type CacheSnapshot struct {
	Data       []Reading      `json:"data"`
	History    []HistoryEntry `json:"history"`
	CapturedAt time.Time      `json:"timestamp"`
}
