package telemetry

import (
	"encoding/json"
	"fmt"

	"greenhouse-server/internal/modules/telemetry/service"
	"greenhouse-server/internal/modules/telemetry/types"
)

// SnapshotPublisher is the transport the announcer publishes through.
type SnapshotPublisher interface {
	Publish(payload []byte) error
}

type publisherAnnouncer struct {
	publisher SnapshotPublisher
}

// NewAnnouncer adapts a publisher (MQTT in production) to the
// synchronizer's Announcer contract. Snapshots go out as JSON in the same
// shape as the durable cache value.
func NewAnnouncer(publisher SnapshotPublisher) service.Announcer {
	return &publisherAnnouncer{publisher: publisher}
}

func (a *publisherAnnouncer) Announce(snapshot types.CacheSnapshot) error {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return a.publisher.Publish(body)
}
