package notifications

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QuotaEvent is what downstream consumers (booking frontend, operator
// alerting) receive after a run touches the mirror. Payload carries the
// run summary as emitted by the quotas service.
type QuotaEvent struct {
	ID         uuid.UUID              `json:"id"`
	Type       string                 `json:"type"`
	HutID      int                    `json:"hut_id"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload"`
}

// NewQuotaEvent builds an event with id and timestamp filled in.
func NewQuotaEvent(eventType string, hutID int, payload map[string]interface{}) *QuotaEvent {
	return &QuotaEvent{
		ID:         uuid.New(),
		Type:       eventType,
		HutID:      hutID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// ToJSON serializes the event for the wire.
func (e *QuotaEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// GetPartitionKey routes all events of one hut to the same partition so
// consumers see them in order.
func (e *QuotaEvent) GetPartitionKey() string {
	return fmt.Sprintf("hut-%d", e.HutID)
}
