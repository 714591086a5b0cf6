package notifications

import (
	"context"
)

// QuotaEventService adapts the Kafka producer to the narrow publisher
// contract the quotas service expects, pinning the hut id once.
type QuotaEventService struct {
	producer QuotaEventProducer
	hutID    int
}

func NewQuotaEventService(producer QuotaEventProducer, hutID int) *QuotaEventService {
	return &QuotaEventService{
		producer: producer,
		hutID:    hutID,
	}
}

// PublishQuotaEvent implements quotas.EventPublisher.
func (s *QuotaEventService) PublishQuotaEvent(ctx context.Context, eventType string, payload map[string]interface{}) error {
	return s.producer.PublishQuotaEvent(ctx, eventType, s.hutID, payload)
}

// Close shuts down the underlying producer.
func (s *QuotaEventService) Close() error {
	return s.producer.Close()
}
