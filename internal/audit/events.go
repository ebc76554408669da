package audit

import (
	"encoding/json"
	"fmt"
	"time"
)

// Topics for catalog mutation audit events. One event is published per
// successful mutation; failed mutations publish nothing.
const (
	TopicProductCreated = "catalog.product.created"
	TopicProductUpdated = "catalog.product.updated"
	TopicProductDeleted = "catalog.product.deleted"
	TopicImagesAttached = "catalog.product.images_attached"
	TopicImageRemoved   = "catalog.product.image_removed"
)

// Event is a serialized audit record, partitioned by product code so all
// events of one product land on the same partition.
type Event struct {
	Topic       string
	ProductCode string
	Payload     []byte
}

type ProductCreatedPayload struct {
	ProductCode string    `json:"product_code"`
	ProductName string    `json:"product_name"`
	ImageCount  int       `json:"image_count"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type ProductUpdatedPayload struct {
	ProductCode string    `json:"product_code"`
	ProductName string    `json:"product_name"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type ProductDeletedPayload struct {
	ProductCode string    `json:"product_code"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type ImagesAttachedPayload struct {
	ProductCode string    `json:"product_code"`
	ImageCount  int       `json:"image_count"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type ImageRemovedPayload struct {
	ProductCode string    `json:"product_code"`
	ImageID     string    `json:"image_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewEvent marshals the payload into an Event for the given topic.
func NewEvent(topic, productCode string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal audit payload: %w", err)
	}

	return Event{
		Topic:       topic,
		ProductCode: productCode,
		Payload:     raw,
	}, nil
}
