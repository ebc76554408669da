package audit_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krittapak/catalog-panel/internal/audit"
)

func TestNewEvent(t *testing.T) {
	occurredAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	ev, err := audit.NewEvent(audit.TopicProductCreated, "P1", audit.ProductCreatedPayload{
		ProductCode: "P1",
		ProductName: "Trail Runner",
		ImageCount:  2,
		OccurredAt:  occurredAt,
	})

	require.NoError(t, err)
	assert.Equal(t, audit.TopicProductCreated, ev.Topic)
	assert.Equal(t, "P1", ev.ProductCode)

	var payload audit.ProductCreatedPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, 2, payload.ImageCount)
	assert.Equal(t, occurredAt, payload.OccurredAt)
}
