package notifications

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuotaEvent(t *testing.T) {
	event := NewQuotaEvent("quota.reconciled", 42, map[string]interface{}{"deleted": 3})

	assert.NotEqual(t, "", event.ID.String())
	assert.Equal(t, "quota.reconciled", event.Type)
	assert.Equal(t, 42, event.HutID)
	assert.False(t, event.OccurredAt.IsZero())
	assert.Equal(t, "hut-42", event.GetPartitionKey())
}

func TestQuotaEventToJSON(t *testing.T) {
	event := NewQuotaEvent("quota.imported", 7, map[string]interface{}{"records": 12})

	data, err := event.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "quota.imported", decoded["type"])
	assert.Equal(t, float64(7), decoded["hut_id"])
}
