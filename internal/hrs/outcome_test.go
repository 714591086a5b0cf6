package hrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDelete(t *testing.T) {
	tests := []struct {
		name      string
		messageID int
		want      Outcome
	}{
		{"deleted", msgQuotaDeleted, OutcomeSuccess},
		{"already deleted matches intent", msgQuotaAlreadyDeleted, OutcomeAlreadySatisfied},
		{"overbooking refusal", msgQuotaOverbooking, OutcomeRejected},
		{"overlap refusal", msgQuotaOverlap, OutcomeRejected},
		{"unknown id", 999, OutcomeRejected},
		{"zero message", 0, OutcomeRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyDelete(VendorMessage{MessageID: tt.messageID}))
		})
	}
}

func TestClassifySaveOnlyAcceptsExplicitSaved(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, classifySave(VendorMessage{MessageID: msgQuotaSaved}))
	assert.Equal(t, OutcomeRejected, classifySave(VendorMessage{MessageID: msgQuotaDeleted}))
	assert.Equal(t, OutcomeRejected, classifySave(VendorMessage{}))
}

func TestOutcomeIsSuccess(t *testing.T) {
	assert.True(t, OutcomeSuccess.IsSuccess())
	assert.True(t, OutcomeAlreadySatisfied.IsSuccess())
	assert.False(t, OutcomeRejected.IsSuccess())
	assert.False(t, OutcomeTransportError.IsSuccess())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "SUCCESS", OutcomeSuccess.String())
	assert.Equal(t, "ALREADY_SATISFIED", OutcomeAlreadySatisfied.String())
	assert.Equal(t, "REJECTED", OutcomeRejected.String())
	assert.Equal(t, "TRANSPORT_ERROR", OutcomeTransportError.String())
}
