package hrs

import "fmt"

// Outcome is the closed classification of a vendor response. All message-id
// sniffing lives in this file; the reconciler only ever sees an Outcome.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	// OutcomeAlreadySatisfied: the vendor refused because the end state
	// already holds (e.g. deleting a record that is already gone).
	OutcomeAlreadySatisfied
	OutcomeRejected
	OutcomeTransportError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "SUCCESS"
	case OutcomeAlreadySatisfied:
		return "ALREADY_SATISFIED"
	case OutcomeRejected:
		return "REJECTED"
	case OutcomeTransportError:
		return "TRANSPORT_ERROR"
	default:
		return fmt.Sprintf("OUTCOME(%d)", int(o))
	}
}

// IsSuccess treats already-satisfied rejections as success: the remote state
// matches intent either way.
func (o Outcome) IsSuccess() bool {
	return o == OutcomeSuccess || o == OutcomeAlreadySatisfied
}

// VendorMessage is the platform's business-level reply embedded in an
// otherwise successful HTTP response.
type VendorMessage struct {
	MessageID int    `json:"messageId"`
	Message   string `json:"message"`
}

// Documented vendor message ids.
const (
	msgQuotaSaved          = 126
	msgQuotaOverbooking    = 133
	msgQuotaOverlap        = 134
	msgQuotaAlreadyDeleted = 136
	msgQuotaDeleted        = 138
)

// classifySave maps a save/create reply. Only the explicit "saved" id counts
// as success; everything else is a rejection.
func classifySave(m VendorMessage) Outcome {
	switch m.MessageID {
	case msgQuotaSaved:
		return OutcomeSuccess
	default:
		return OutcomeRejected
	}
}

// classifyDelete maps a delete reply. "Already deleted" matches intent and
// is not a failure.
func classifyDelete(m VendorMessage) Outcome {
	switch m.MessageID {
	case msgQuotaDeleted:
		return OutcomeSuccess
	case msgQuotaAlreadyDeleted:
		return OutcomeAlreadySatisfied
	case msgQuotaOverbooking, msgQuotaOverlap:
		return OutcomeRejected
	default:
		return OutcomeRejected
	}
}
