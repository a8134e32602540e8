package events

import "encoding/json"

// Event name constants
const (
	ValuationCalibrated = "valuation.calibrated"
	ValuationYield      = "valuation.yield"
	ValuationZakat      = "valuation.zakat"
	ValuationRejected   = "valuation.rejected"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// ValuationEvent is the payload of the valuation.calibrated, valuation.yield
// and valuation.zakat events. Value is the headline figure of the operation:
// the calibrated value, the final yield or the zakat due.
type ValuationEvent struct {
	RequestID string `json:"requestId,omitempty"`
	Region    string `json:"region,omitempty"`
	Value     string `json:"value"`
	Ts        int64  `json:"ts"`
}

// RejectedEvent is the payload of valuation.rejected.
type RejectedEvent struct {
	RequestID string `json:"requestId,omitempty"`
	Operation string `json:"operation"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Ts        int64  `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.ValuationEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.Region, payload.Value)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
