package telephony

import (
	"context"
	"time"
)

// CallRequest holds everything the provider needs to place one voice call.
type CallRequest struct {
	From    string        // Origin number, E.164
	To      string        // Destination number, E.164
	Script  string        // Rendered TwiML
	Timeout time.Duration // How long the provider lets the phone ring
}

// CallResult is the provider's answer to a submitted call.
type CallResult struct {
	ID     string // Provider call reference (Twilio SID)
	Status string // Provider status at submission time, e.g. "queued"
}

// Gateway places calls with an external telephony provider.
// Each PlaceCall is one independent remote invocation.
type Gateway interface {
	PlaceCall(ctx context.Context, req CallRequest) (*CallResult, error)
	Name() string // e.g. "twilio", "mock"
}
