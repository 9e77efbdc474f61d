package http

import (
	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/app"
	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/domain"
)

// CallOutcomeResponse reports what the telephony provider said about one call.
type CallOutcomeResponse struct {
	ContactID         string `json:"contact_id"`
	Succeeded         bool   `json:"succeeded"`
	ProviderReference string `json:"provider_reference,omitempty"`
	ProviderStatus    string `json:"provider_status,omitempty"`
	Error             string `json:"error,omitempty"`
}

// ContactCall DTO nested under "call" for POST /call/contact/{id}
type ContactCall struct {
	Contact domain.Contact      `json:"contact"`
	Outcome CallOutcomeResponse `json:"outcome"`
}

// ContactCallResponse DTO for POST /call/contact/{id}
type ContactCallResponse struct {
	Message string      `json:"message"`
	Call    ContactCall `json:"call"`
	Status  int         `json:"status"`
}

// GroupCalls DTO nested under "calls" for POST /call/contact_group/{id}.
// ContactGroup and Outcomes are in member order.
type GroupCalls struct {
	ContactGroup []domain.Contact      `json:"contact_group"`
	Outcomes     []CallOutcomeResponse `json:"outcomes"`
}

// GroupCallResponse DTO for POST /call/contact_group/{id}
type GroupCallResponse struct {
	Message string     `json:"message"`
	Calls   GroupCalls `json:"calls"`
	Status  int        `json:"status"`
}

type ContactNotFoundResponse struct {
	Message   string `json:"message"`
	ContactID string `json:"contact_id"`
	Status    int    `json:"status"`
}

type ContactGroupNotFoundResponse struct {
	Message        string `json:"message"`
	ContactGroupID string `json:"contact_group_id"`
	Status         int    `json:"status"`
}

// ErrorResponse is used for every other failure.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Status  int    `json:"status"`
}

func toOutcomeResponse(o app.CallOutcome) CallOutcomeResponse {
	return CallOutcomeResponse{
		ContactID:         o.Contact.ID,
		Succeeded:         o.Succeeded,
		ProviderReference: o.ProviderReference,
		ProviderStatus:    o.ProviderStatus,
		Error:             o.Error,
	}
}
