package telephony

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// callCreator is the subset of the Twilio v2010 API used here; *twilioApi.ApiService satisfies it.
type callCreator interface {
	CreateCall(params *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error)
}

// TwilioGateway places calls through Twilio's Programmable Voice API.
type TwilioGateway struct {
	logger *slog.Logger
	calls  callCreator
}

// NewTwilioGateway creates a gateway authenticated with the account SID and auth token.
func NewTwilioGateway(logger *slog.Logger, accountSID, authToken string) *TwilioGateway {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return newTwilioGateway(logger, client.Api)
}

func newTwilioGateway(logger *slog.Logger, calls callCreator) *TwilioGateway {
	return &TwilioGateway{
		logger: logger.With("provider", "twilio"),
		calls:  calls,
	}
}

func (g *TwilioGateway) Name() string {
	return "twilio"
}

func (g *TwilioGateway) PlaceCall(ctx context.Context, req CallRequest) (*CallResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := &twilioApi.CreateCallParams{}
	params.SetFrom(req.From)
	params.SetTo(req.To)
	params.SetTwiml(req.Script)
	if req.Timeout > 0 {
		params.SetTimeout(int(req.Timeout / time.Second))
	}

	g.logger.DebugContext(ctx, "Creating Twilio call", "from", req.From, "to", req.To, "timeout", req.Timeout, "twiml", req.Script)

	call, err := g.calls.CreateCall(params)
	if err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) {
			g.logger.WarnContext(ctx, "Twilio rejected call", "to", req.To, "status_code", restErr.Status, "twilio_code", restErr.Code, "message", restErr.Message)
			return nil, fmt.Errorf("twilio: create call to %s failed (status %d, code %d): %s", req.To, restErr.Status, restErr.Code, restErr.Message)
		}
		g.logger.ErrorContext(ctx, "Failed to create Twilio call", "to", req.To, "error", err)
		return nil, fmt.Errorf("twilio: create call to %s: %w", req.To, err)
	}

	result := &CallResult{}
	if call != nil {
		if call.Sid != nil {
			result.ID = *call.Sid
		}
		if call.Status != nil {
			result.Status = fmt.Sprint(*call.Status)
		}
	}
	g.logger.DebugContext(ctx, "Twilio call created", "to", req.To, "sid", result.ID, "status", result.Status)
	return result, nil
}
