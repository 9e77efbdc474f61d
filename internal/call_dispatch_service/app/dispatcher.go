package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/domain"
	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/script"
	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/telephony"
)

// Directory is the read-only contact lookup the dispatcher needs; *domain.Directory satisfies it.
type Directory interface {
	Contact(id string) (domain.Contact, bool)
	Group(id string) (domain.ContactGroup, bool)
}

// DispatcherConfig holds the process-wide call settings.
type DispatcherConfig struct {
	OriginNumber   string        // Caller ID for every call
	DefaultTimeout time.Duration // Ring timeout when a contact has no override
}

// CallOutcome is the result of submitting one call. A failed outcome does not
// change the request-level result.
type CallOutcome struct {
	Contact           domain.Contact
	Succeeded         bool
	ProviderReference string
	ProviderStatus    string
	Error             string
}

// ContactDispatch is the accepted result of DispatchToContact.
type ContactDispatch struct {
	Contact domain.Contact
	Outcome CallOutcome
}

// GroupDispatch is the accepted result of DispatchToGroup. Contacts and Outcomes
// are in the group's member order and have the same length.
type GroupDispatch struct {
	Group    domain.ContactGroup
	Contacts []domain.Contact
	Outcomes []CallOutcome
}

// Dispatcher resolves targets, renders the call script and submits calls.
// It holds no per-request state and is safe for concurrent use.
type Dispatcher struct {
	directory Directory
	render    script.RenderFunc
	gateway   telephony.Gateway
	cfg       DispatcherConfig
	logger    *slog.Logger
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(directory Directory, render script.RenderFunc, gateway telephony.Gateway, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		directory: directory,
		render:    render,
		gateway:   gateway,
		cfg:       cfg,
		logger:    logger.With("component", "dispatcher"),
	}
}

// DispatchToContact places one call to the contact with the given ID.
// It returns *NotFoundError or *RenderError before any call is attempted;
// otherwise the dispatch is accepted whatever the provider answers.
func (d *Dispatcher) DispatchToContact(ctx context.Context, id string, payload any) (*ContactDispatch, error) {
	contact, ok := d.directory.Contact(id)
	if !ok {
		dispatchRequestsCounter.WithLabelValues(string(TargetContact), "not_found").Inc()
		d.logger.InfoContext(ctx, "Contact not found", "contact_id", id)
		return nil, &NotFoundError{Kind: TargetContact, ID: id}
	}

	twiml, err := d.render(payload)
	if err != nil {
		dispatchRequestsCounter.WithLabelValues(string(TargetContact), "render_failed").Inc()
		d.logger.WarnContext(ctx, "Failed to render call script", "contact_id", id, "error", err)
		return nil, &RenderError{Kind: TargetContact, ID: id, Err: err}
	}
	d.logger.DebugContext(ctx, "Rendered call script", "contact_id", id, "twiml", twiml)

	outcome := d.placeCall(ctx, contact, twiml)
	dispatchRequestsCounter.WithLabelValues(string(TargetContact), "accepted").Inc()
	return &ContactDispatch{Contact: contact, Outcome: outcome}, nil
}

// DispatchToGroup places one call per group member, concurrently. A failing member
// never prevents calls to the others; every member gets an outcome.
func (d *Dispatcher) DispatchToGroup(ctx context.Context, id string, payload any) (*GroupDispatch, error) {
	group, ok := d.directory.Group(id)
	if !ok {
		dispatchRequestsCounter.WithLabelValues(string(TargetContactGroup), "not_found").Inc()
		d.logger.InfoContext(ctx, "Contact group not found", "contact_group_id", id)
		return nil, &NotFoundError{Kind: TargetContactGroup, ID: id}
	}

	// Rendered once and shared by all members.
	twiml, err := d.render(payload)
	if err != nil {
		dispatchRequestsCounter.WithLabelValues(string(TargetContactGroup), "render_failed").Inc()
		d.logger.WarnContext(ctx, "Failed to render call script", "contact_group_id", id, "error", err)
		return nil, &RenderError{Kind: TargetContactGroup, ID: id, Err: err}
	}
	d.logger.DebugContext(ctx, "Rendered call script", "contact_group_id", id, "twiml", twiml)

	contacts := make([]domain.Contact, len(group.Members))
	outcomes := make([]CallOutcome, len(group.Members))

	var g errgroup.Group
	for i, memberID := range group.Members {
		contact, ok := d.directory.Contact(memberID)
		if !ok {
			// Unreachable for a validated Directory.
			contacts[i] = domain.Contact{ID: memberID}
			outcomes[i] = CallOutcome{Contact: contacts[i], Error: "contact not found in directory"}
			d.logger.ErrorContext(ctx, "Group member missing from directory", "contact_group_id", id, "contact_id", memberID)
			continue
		}
		contacts[i] = contact
		g.Go(func() error {
			outcomes[i] = d.placeCall(ctx, contact, twiml)
			return nil // failures are recorded per member, never propagated
		})
	}
	_ = g.Wait()

	succeeded := 0
	for _, o := range outcomes {
		if o.Succeeded {
			succeeded++
		}
	}
	d.logger.InfoContext(ctx, "Contact group dispatched", "contact_group_id", id, "calls", len(outcomes), "succeeded", succeeded)

	dispatchRequestsCounter.WithLabelValues(string(TargetContactGroup), "accepted").Inc()
	return &GroupDispatch{Group: group, Contacts: contacts, Outcomes: outcomes}, nil
}

// placeCall submits a single call and converts any failure into an outcome.
// The submission is not tied to the caller's cancellation: once started it is committed.
func (d *Dispatcher) placeCall(ctx context.Context, contact domain.Contact, twiml string) (outcome CallOutcome) {
	outcome = CallOutcome{Contact: contact}
	providerName := d.gateway.Name()

	defer func() {
		if r := recover(); r != nil {
			outcome.Succeeded = false
			outcome.Error = fmt.Sprintf("provider panic: %v", r)
			callsPlacedCounter.WithLabelValues(providerName, "failed").Inc()
			d.logger.ErrorContext(ctx, "Telephony provider panicked", "contact_id", contact.ID, "panic", r)
		}
	}()

	req := telephony.CallRequest{
		From:    d.cfg.OriginNumber,
		To:      contact.PhoneNumber,
		Script:  twiml,
		Timeout: contact.EffectiveTimeout(d.cfg.DefaultTimeout),
	}

	start := time.Now()
	res, err := d.gateway.PlaceCall(context.WithoutCancel(ctx), req)
	providerRequestDurationHist.WithLabelValues(providerName).Observe(time.Since(start).Seconds())

	if err != nil {
		outcome.Error = err.Error()
		callsPlacedCounter.WithLabelValues(providerName, "failed").Inc()
		d.logger.ErrorContext(ctx, "Call error", "provider", providerName, "contact_id", contact.ID, "to", req.To, "error", err)
		return outcome
	}

	outcome.Succeeded = true
	if res != nil {
		outcome.ProviderReference = res.ID
		outcome.ProviderStatus = res.Status
	}
	callsPlacedCounter.WithLabelValues(providerName, "succeeded").Inc()
	d.logger.InfoContext(ctx, fmt.Sprintf("Call from %s to %s with SID %s has status %s", req.From, req.To, outcome.ProviderReference, outcome.ProviderStatus),
		"provider", providerName, "contact_id", contact.ID)
	return outcome
}
