package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/samber/lo"

	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/app"
)

// MaxPayloadBytes bounds the alert payload accepted by the call routes.
const MaxPayloadBytes = 1 << 20

var errPayloadTooLarge = errors.New("payload too large")

// CallDispatcher is implemented by *app.Dispatcher.
type CallDispatcher interface {
	DispatchToContact(ctx context.Context, id string, payload any) (*app.ContactDispatch, error)
	DispatchToGroup(ctx context.Context, id string, payload any) (*app.GroupDispatch, error)
}

type CallHandler struct {
	dispatcher CallDispatcher
	logger     *slog.Logger
}

func NewCallHandler(dispatcher CallDispatcher, logger *slog.Logger) *CallHandler {
	return &CallHandler{
		dispatcher: dispatcher,
		logger:     logger.With("handler", "call"),
	}
}

// RegisterRoutes registers the call routes with the given router.
func (h *CallHandler) RegisterRoutes(r chi.Router) {
	r.Post("/call/contact/{id}", h.handleCallContact)
	r.Post("/call/contact_group/{id}", h.handleCallContactGroup)
}

func (h *CallHandler) handleCallContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))
	contactID := chi.URLParam(r, "id")

	payload, ok := h.decodePayload(w, r, logger)
	if !ok {
		return
	}

	res, err := h.dispatcher.DispatchToContact(ctx, contactID, payload)
	if err != nil {
		h.dispatchError(w, logger, err)
		return
	}

	logger.InfoContext(ctx, "Call created", "contact_id", contactID, "succeeded", res.Outcome.Succeeded)
	h.writeJSON(w, logger, http.StatusOK, ContactCallResponse{
		Message: "Call created",
		Call: ContactCall{
			Contact: res.Contact,
			Outcome: toOutcomeResponse(res.Outcome),
		},
		Status: http.StatusOK,
	})
}

func (h *CallHandler) handleCallContactGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))
	groupID := chi.URLParam(r, "id")

	payload, ok := h.decodePayload(w, r, logger)
	if !ok {
		return
	}

	res, err := h.dispatcher.DispatchToGroup(ctx, groupID, payload)
	if err != nil {
		h.dispatchError(w, logger, err)
		return
	}

	logger.InfoContext(ctx, "Calls created", "contact_group_id", groupID, "calls", len(res.Outcomes))
	h.writeJSON(w, logger, http.StatusOK, GroupCallResponse{
		Message: "Calls created",
		Calls: GroupCalls{
			ContactGroup: res.Contacts,
			Outcomes:     lo.Map(res.Outcomes, func(o app.CallOutcome, _ int) CallOutcomeResponse { return toOutcomeResponse(o) }),
		},
		Status: http.StatusOK,
	})
}

// decodePayload reads the request body as an arbitrary JSON value.
// An empty body is an empty object.
func (h *CallHandler) decodePayload(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (any, bool) {
	payload, err := readPayload(http.MaxBytesReader(w, r.Body, MaxPayloadBytes))
	if err != nil {
		if errors.Is(err, errPayloadTooLarge) {
			h.jsonError(w, logger, http.StatusRequestEntityTooLarge, "Payload too large", err)
			return nil, false
		}
		h.jsonError(w, logger, http.StatusBadRequest, "Invalid request payload", err)
		return nil, false
	}
	return payload, true
}

func readPayload(body io.Reader) (any, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: limit is %d bytes", errPayloadTooLarge, maxErr.Limit)
		}
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding body: %w", err)
	}
	if dec.More() {
		return nil, errors.New("decoding body: unexpected data after JSON value")
	}
	return payload, nil
}

func (h *CallHandler) dispatchError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var notFound *app.NotFoundError
	var renderErr *app.RenderError
	switch {
	case errors.As(err, &notFound):
		if notFound.Kind == app.TargetContactGroup {
			h.writeJSON(w, logger, http.StatusNotFound, ContactGroupNotFoundResponse{
				Message: "Contact Group not found", ContactGroupID: notFound.ID, Status: http.StatusNotFound,
			})
			return
		}
		h.writeJSON(w, logger, http.StatusNotFound, ContactNotFoundResponse{
			Message: "Contact not found", ContactID: notFound.ID, Status: http.StatusNotFound,
		})
	case errors.As(err, &renderErr):
		h.jsonError(w, logger, http.StatusUnprocessableEntity, "Call script could not be rendered", renderErr.Err)
	default:
		logger.Error("Unexpected dispatch error", "error", err)
		h.jsonError(w, logger, http.StatusInternalServerError, "Internal server error", nil)
	}
}

func (h *CallHandler) jsonError(w http.ResponseWriter, logger *slog.Logger, statusCode int, message string, cause error) {
	logger.Warn("API Error Response", "status_code", statusCode, "message", message, "error", cause)
	resp := ErrorResponse{Message: message, Status: statusCode}
	if cause != nil {
		resp.Error = cause.Error()
	}
	h.writeJSON(w, logger, statusCode, resp)
}

func (h *CallHandler) writeJSON(w http.ResponseWriter, logger *slog.Logger, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}
