package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/domain"
	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/script"
	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/telephony"
)

// MockGateway is a testify mock of telephony.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) PlaceCall(ctx context.Context, req telephony.CallRequest) (*telephony.CallResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*telephony.CallResult), args.Error(1)
}

func (m *MockGateway) Name() string { return "mock" }

const (
	originNumber   = "+15559999"
	defaultTimeout = 30 * time.Second
)

func toNumber(to string) interface{} {
	return mock.MatchedBy(func(req telephony.CallRequest) bool { return req.To == to })
}

func setupDispatcher(t *testing.T) (*Dispatcher, *MockGateway) {
	t.Helper()
	fortyFive := 45
	dir, err := domain.BuildDirectory(
		map[string]domain.RawContact{
			"A": {PhoneNumber: "+15550001"},
			"B": {PhoneNumber: "+15550002"},
			"C": {PhoneNumber: "+15550003", Timeout: &fortyFive},
		},
		map[string][]string{
			"G":   {"A", "B"},
			"ALL": {"A", "B", "C"},
		},
	)
	require.NoError(t, err)

	render, err := script.Compile(`<Response><Say>{{ .title | xml }}</Say></Response>`)
	require.NoError(t, err)

	gw := new(MockGateway)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDispatcher(dir, render, gw, DispatcherConfig{OriginNumber: originNumber, DefaultTimeout: defaultTimeout}, logger)
	return d, gw
}

var validPayload = map[string]any{"title": "Disk full"}

func TestDispatchToContact_UnknownContact(t *testing.T) {
	d, gw := setupDispatcher(t)

	res, err := d.DispatchToContact(context.Background(), "nobody", validPayload)
	require.Error(t, err)
	assert.Nil(t, res)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, TargetContact, nf.Kind)
	assert.Equal(t, "nobody", nf.ID)
	assert.True(t, errors.Is(err, ErrTargetNotFound))
	gw.AssertNotCalled(t, "PlaceCall", mock.Anything, mock.Anything)
}

func TestDispatchToContact_UsesDefaultTimeout(t *testing.T) {
	d, gw := setupDispatcher(t)

	gw.On("PlaceCall", mock.Anything, telephony.CallRequest{
		From:    originNumber,
		To:      "+15550001",
		Script:  "<Response><Say>Disk full</Say></Response>",
		Timeout: defaultTimeout,
	}).Return(&telephony.CallResult{ID: "CA1", Status: "queued"}, nil).Once()

	res, err := d.DispatchToContact(context.Background(), "A", validPayload)
	require.NoError(t, err)
	assert.Equal(t, "A", res.Contact.ID)
	assert.True(t, res.Outcome.Succeeded)
	assert.Equal(t, "CA1", res.Outcome.ProviderReference)
	assert.Equal(t, "queued", res.Outcome.ProviderStatus)
	gw.AssertExpectations(t)
}

func TestDispatchToContact_HonoursContactTimeout(t *testing.T) {
	d, gw := setupDispatcher(t)

	gw.On("PlaceCall", mock.Anything, mock.MatchedBy(func(req telephony.CallRequest) bool {
		return req.To == "+15550003" && req.Timeout == 45*time.Second
	})).Return(&telephony.CallResult{ID: "CA3"}, nil).Once()

	_, err := d.DispatchToContact(context.Background(), "C", validPayload)
	require.NoError(t, err)
	gw.AssertExpectations(t)
}

func TestDispatchToContact_ProviderFailureIsStillAccepted(t *testing.T) {
	d, gw := setupDispatcher(t)
	gw.On("PlaceCall", mock.Anything, toNumber("+15550001")).Return(nil, errors.New("twilio down")).Once()

	res, err := d.DispatchToContact(context.Background(), "A", validPayload)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Outcome.Succeeded)
	assert.Equal(t, "twilio down", res.Outcome.Error)
	gw.AssertExpectations(t)
}

func TestDispatchToContact_RenderFailure(t *testing.T) {
	d, gw := setupDispatcher(t)

	_, err := d.DispatchToContact(context.Background(), "A", map[string]any{"unexpected": true})
	require.Error(t, err)

	var re *RenderError
	require.True(t, errors.As(err, &re))
	assert.True(t, errors.Is(err, script.ErrRender))
	gw.AssertNotCalled(t, "PlaceCall", mock.Anything, mock.Anything)
}

func TestDispatchToContact_SubmissionSurvivesCallerCancellation(t *testing.T) {
	d, gw := setupDispatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw.On("PlaceCall", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), toNumber("+15550001")).
		Return(&telephony.CallResult{ID: "CA1"}, nil).Once()

	res, err := d.DispatchToContact(ctx, "A", validPayload)
	require.NoError(t, err)
	assert.True(t, res.Outcome.Succeeded)
	gw.AssertExpectations(t)
}

func TestDispatchToGroup_UnknownGroup(t *testing.T) {
	d, gw := setupDispatcher(t)

	_, err := d.DispatchToGroup(context.Background(), "nope", validPayload)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, TargetContactGroup, nf.Kind)
	gw.AssertNotCalled(t, "PlaceCall", mock.Anything, mock.Anything)
}

func TestDispatchToGroup_RenderFailureAttemptsNoCalls(t *testing.T) {
	d, gw := setupDispatcher(t)

	_, err := d.DispatchToGroup(context.Background(), "ALL", nil)
	var re *RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, TargetContactGroup, re.Kind)
	gw.AssertNotCalled(t, "PlaceCall", mock.Anything, mock.Anything)
}

func TestDispatchToGroup_CallsEveryMemberInOrder(t *testing.T) {
	d, gw := setupDispatcher(t)
	gw.On("PlaceCall", mock.Anything, toNumber("+15550001")).Return(&telephony.CallResult{ID: "CA1"}, nil).Once()
	gw.On("PlaceCall", mock.Anything, toNumber("+15550002")).Return(&telephony.CallResult{ID: "CA2"}, nil).Once()

	res, err := d.DispatchToGroup(context.Background(), "G", validPayload)
	require.NoError(t, err)

	require.Len(t, res.Contacts, 2)
	assert.Equal(t, "A", res.Contacts[0].ID)
	assert.Equal(t, "B", res.Contacts[1].ID)
	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, "CA1", res.Outcomes[0].ProviderReference)
	assert.Equal(t, "CA2", res.Outcomes[1].ProviderReference)
	gw.AssertNumberOfCalls(t, "PlaceCall", 2)
	gw.AssertExpectations(t)
}

func TestDispatchToGroup_OneMemberFailureDoesNotStopOthers(t *testing.T) {
	d, gw := setupDispatcher(t)
	gw.On("PlaceCall", mock.Anything, toNumber("+15550001")).Return(&telephony.CallResult{ID: "CA1"}, nil).Once()
	gw.On("PlaceCall", mock.Anything, toNumber("+15550002")).Return(nil, errors.New("busy")).Once()
	gw.On("PlaceCall", mock.Anything, mock.MatchedBy(func(req telephony.CallRequest) bool {
		return req.To == "+15550003" && req.Timeout == 45*time.Second
	})).Return(&telephony.CallResult{ID: "CA3"}, nil).Once()

	res, err := d.DispatchToGroup(context.Background(), "ALL", validPayload)
	require.NoError(t, err)

	require.Len(t, res.Outcomes, 3)
	assert.True(t, res.Outcomes[0].Succeeded)
	assert.False(t, res.Outcomes[1].Succeeded)
	assert.Equal(t, "busy", res.Outcomes[1].Error)
	assert.Equal(t, "B", res.Outcomes[1].Contact.ID)
	assert.True(t, res.Outcomes[2].Succeeded)
	gw.AssertNumberOfCalls(t, "PlaceCall", 3)
}

func TestDispatchToGroup_ProviderPanicIsIsolated(t *testing.T) {
	d, gw := setupDispatcher(t)
	gw.On("PlaceCall", mock.Anything, toNumber("+15550001")).Run(func(mock.Arguments) { panic("boom") }).Return(nil, nil).Once()
	gw.On("PlaceCall", mock.Anything, toNumber("+15550002")).Return(&telephony.CallResult{ID: "CA2"}, nil).Once()

	res, err := d.DispatchToGroup(context.Background(), "G", validPayload)
	require.NoError(t, err)
	assert.False(t, res.Outcomes[0].Succeeded)
	assert.Contains(t, res.Outcomes[0].Error, "boom")
	assert.True(t, res.Outcomes[1].Succeeded)
}
