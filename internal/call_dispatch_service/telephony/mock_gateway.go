package telephony

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MockGateway is a simulated provider for development and load testing.
// No call is actually placed.
type MockGateway struct {
	logger       *slog.Logger
	failRate     float64 // Chance to simulate failure (0.0 to 1.0)
	minLatencyMs int
	maxLatencyMs int
}

// NewMockGateway creates a new MockGateway.
func NewMockGateway(logger *slog.Logger, failRate float64, minLatencyMs, maxLatencyMs int) *MockGateway {
	if maxLatencyMs < minLatencyMs {
		maxLatencyMs = minLatencyMs
	}
	return &MockGateway{
		logger:       logger.With("provider", "mock"),
		failRate:     failRate,
		minLatencyMs: minLatencyMs,
		maxLatencyMs: maxLatencyMs,
	}
}

func (g *MockGateway) Name() string {
	return "mock"
}

func (g *MockGateway) PlaceCall(ctx context.Context, req CallRequest) (*CallResult, error) {
	if g.maxLatencyMs > 0 {
		latency := g.minLatencyMs + rand.Intn(g.maxLatencyMs-g.minLatencyMs+1)
		select {
		case <-time.After(time.Duration(latency) * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	g.logger.InfoContext(ctx, "MockGateway: PlaceCall called",
		"from", req.From,
		"to", req.To,
		"timeout", req.Timeout,
		"script_len", len(req.Script))

	if rand.Float64() < g.failRate {
		return nil, fmt.Errorf("mock: simulated failure for call to %s", req.To)
	}

	return &CallResult{
		ID:     "CA" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Status: "queued",
	}, nil
}
