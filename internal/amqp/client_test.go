package amqp

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	amqp091 "github.com/rabbitmq/amqp091-go"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{-1, time.Second},
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, maxBackoff},
		{40, maxBackoff},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.want {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"broker closed", amqp091.ErrClosed, true},
		{"wrapped broker closed", fmt.Errorf("open channel: %w", amqp091.ErrClosed), true},
		{"refused", errors.New("dial tcp 127.0.0.1:5672: connect: connection refused"), true},
		{"reset", errors.New("read: connection reset by peer"), true},
		{"eof", errors.New("unexpected EOF"), true},
		{"dial", errors.New("dial amqp: no such host"), true},
		{"malformed message", errors.New("invalid character 'x' looking for beginning of value"), false},
		{"handler failure", errors.New("reload budget: data source budget.csv: missing column"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.want {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// The breaker is exercised as one sequence: closed, open after repeated
// failures, half-open once the timeout passes, open again on the next
// failure, closed on success.
func TestCircuitBreakerTransitions(t *testing.T) {
	c := &Client{url: "amqp://guest@localhost:5672/", exchangeName: "budgetreview", queueName: "dataset_updated"}

	state := func() int32 { return atomic.LoadInt32(&c.state) }

	if c.isCircuitOpen() || state() != StateClosed {
		t.Fatal("new client should start closed")
	}

	for i := 0; i < maxFailures-1; i++ {
		c.recordFailure()
	}
	if c.isCircuitOpen() {
		t.Fatalf("circuit opened after %d failures, threshold is %d", maxFailures-1, maxFailures)
	}
	c.recordFailure()
	if !c.isCircuitOpen() || state() != StateOpen {
		t.Fatal("circuit should open at the failure threshold")
	}

	c.mu.Lock()
	c.lastFailure = time.Now().Add(-openTimeout - time.Second)
	c.mu.Unlock()
	if c.isCircuitOpen() || state() != StateHalfOpen {
		t.Fatalf("circuit should be half-open after the timeout, state=%d", state())
	}

	c.recordFailure()
	if state() != StateOpen {
		t.Fatal("a failure while half-open should reopen the circuit")
	}

	c.recordSuccess()
	if state() != StateClosed || atomic.LoadInt64(&c.failureCount) != 0 {
		t.Fatal("success should close the circuit and reset failures")
	}
}

func TestPublishDatasetUpdatedGuards(t *testing.T) {
	t.Run("open circuit", func(t *testing.T) {
		c := &Client{url: "amqp://guest@localhost:5672/"}
		atomic.StoreInt32(&c.state, StateOpen)
		c.lastFailure = time.Now()

		err := c.PublishDatasetUpdated(context.Background(), 3, "csv:budget.csv")
		if !errors.Is(err, ErrCircuitOpen) {
			t.Errorf("expected ErrCircuitOpen, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		c := &Client{url: "amqp://guest@localhost:5672/"}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := c.PublishDatasetUpdated(ctx, 3, "csv:budget.csv")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestConsumeStopsOnCancelledContext(t *testing.T) {
	c := &Client{url: "amqp://nobody@127.0.0.1:1/", exchangeName: "x", queueName: "q"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	err := c.ConsumeDatasetUpdated(ctx, func(context.Context, *DatasetUpdatedMessage) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("handler called %d times", calls)
	}
}

func TestDatasetUpdatedMessage(t *testing.T) {
	msg := NewDatasetUpdatedMessage(7, "sheets:abc")
	if msg.Version != 7 || msg.Source != "sheets:abc" {
		t.Errorf("unexpected message: %+v", msg)
	}
	if msg.Timestamp.IsZero() || time.Since(msg.Timestamp) > time.Second {
		t.Error("timestamp should be recent")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	parsed, err := DatasetUpdatedMessageFromJSON(data)
	if err != nil {
		t.Fatalf("DatasetUpdatedMessageFromJSON() error = %v", err)
	}
	if parsed.Version != 7 || parsed.Source != "sheets:abc" || !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("parsed = %+v, want %+v", parsed, msg)
	}

	if _, err := DatasetUpdatedMessageFromJSON([]byte(`{"version": "seven"}`)); err == nil {
		t.Error("expected error for a non-numeric version")
	}
}
