package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

func TestBackoffDoublesUpToCap(t *testing.T) {
	want := []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, maxBackoff, maxBackoff, maxBackoff,
	}
	for attempt, w := range want {
		if got := exponentialBackoff(attempt); got != w {
			t.Errorf("exponentialBackoff(%d) = %v, want %v", attempt, got, w)
		}
	}
	if got := exponentialBackoff(40); got != maxBackoff {
		t.Errorf("exponentialBackoff(40) = %v, want %v", got, maxBackoff)
	}
}

func TestConnectionErrorClassification(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{amqp091.ErrClosed, true},
		{fmt.Errorf("publish: %w", amqp091.ErrClosed), true},
		{errors.New("dial AMQP: dial tcp 127.0.0.1:5672: connect: connection refused"), true},
		{errors.New("write: broken pipe"), true},
		{errors.New("unexpected EOF"), true},
		{errors.New("PRECONDITION_FAILED - inequivalent arg 'type' for exchange"), false},
		{errors.New("marshal message: unsupported value"), false},
	}
	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.want {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	c := &Client{}
	for i := 0; i < maxFailures-1; i++ {
		c.recordFailure()
	}
	if c.isCircuitOpen() {
		t.Fatal("one short of the threshold should keep the breaker closed")
	}

	c.recordFailure()
	if !c.isCircuitOpen() {
		t.Fatal("breaker should open at the failure threshold")
	}
	if s := atomic.LoadInt32(&c.state); s != StateOpen {
		t.Errorf("state = %d, want %d", s, StateOpen)
	}

	c.recordSuccess()
	if c.isCircuitOpen() {
		t.Error("a success should close the breaker")
	}
	if n := atomic.LoadInt64(&c.failureCount); n != 0 {
		t.Errorf("failureCount = %d, want 0", n)
	}
}

func TestBreakerHalfOpensAfterTimeout(t *testing.T) {
	c := &Client{state: StateOpen, lastFailure: time.Now().Add(-openTimeout - time.Second)}

	if c.isCircuitOpen() {
		t.Fatal("a trial request should be allowed once the open timeout passed")
	}
	if s := atomic.LoadInt32(&c.state); s != StateHalfOpen {
		t.Errorf("state = %d, want %d", s, StateHalfOpen)
	}

	c.recordFailure()
	if s := atomic.LoadInt32(&c.state); s != StateOpen {
		t.Errorf("a failed trial should reopen the breaker, state = %d", s)
	}
	if !c.isCircuitOpen() {
		t.Error("breaker should be open")
	}
}

func TestPublishChangeShortCircuits(t *testing.T) {
	msg := NewChangeMessage(EntityTransaction, ActionCreated, 3)

	t.Run("breaker open", func(t *testing.T) {
		c := &Client{state: StateOpen, lastFailure: time.Now()}
		err := c.PublishChange(context.Background(), msg)
		if !errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("PublishChange() error = %v, want ErrCircuitOpen", err)
		}
		if !strings.Contains(err.Error(), "transaction created") {
			t.Errorf("error %q should name the change", err)
		}
	})

	t.Run("context cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := (&Client{}).PublishChange(ctx, msg); !errors.Is(err, context.Canceled) {
			t.Errorf("PublishChange() error = %v, want context.Canceled", err)
		}
	})
}

type recordingAck struct{ acked, requeued, dropped int }

func (a *recordingAck) Ack(uint64, bool) error { a.acked++; return nil }

func (a *recordingAck) Nack(_ uint64, _ bool, requeue bool) error {
	if requeue {
		a.requeued++
	} else {
		a.dropped++
	}
	return nil
}

func (a *recordingAck) Reject(uint64, bool) error { a.dropped++; return nil }

func TestHandleDelivery(t *testing.T) {
	body, err := NewChangeMessage(EntityTransaction, ActionDeleted, 9).ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error: %v", err)
	}

	tests := []struct {
		name    string
		body    []byte
		handler ChangeHandler
		want    recordingAck
	}{
		{"handled", body, func(context.Context, *ChangeMessage) error { return nil }, recordingAck{acked: 1}},
		{"handler error requeues", body, func(context.Context, *ChangeMessage) error { return errors.New("db locked") }, recordingAck{requeued: 1}},
		{"malformed is dropped", []byte("{"), func(context.Context, *ChangeMessage) error {
			t.Fatal("handler must not see malformed messages")
			return nil
		}, recordingAck{dropped: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &recordingAck{}
			handleDelivery(context.Background(), amqp091.Delivery{Acknowledger: ack, Body: tt.body}, tt.handler)
			if *ack != tt.want {
				t.Errorf("acknowledgements = %+v, want %+v", *ack, tt.want)
			}
		})
	}
}
