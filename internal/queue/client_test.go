package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{40, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"refused", errors.New("dial tcp 127.0.0.1:5672: connect: connection refused"), true},
		{"eof", fmt.Errorf("dial AMQP: %w", errors.New("unexpected EOF")), true},
		{"recoverable amqp", &amqp091.Error{Code: amqp091.ChannelError, Recover: true}, true},
		{"access refused", &amqp091.Error{Code: amqp091.AccessRefused, Reason: "bad credentials"}, false},
		{"other", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestStatementUploadedMessage(t *testing.T) {
	uploadID, userID := uuid.New(), uuid.New()
	body, err := NewStatementUploadedMessage(uploadID, userID).ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	msg, err := StatementUploadedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if msg.UploadID != uploadID || msg.UserID != userID || msg.Timestamp.IsZero() {
		t.Errorf("decoded %+v", msg)
	}

	for _, bad := range []string{`not json`, `{}`, `{"uploadId":"nope"}`} {
		if _, err := StatementUploadedMessageFromJSON([]byte(bad)); err == nil {
			t.Errorf("FromJSON(%s) accepted", bad)
		}
	}
}

type recordingAcker struct {
	acks     int
	nacks    int
	requeued bool
}

func (a *recordingAcker) Ack(tag uint64, multiple bool) error {
	a.acks++
	return nil
}

func (a *recordingAcker) Nack(tag uint64, multiple, requeue bool) error {
	a.nacks++
	a.requeued = requeue
	return nil
}

func (a *recordingAcker) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestHandleDelivery(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	c := &Client{retryDelay: 50 * time.Millisecond, logger: logger}

	body, err := NewStatementUploadedMessage(uuid.New(), uuid.New()).ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	deliver := func(ctx context.Context, body []byte, handlerErr error) (*recordingAcker, time.Duration) {
		acker := &recordingAcker{}
		start := time.Now()
		c.handleDelivery(ctx, amqp091.Delivery{Acknowledger: acker, Body: body}, func(context.Context, *StatementUploadedMessage) error {
			return handlerErr
		})
		return acker, time.Since(start)
	}

	t.Run("success acks", func(t *testing.T) {
		acker, _ := deliver(context.Background(), body, nil)
		if acker.acks != 1 || acker.nacks != 0 {
			t.Errorf("acks=%d nacks=%d", acker.acks, acker.nacks)
		}
	})

	t.Run("undecodable is dropped", func(t *testing.T) {
		acker, elapsed := deliver(context.Background(), []byte("garbage"), nil)
		if acker.nacks != 1 || acker.requeued || elapsed >= c.retryDelay {
			t.Errorf("nacks=%d requeued=%v elapsed=%v", acker.nacks, acker.requeued, elapsed)
		}
	})

	t.Run("handler error requeues after a delay", func(t *testing.T) {
		acker, elapsed := deliver(context.Background(), body, errors.New("database unavailable"))
		if acker.nacks != 1 || !acker.requeued {
			t.Errorf("nacks=%d requeued=%v", acker.nacks, acker.requeued)
		}
		if elapsed < c.retryDelay {
			t.Errorf("requeued after %v, want at least %v", elapsed, c.retryDelay)
		}
	})

	t.Run("shutdown skips the delay", func(t *testing.T) {
		c.retryDelay = time.Hour
		defer func() { c.retryDelay = 50 * time.Millisecond }()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		acker, elapsed := deliver(ctx, body, errors.New("database unavailable"))
		if acker.nacks != 1 || !acker.requeued || elapsed > time.Second {
			t.Errorf("nacks=%d requeued=%v elapsed=%v", acker.nacks, acker.requeued, elapsed)
		}
	})
}
