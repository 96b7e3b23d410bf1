package events

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/streadway/amqp"
)

func TestAwaitConfirm(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name     string
		confirms []amqp.Confirmation
		tag      uint64
		wantErr  bool
	}{
		{"ack", []amqp.Confirmation{{DeliveryTag: 1, Ack: true}}, 1, false},
		{"nack", []amqp.Confirmation{{DeliveryTag: 1, Ack: false}}, 1, true},
		{"late confirm skipped", []amqp.Confirmation{{DeliveryTag: 1, Ack: true}, {DeliveryTag: 2, Ack: true}}, 2, false},
		{"late ack does not hide nack", []amqp.Confirmation{{DeliveryTag: 1, Ack: true}, {DeliveryTag: 2, Ack: false}}, 2, true},
		{"only stale confirms", []amqp.Confirmation{{DeliveryTag: 1, Ack: true}}, 2, true},
		{"tag from the future", []amqp.Confirmation{{DeliveryTag: 3, Ack: true}}, 2, true},
	}

	for _, tt := range tests {
		ch := make(chan amqp.Confirmation, len(tt.confirms))
		for _, c := range tt.confirms {
			ch <- c
		}

		err := awaitConfirm(context.Background(), ch, tt.tag, 50*time.Millisecond, log)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestAwaitConfirmClosedAndCanceled(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	closed := make(chan amqp.Confirmation)
	close(closed)
	if err := awaitConfirm(context.Background(), closed, 1, time.Second, log); err == nil {
		t.Error("expected error on closed confirm channel")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := awaitConfirm(ctx, make(chan amqp.Confirmation), 1, time.Second, log); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
