package worker

import (
	"context"

	"edulift.app/membership/internal/mail"
	"edulift.app/membership/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

var _ Consumer = (*queue.RedisConsumer)(nil)

var _ mail.Sender = (*mail.ResendSender)(nil)
