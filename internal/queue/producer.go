package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"edulift.app/membership/common/logger"
)

type EmailMessage struct {
	TaskType     TaskType
	InvitationID int64
	To           string
	Payload      []byte // JSON encoded domain.*InvitationEmail
	TraceID      *string
	Attempt      int
}

type Producer interface {
	Enqueue(ctx context.Context, msg EmailMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, msg EmailMessage) error {
	attempt := msg.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"task_type":     string(msg.TaskType),
		"invitation_id": msg.InvitationID,
		"to":            msg.To,
		"payload":       string(msg.Payload),
		"attempt":       attempt,
	}

	if msg.TraceID != nil && *msg.TraceID != "" {
		fields["trace_id"] = *msg.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued invitation email",
		"invitation_id", msg.InvitationID,
		"task_type", msg.TaskType,
		"to", logger.MaskEmail(msg.To),
		"attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
