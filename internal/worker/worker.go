package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"edulift.app/membership/common/logger"
	"edulift.app/membership/internal/mail"
	"edulift.app/membership/internal/queue"
)

// errUnprocessable marks a task that can never succeed, such as an
// undecodable payload. It goes straight to the DLQ.
var errUnprocessable = errors.New("unprocessable task")

type Config struct {
	MaxAttempts int
}

// Worker drains the invitation e-mail stream.
type Worker struct {
	consumer Consumer
	sender   mail.Sender
	cfg      Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, sender mail.Sender, cfg Config) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Worker{
		consumer:  consumer,
		sender:    sender,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "membership.worker.email"})
	slog.InfoContext(ctx, "email worker started", "max_attempts", w.cfg.MaxAttempts)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "email worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on error
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		_ = w.Handle(ctx, msg)
	}
	return nil
}

// Handle sends one task and settles it: ACK on success, otherwise requeue or
// DLQ. Exported so the reclaimer can reuse it.
func (w *Worker) Handle(ctx context.Context, msg queue.Message) error {
	msgID := msg.ID
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		MessageID:    &msgID,
		InvitationID: logger.Ptr(msg.InvitationID),
	})

	err := w.processMessageSafe(ctx, msg)
	if err != nil {
		slog.ErrorContext(ctx, "message processing failed",
			"error", err,
			"task_type", msg.TaskType,
			"attempt", msg.Attempt)
		w.handleFailedMessage(ctx, msg, err)
	}
	return err
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage renders and sends the e-mail, then ACKs the message.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	sc := logger.StartSpanFromTraceID(ctx, msg.TraceID, "membership.worker.send_invitation_email")
	defer sc.End()
	ctx = sc.Context()

	email, err := render(msg)
	if err != nil {
		sc.RecordError(err)
		return fmt.Errorf("%w: %w", errUnprocessable, err)
	}

	start := time.Now()
	if err := w.sender.Send(ctx, email); err != nil {
		sc.RecordError(err)
		return fmt.Errorf("sending email: %w", err)
	}

	slog.InfoContext(ctx, "invitation email sent",
		"task_type", msg.TaskType,
		"to", logger.MaskEmail(email.To),
		"attempt", msg.Attempt,
		"duration_ms", time.Since(start).Milliseconds())

	if err := w.consumer.Ack(ctx, msg); err != nil {
		// The idempotency key makes a redelivered send harmless.
		slog.WarnContext(ctx, "failed to ACK message", "error", err)
	}
	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	permanent := errors.Is(err, errUnprocessable) || errors.Is(err, mail.ErrPermanent)
	if permanent || msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "giving up on message, sending to DLQ",
			"attempts", msg.Attempt,
			"permanent", permanent)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed message", "attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}

func render(msg queue.Message) (mail.Email, error) {
	switch msg.TaskType {
	case queue.TaskTypeFamilyInvitationEmail:
		payload, err := msg.FamilyInvitation()
		if err != nil {
			return mail.Email{}, err
		}
		return mail.RenderFamilyInvitation(msg.To, payload)
	case queue.TaskTypeGroupInvitationEmail:
		payload, err := msg.GroupInvitation()
		if err != nil {
			return mail.Email{}, err
		}
		return mail.RenderGroupInvitation(payload)
	default:
		return mail.Email{}, fmt.Errorf("unknown task type %q", msg.TaskType)
	}
}
