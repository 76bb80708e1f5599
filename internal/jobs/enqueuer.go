package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

// Enqueuer is the API side of the queue. It satisfies facture.Queue and
// auth.Notifier, so both services hand work to the worker without knowing it.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(opt asynq.RedisConnOpt) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(opt)}
}

func (e *Enqueuer) EnqueueReceipt(ctx context.Context, factureID int64) error {
	task, err := NewReceiptTask(factureID)
	if err != nil {
		return err
	}
	return e.enqueue(ctx, task)
}

func (e *Enqueuer) EnqueueFactureCreated(ctx context.Context, factureID int64) error {
	task, err := NewFactureCreatedTask(factureID)
	if err != nil {
		return err
	}
	return e.enqueue(ctx, task)
}

func (e *Enqueuer) SendVerificationCode(ctx context.Context, phone, code string) error {
	task, err := NewVerificationTask(phone, code)
	if err != nil {
		return err
	}
	return e.enqueue(ctx, task)
}

func (e *Enqueuer) SendPasswordReset(ctx context.Context, email string, userID int64, token string) error {
	task, err := NewPasswordResetTask(email, userID, token)
	if err != nil {
		return err
	}
	return e.enqueue(ctx, task)
}

func (e *Enqueuer) enqueue(ctx context.Context, task *asynq.Task) error {
	if _, err := e.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault)); err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return nil
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}
