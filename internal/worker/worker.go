package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-research/portal/internal/models"
	"github.com/campus-research/portal/pkg/queue"
)

// AccountDirectory is the slice of the account client the worker needs.
type AccountDirectory interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreditPoints(ctx context.Context, username string, points int) error
}

// CreditProcessor consumes credit-award jobs and posts the points to the
// account directory. The reservation itself was already closed when the job
// was enqueued; a failing credit only retries the job, never touches core
// state.
type CreditProcessor struct {
	accounts AccountDirectory
	queue    *queue.Queue
	logger   *zap.Logger
}

// NewCreditProcessor creates a credit-award processor.
func NewCreditProcessor(accounts AccountDirectory, q *queue.Queue, logger *zap.Logger) *CreditProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreditProcessor{accounts: accounts, queue: q, logger: logger}
}

// Process executes one credit-award job.
func (p *CreditProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeCreditAward {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.CreditAwardPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.Points <= 0 {
		p.logger.Info("skipping zero-point credit", zap.String("reservation_id", payload.ReservationID.String()))
		return nil
	}

	user, err := p.accounts.GetUserByID(ctx, payload.ParticipantID)
	if err != nil {
		return fmt.Errorf("resolve participant: %w", err)
	}
	if user == nil {
		return fmt.Errorf("participant not found: %s", payload.ParticipantID)
	}

	if err := p.accounts.CreditPoints(ctx, user.Username, payload.Points); err != nil {
		return fmt.Errorf("credit points: %w", err)
	}

	p.logger.Info("reward points credited",
		zap.String("reservation_id", payload.ReservationID.String()),
		zap.String("username", user.Username),
		zap.Int("points", payload.Points),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *CreditProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("credit worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
