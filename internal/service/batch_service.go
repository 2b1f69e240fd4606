package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/enlistment-api/internal/dto"
	"github.com/noah-isme/enlistment-api/internal/models"
	appErrors "github.com/noah-isme/enlistment-api/pkg/errors"
	"github.com/noah-isme/enlistment-api/pkg/jobs"
)

type batchEnlister interface {
	Enlist(ctx context.Context, studentNumber int, req dto.EnlistRequest) (*models.Student, error)
}

// BatchEnlistmentService runs registrar batch enlistments on a worker queue.
// Each item goes through the normal rule chain; rule violations are recorded
// per item, while internal failures retry the job from the failed item.
type BatchEnlistmentService struct {
	enlister  batchEnlister
	queue     *jobs.Queue[string]
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger

	mu      sync.RWMutex
	batches map[string]*models.BatchJob
}

// NewBatchEnlistmentService constructs the service and its queue.
func NewBatchEnlistmentService(enlister batchEnlister, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg jobs.QueueConfig) *BatchEnlistmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Logger = logger
	s := &BatchEnlistmentService{
		enlister:  enlister,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		batches:   make(map[string]*models.BatchJob),
	}
	s.queue = jobs.NewQueue[string]("batch-enlistment", s.process, cfg)
	s.queue.OnExhausted(s.fail)
	return s
}

// Start launches the workers.
func (s *BatchEnlistmentService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for the workers to exit.
func (s *BatchEnlistmentService) Stop() {
	s.queue.Stop()
}

// Submit queues a batch and returns its initial state.
func (s *BatchEnlistmentService) Submit(ctx context.Context, req dto.BatchEnlistRequest) (*models.BatchJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "invalid batch payload")
	}

	items := make([]models.BatchItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, models.BatchItem{StudentNumber: *item.StudentNumber, SectionID: item.SectionID})
	}
	batch := &models.BatchJob{
		ID:        uuid.NewString(),
		Status:    models.BatchJobQueued,
		Actor:     ActorFromContext(ctx),
		Items:     items,
		Results:   make([]models.BatchItemResult, 0, len(items)),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.batches[batch.ID] = batch
	snapshot := copyBatch(batch)
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job[string]{ID: batch.ID, Payload: batch.ID}); err != nil {
		s.mu.Lock()
		delete(s.batches, batch.ID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue batch")
	}

	s.logger.Info("batch enlistment queued", zap.String("batch_id", batch.ID), zap.Int("items", len(items)), zap.String("actor", batch.Actor))
	return snapshot, nil
}

// Get returns the current state of a batch.
func (s *BatchEnlistmentService) Get(ctx context.Context, id string) (*models.BatchJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, ok := s.batches[id]
	if !ok {
		return nil, appErrors.Clonef(appErrors.ErrNotFound, "batch %s not found", id)
	}
	return copyBatch(batch), nil
}

func (s *BatchEnlistmentService) process(ctx context.Context, job jobs.Job[string]) error {
	s.mu.Lock()
	batch, ok := s.batches[job.Payload]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	batch.Status = models.BatchJobProcessing
	actor := batch.Actor
	s.mu.Unlock()

	ctx = ContextWithActor(ctx, actor)
	for {
		s.mu.RLock()
		next := len(batch.Results)
		done := next >= len(batch.Items)
		var item models.BatchItem
		if !done {
			item = batch.Items[next]
		}
		s.mu.RUnlock()
		if done {
			break
		}

		result := models.BatchItemResult{BatchItem: item}
		_, err := s.enlister.Enlist(ctx, item.StudentNumber, dto.EnlistRequest{SectionID: item.SectionID})
		if err != nil {
			code := appErrors.Code(err)
			if code == "" || code == appErrors.ErrInternal.Code {
				return fmt.Errorf("batch %s item %d: %w", batch.ID, next, err)
			}
			result.Code = code
			result.Message = appErrors.FromError(err).Message
		} else {
			result.Enlisted = true
		}
		s.metrics.RecordBatchItem(result.Code)

		s.mu.Lock()
		batch.Results = append(batch.Results, result)
		s.mu.Unlock()
	}

	s.mu.Lock()
	finished := time.Now().UTC()
	batch.Status = models.BatchJobFinished
	batch.FinishedAt = &finished
	s.mu.Unlock()

	s.logger.Info("batch enlistment finished", zap.String("batch_id", batch.ID), zap.Int("items", len(batch.Items)))
	return nil
}

func (s *BatchEnlistmentService) fail(job jobs.Job[string], err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.batches[job.Payload]
	if !ok {
		return
	}
	finished := time.Now().UTC()
	batch.Status = models.BatchJobFailed
	batch.Error = err.Error()
	batch.FinishedAt = &finished
	s.logger.Error("batch enlistment failed", zap.String("batch_id", batch.ID), zap.Int("processed", len(batch.Results)), zap.Error(err))
}

func copyBatch(batch *models.BatchJob) *models.BatchJob {
	out := *batch
	out.Items = append([]models.BatchItem(nil), batch.Items...)
	out.Results = append([]models.BatchItemResult(nil), batch.Results...)
	if batch.FinishedAt != nil {
		finished := *batch.FinishedAt
		out.FinishedAt = &finished
	}
	return &out
}
