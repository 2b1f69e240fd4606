package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enlistment-api/internal/dto"
	"github.com/noah-isme/enlistment-api/internal/models"
	appErrors "github.com/noah-isme/enlistment-api/pkg/errors"
	"github.com/noah-isme/enlistment-api/pkg/jobs"
)

type flakyEnlister struct {
	mu       sync.Mutex
	failures int
	calls    []models.BatchItem
}

func (f *flakyEnlister) Enlist(ctx context.Context, studentNumber int, req dto.EnlistRequest) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures != 0 {
		if f.failures > 0 {
			f.failures--
		}
		return nil, appErrors.Wrap(errors.New("journal offline"), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record enlistment event")
	}
	f.calls = append(f.calls, models.BatchItem{StudentNumber: studentNumber, SectionID: req.SectionID})
	return &models.Student{Number: studentNumber}, nil
}

func intPtr(v int) *int { return &v }

func waitForBatch(t *testing.T, svc *BatchEnlistmentService, id string, status models.BatchJobStatus) *models.BatchJob {
	t.Helper()
	var batch *models.BatchJob
	require.Eventually(t, func() bool {
		var err error
		batch, err = svc.Get(context.Background(), id)
		return err == nil && batch.Status == status
	}, 2*time.Second, 5*time.Millisecond)
	return batch
}

func TestBatchEnlistmentServiceRecordsPerItemOutcome(t *testing.T) {
	f := newEnlistmentFixture(t)
	svc := NewBatchEnlistmentService(f.enlistment, nil, nil, nil, jobs.QueueConfig{Workers: 1})
	svc.Start(context.Background())
	defer svc.Stop()

	ctx := ContextWithActor(context.Background(), "registrar")
	queued, err := svc.Submit(ctx, dto.BatchEnlistRequest{Items: []dto.BatchEnlistItem{
		{StudentNumber: intPtr(1), SectionID: "CHEM101L"},
		{StudentNumber: intPtr(2), SectionID: "CHEM101L"},
		{StudentNumber: intPtr(2), SectionID: "MATH101A"},
		{StudentNumber: intPtr(99), SectionID: "MATH101A"},
	}})
	require.NoError(t, err)
	assert.Equal(t, models.BatchJobQueued, queued.Status)
	assert.Equal(t, "registrar", queued.Actor)

	batch := waitForBatch(t, svc, queued.ID, models.BatchJobFinished)
	require.Len(t, batch.Results, 4)
	assert.True(t, batch.Results[0].Enlisted)
	assert.Equal(t, appErrors.ErrCapacityReached.Code, batch.Results[1].Code)
	assert.True(t, batch.Results[2].Enlisted)
	assert.Equal(t, appErrors.ErrNotFound.Code, batch.Results[3].Code)
	assert.NotNil(t, batch.FinishedAt)

	events, err := f.enlistment.History(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "registrar", events[0].Actor)
}

func TestBatchEnlistmentServiceRetriesInternalFailures(t *testing.T) {
	enlister := &flakyEnlister{failures: 2}
	svc := NewBatchEnlistmentService(enlister, nil, nil, nil, jobs.QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	svc.Start(context.Background())
	defer svc.Stop()

	queued, err := svc.Submit(context.Background(), dto.BatchEnlistRequest{Items: []dto.BatchEnlistItem{
		{StudentNumber: intPtr(1), SectionID: "A1"},
		{StudentNumber: intPtr(2), SectionID: "A1"},
	}})
	require.NoError(t, err)

	batch := waitForBatch(t, svc, queued.ID, models.BatchJobFinished)
	assert.Len(t, batch.Results, 2)
	enlister.mu.Lock()
	defer enlister.mu.Unlock()
	assert.Len(t, enlister.calls, 2, "each item is enlisted exactly once across retries")
}

func TestBatchEnlistmentServiceFailsAfterRetries(t *testing.T) {
	enlister := &flakyEnlister{failures: -1}
	svc := NewBatchEnlistmentService(enlister, nil, nil, nil, jobs.QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond})
	svc.Start(context.Background())
	defer svc.Stop()

	queued, err := svc.Submit(context.Background(), dto.BatchEnlistRequest{Items: []dto.BatchEnlistItem{
		{StudentNumber: intPtr(1), SectionID: "A1"},
	}})
	require.NoError(t, err)

	batch := waitForBatch(t, svc, queued.ID, models.BatchJobFailed)
	assert.Contains(t, batch.Error, "journal offline")
	assert.Empty(t, batch.Results)
}

func TestBatchEnlistmentServiceValidation(t *testing.T) {
	svc := NewBatchEnlistmentService(&flakyEnlister{}, nil, nil, nil, jobs.QueueConfig{})
	svc.Start(context.Background())
	defer svc.Stop()

	_, err := svc.Submit(context.Background(), dto.BatchEnlistRequest{})
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)

	_, err = svc.Submit(context.Background(), dto.BatchEnlistRequest{Items: []dto.BatchEnlistItem{{SectionID: "A1"}}})
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
