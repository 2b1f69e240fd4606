package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enlistment-api/internal/dto"
	"github.com/noah-isme/enlistment-api/internal/models"
	appErrors "github.com/noah-isme/enlistment-api/pkg/errors"
)

type batchServiceMock struct {
	submitted *dto.BatchEnlistRequest
	batch     *models.BatchJob
	err       error
}

func (m *batchServiceMock) Submit(ctx context.Context, req dto.BatchEnlistRequest) (*models.BatchJob, error) {
	m.submitted = &req
	return m.batch, m.err
}

func (m *batchServiceMock) Get(ctx context.Context, id string) (*models.BatchJob, error) {
	if m.batch == nil || m.batch.ID != id {
		return nil, appErrors.Clonef(appErrors.ErrNotFound, "batch %s not found", id)
	}
	return m.batch, nil
}

func TestBatchHandlerSubmit(t *testing.T) {
	mock := &batchServiceMock{batch: &models.BatchJob{ID: "b-1", Status: models.BatchJobQueued}}
	handler := NewBatchHandler(mock)

	c, w := newTestContext(http.MethodPost, "/enlistments/batch", `{"items":[{"studentNumber":1,"sectionId":"MATH101A"},{"studentNumber":2,"sectionId":"PHYS101A"}]}`, nil)
	handler.Submit(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.NotNil(t, mock.submitted)
	require.Len(t, mock.submitted.Items, 2)
	assert.Equal(t, 2, *mock.submitted.Items[1].StudentNumber)

	var body struct {
		Data models.BatchJob `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.BatchJobQueued, body.Data.Status)
}

func TestBatchHandlerGet(t *testing.T) {
	handler := NewBatchHandler(&batchServiceMock{batch: &models.BatchJob{ID: "b-1", Status: models.BatchJobFinished}})

	c, w := newTestContext(http.MethodGet, "/", "", gin.Params{{Key: "id", Value: "b-1"}})
	handler.Get(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newTestContext(http.MethodGet, "/", "", gin.Params{{Key: "id", Value: "b-2"}})
	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
