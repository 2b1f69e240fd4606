package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enlistment-api/internal/models"
	appErrors "github.com/noah-isme/enlistment-api/pkg/errors"
)

type assessmentServiceMock struct {
	assessment *models.Assessment
	pdf        []byte
	err        error
}

func (m *assessmentServiceMock) RequestAssessment(ctx context.Context, studentNumber int) (*models.Assessment, error) {
	return m.assessment, m.err
}

func (m *assessmentServiceMock) Statement(ctx context.Context, studentNumber int) ([]byte, error) {
	return m.pdf, m.err
}

func TestAssessmentHandlerJSON(t *testing.T) {
	handler := NewAssessmentHandler(&assessmentServiceMock{assessment: &models.Assessment{
		StudentNumber: 1,
		Total:         decimal.RequireFromString("3871.59"),
	}})

	c, w := newTestContext(http.MethodGet, "/students/1/assessment", "", gin.Params{{Key: "number", Value: "1"}})
	handler.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":"3871.59"`)
}

func TestAssessmentHandlerPDF(t *testing.T) {
	handler := NewAssessmentHandler(&assessmentServiceMock{pdf: []byte("%PDF-1.3")})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/students/1/assessment?format=pdf", nil)
	c.Params = gin.Params{{Key: "number", Value: "1"}}
	handler.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "assessment-1.pdf")
}

func TestAssessmentHandlerError(t *testing.T) {
	handler := NewAssessmentHandler(&assessmentServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "student 1 not found")})

	c, w := newTestContext(http.MethodGet, "/", "", gin.Params{{Key: "number", Value: "1"}})
	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	handler = NewAssessmentHandler(&assessmentServiceMock{err: errors.New("boom")})
	c, w = newTestContext(http.MethodGet, "/", "", gin.Params{{Key: "number", Value: "1"}})
	handler.Get(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	handler := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"journal": func(context.Context) error { return nil },
	})
	c, w := newTestContext(http.MethodGet, "/ready", "", nil)
	handler.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	handler = NewMetricsHandler(nil, map[string]ReadinessCheck{
		"cache": func(context.Context) error { return errors.New("redis down") },
	})
	c, w = newTestContext(http.MethodGet, "/ready", "", nil)
	handler.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis down")
}
