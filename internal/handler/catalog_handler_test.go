package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enlistment-api/internal/repository"
	"github.com/noah-isme/enlistment-api/internal/service"
	appErrors "github.com/noah-isme/enlistment-api/pkg/errors"
)

func newCatalogHandler(t *testing.T) (*CatalogHandler, *repository.CatalogStore) {
	t.Helper()
	store := repository.NewCatalogStore()
	handler := NewCatalogHandler(service.NewCatalogService(store, nil, nil, nil, nil))

	for _, step := range []struct {
		call func(*gin.Context)
		body string
	}{
		{handler.CreateSubject, `{"id":"MATH101","units":3}`},
		{handler.CreateRoom, `{"name":"R101","capacity":2}`},
		{handler.CreateInstructor, `{"name":"Reyes"}`},
		{handler.CreateSection, `{"id":"MATH101A","subjectId":"MATH101","days":"MTH","period":"H0830_1000","room":"R101","instructor":"Reyes"}`},
		{handler.RegisterStudent, `{"studentNumber":12345}`},
	} {
		c, w := newTestContext(http.MethodPost, "/", step.body, nil)
		step.call(c)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	return handler, store
}

func TestCatalogHandlerCreateSectionConflict(t *testing.T) {
	handler, _ := newCatalogHandler(t)

	c, w := newTestContext(http.MethodPost, "/", `{"id":"MATH101B","subjectId":"MATH101","days":"MTH","period":"H0830_1000","room":"R101","instructor":"Reyes"}`, nil)
	handler.CreateSection(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	appErr := decodeError(t, w)
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "MATH101A")
}

func TestCatalogHandlerCreateSectionUnknownRoom(t *testing.T) {
	handler, _ := newCatalogHandler(t)

	c, w := newTestContext(http.MethodPost, "/", `{"id":"MATH101B","subjectId":"MATH101","days":"TF","period":"H0830_1000","room":"R999","instructor":"Reyes"}`, nil)
	handler.CreateSection(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrInvalidArgument.Code, decodeError(t, w).Code)
}

func TestCatalogHandlerExportRoster(t *testing.T) {
	handler, store := newCatalogHandler(t)
	require.NoError(t, store.Enlist(12345, "MATH101A", nil, nil))

	c, w := newTestContext(http.MethodGet, "/", "", gin.Params{{Key: "id", Value: "MATH101A"}})
	handler.ExportRoster(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "roster-MATH101A.csv")
	assert.Contains(t, w.Body.String(), "12345,MATH101A,MATH101")
}

func TestCatalogHandlerDeleteSection(t *testing.T) {
	handler, store := newCatalogHandler(t)
	require.NoError(t, store.Enlist(12345, "MATH101A", nil, nil))

	c, w := newTestContext(http.MethodDelete, "/", "", gin.Params{{Key: "id", Value: "MATH101A"}})
	handler.DeleteSection(c)
	assert.Equal(t, http.StatusConflict, w.Code)

	require.NoError(t, store.Cancel(12345, "MATH101A", nil, nil))
	c, w = newTestContext(http.MethodDelete, "/", "", gin.Params{{Key: "id", Value: "MATH101A"}})
	handler.DeleteSection(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCatalogHandlerGetStudent(t *testing.T) {
	handler, _ := newCatalogHandler(t)

	c, w := newTestContext(http.MethodGet, "/", "", gin.Params{{Key: "number", Value: "12345"}})
	handler.GetStudent(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newTestContext(http.MethodGet, "/", "", gin.Params{{Key: "number", Value: "99"}})
	handler.GetStudent(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
