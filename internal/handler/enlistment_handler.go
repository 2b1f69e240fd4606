package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enlistment-api/internal/dto"
	"github.com/noah-isme/enlistment-api/internal/models"
	"github.com/noah-isme/enlistment-api/pkg/response"
)

type enlistmentService interface {
	Enlist(ctx context.Context, studentNumber int, req dto.EnlistRequest) (*models.Student, error)
	Cancel(ctx context.Context, studentNumber int, sectionID string) (*models.Student, error)
	CompleteSubject(ctx context.Context, studentNumber int, req dto.CompleteSubjectRequest) (*models.Student, error)
	History(ctx context.Context, studentNumber int) ([]models.EnlistmentEvent, error)
	SectionActivity(ctx context.Context, sectionID string) (*models.SectionActivity, error)
}

// EnlistmentHandler exposes add/drop endpoints for a student's load.
type EnlistmentHandler struct {
	enlistments enlistmentService
}

// NewEnlistmentHandler constructs EnlistmentHandler.
func NewEnlistmentHandler(enlistments enlistmentService) *EnlistmentHandler {
	return &EnlistmentHandler{enlistments: enlistments}
}

// Enlist godoc
// @Summary Enlist student in section
// @Description Rules are checked in order: ALREADY_ENROLLED, SCHEDULE_CONFLICT, SAME_SUBJECT_ENROLLMENT, PREREQUISITE_NOT_MET, CAPACITY_REACHED.
// @Tags Enlistments
// @Accept json
// @Produce json
// @Param number path int true "Student number"
// @Param payload body dto.EnlistRequest true "Enlistment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /students/{number}/enlistments [post]
func (h *EnlistmentHandler) Enlist(c *gin.Context) {
	number, err := studentNumberParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.EnlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	student, err := h.enlistments.Enlist(c.Request.Context(), number, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Cancel godoc
// @Summary Cancel enlistment
// @Tags Enlistments
// @Produce json
// @Param number path int true "Student number"
// @Param sectionId path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /students/{number}/enlistments/{sectionId} [delete]
func (h *EnlistmentHandler) Cancel(c *gin.Context) {
	number, err := studentNumberParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.enlistments.Cancel(c.Request.Context(), number, c.Param("sectionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// CompleteSubject godoc
// @Summary Record completed subject
// @Tags Students
// @Accept json
// @Produce json
// @Param number path int true "Student number"
// @Param payload body dto.CompleteSubjectRequest true "Completed subject"
// @Success 200 {object} response.Envelope
// @Router /students/{number}/completed-subjects [post]
func (h *EnlistmentHandler) CompleteSubject(c *gin.Context) {
	number, err := studentNumberParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CompleteSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	student, err := h.enlistments.CompleteSubject(c.Request.Context(), number, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// History godoc
// @Summary List journaled enlistment changes
// @Tags Enlistments
// @Produce json
// @Param number path int true "Student number"
// @Success 200 {object} response.Envelope
// @Router /students/{number}/enlistments/history [get]
func (h *EnlistmentHandler) History(c *gin.Context) {
	number, err := studentNumberParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	events, err := h.enlistments.History(c.Request.Context(), number)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}

// SectionActivity godoc
// @Summary Journaled enlist and cancel counts for a section
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sections/{id}/activity [get]
func (h *EnlistmentHandler) SectionActivity(c *gin.Context) {
	activity, err := h.enlistments.SectionActivity(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, activity)
}
