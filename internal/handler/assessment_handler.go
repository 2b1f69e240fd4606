package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enlistment-api/internal/models"
	"github.com/noah-isme/enlistment-api/pkg/response"
)

type assessmentService interface {
	RequestAssessment(ctx context.Context, studentNumber int) (*models.Assessment, error)
	Statement(ctx context.Context, studentNumber int) ([]byte, error)
}

// AssessmentHandler exposes tuition assessment endpoints.
type AssessmentHandler struct {
	assessments assessmentService
}

// NewAssessmentHandler constructs AssessmentHandler.
func NewAssessmentHandler(assessments assessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

// Get godoc
// @Summary Assess tuition for the student's current load
// @Tags Assessment
// @Produce json
// @Produce application/pdf
// @Param number path int true "Student number"
// @Param format query string false "json (default) or pdf"
// @Success 200 {object} response.Envelope
// @Router /students/{number}/assessment [get]
func (h *AssessmentHandler) Get(c *gin.Context) {
	number, err := studentNumberParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if strings.EqualFold(c.Query("format"), "pdf") {
		content, err := h.assessments.Statement(c.Request.Context(), number)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Attachment(c, "application/pdf", fmt.Sprintf("assessment-%d.pdf", number), content)
		return
	}

	assessment, err := h.assessments.RequestAssessment(c.Request.Context(), number)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, assessment)
}
