package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enlistment-api/internal/models"
	"github.com/noah-isme/enlistment-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error)
	IssueStudentToken(ctx context.Context, req models.StudentTokenRequest) (*models.TokenResponse, error)
}

// AuthHandler exposes token endpoints.
type AuthHandler struct {
	auth authService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth authService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Token godoc
// @Summary Registrar login
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	token, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, token)
}

// StudentToken godoc
// @Summary Issue a token scoped to one student
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.StudentTokenRequest true "Student"
// @Success 200 {object} response.Envelope
// @Router /auth/student-token [post]
func (h *AuthHandler) StudentToken(c *gin.Context) {
	var req models.StudentTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	token, err := h.auth.IssueStudentToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, token)
}
