package handler

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enlistment-api/internal/dto"
	"github.com/noah-isme/enlistment-api/internal/models"
	"github.com/noah-isme/enlistment-api/pkg/response"
)

type catalogService interface {
	CreateSubject(ctx context.Context, req dto.CreateSubjectRequest) (*models.Subject, error)
	AddPrerequisite(ctx context.Context, subjectID string, req dto.AddPrerequisiteRequest) (*models.Subject, error)
	GetSubject(ctx context.Context, id string) (*models.Subject, error)
	ListSubjects(ctx context.Context) []models.Subject
	CreateRoom(ctx context.Context, req dto.CreateRoomRequest) (*models.Room, error)
	GetRoom(ctx context.Context, name string) (*models.Room, error)
	ListRooms(ctx context.Context) []models.Room
	CreateInstructor(ctx context.Context, req dto.CreateInstructorRequest) (*models.Instructor, error)
	ListInstructors(ctx context.Context) []models.Instructor
	CreateSection(ctx context.Context, req dto.CreateSectionRequest) (*models.SectionDetail, error)
	RemoveSection(ctx context.Context, id string) error
	GetSection(ctx context.Context, id string) (*models.SectionDetail, error)
	ListSections(ctx context.Context) []models.SectionDetail
	ExportRoster(ctx context.Context, id string) ([]byte, error)
	RegisterStudent(ctx context.Context, req dto.RegisterStudentRequest) (*models.Student, error)
	GetStudent(ctx context.Context, number int) (*models.Student, error)
}

// CatalogHandler exposes term catalog endpoints.
type CatalogHandler struct {
	catalog catalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog catalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// CreateSubject godoc
// @Summary Create subject
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /subjects [post]
func (h *CatalogHandler) CreateSubject(c *gin.Context) {
	var req dto.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	subject, err := h.catalog.CreateSubject(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// AddPrerequisite godoc
// @Summary Add prerequisite to subject
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body dto.AddPrerequisiteRequest true "Prerequisite payload"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/prerequisites [post]
func (h *CatalogHandler) AddPrerequisite(c *gin.Context) {
	var req dto.AddPrerequisiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	subject, err := h.catalog.AddPrerequisite(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, subject)
}

// ListSubjects godoc
// @Summary List subjects
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	response.OK(c, h.catalog.ListSubjects(c.Request.Context()))
}

// GetSubject godoc
// @Summary Get subject
// @Tags Catalog
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /subjects/{id} [get]
func (h *CatalogHandler) GetSubject(c *gin.Context) {
	subject, err := h.catalog.GetSubject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, subject)
}

// CreateRoom godoc
// @Summary Create room
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateRoomRequest true "Room payload"
// @Success 201 {object} response.Envelope
// @Router /rooms [post]
func (h *CatalogHandler) CreateRoom(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	room, err := h.catalog.CreateRoom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// ListRooms godoc
// @Summary List rooms
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *CatalogHandler) ListRooms(c *gin.Context) {
	response.OK(c, h.catalog.ListRooms(c.Request.Context()))
}

// GetRoom godoc
// @Summary Get room with its assigned sections
// @Tags Catalog
// @Produce json
// @Param name path string true "Room name"
// @Success 200 {object} response.Envelope
// @Router /rooms/{name} [get]
func (h *CatalogHandler) GetRoom(c *gin.Context) {
	room, err := h.catalog.GetRoom(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, room)
}

// CreateInstructor godoc
// @Summary Create instructor
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateInstructorRequest true "Instructor payload"
// @Success 201 {object} response.Envelope
// @Router /instructors [post]
func (h *CatalogHandler) CreateInstructor(c *gin.Context) {
	var req dto.CreateInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	instructor, err := h.catalog.CreateInstructor(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, instructor)
}

// ListInstructors godoc
// @Summary List instructors
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /instructors [get]
func (h *CatalogHandler) ListInstructors(c *gin.Context) {
	response.OK(c, h.catalog.ListInstructors(c.Request.Context()))
}

// CreateSection godoc
// @Summary Create section
// @Description Places a section in the timetable. Fails with SCHEDULE_CONFLICT when the room or the instructor already holds the slot.
// @Tags Sections
// @Accept json
// @Produce json
// @Param payload body dto.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sections [post]
func (h *CatalogHandler) CreateSection(c *gin.Context) {
	var req dto.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	section, err := h.catalog.CreateSection(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// ListSections godoc
// @Summary List sections
// @Tags Sections
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sections [get]
func (h *CatalogHandler) ListSections(c *gin.Context) {
	response.OK(c, h.catalog.ListSections(c.Request.Context()))
}

// GetSection godoc
// @Summary Get section with roster
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id} [get]
func (h *CatalogHandler) GetSection(c *gin.Context) {
	section, err := h.catalog.GetSection(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, section)
}

// DeleteSection godoc
// @Summary Remove an empty section
// @Tags Sections
// @Param id path string true "Section ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /sections/{id} [delete]
func (h *CatalogHandler) DeleteSection(c *gin.Context) {
	if err := h.catalog.RemoveSection(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportRoster godoc
// @Summary Download section roster as CSV
// @Tags Sections
// @Produce text/csv
// @Param id path string true "Section ID"
// @Success 200 {file} file
// @Router /sections/{id}/roster.csv [get]
func (h *CatalogHandler) ExportRoster(c *gin.Context) {
	id := c.Param("id")
	content, err := h.catalog.ExportRoster(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "text/csv", fmt.Sprintf("roster-%s.csv", id), content)
}

// RegisterStudent godoc
// @Summary Register student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.RegisterStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *CatalogHandler) RegisterStudent(c *gin.Context) {
	var req dto.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	student, err := h.catalog.RegisterStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// GetStudent godoc
// @Summary Get student enrollment state
// @Tags Students
// @Produce json
// @Param number path int true "Student number"
// @Success 200 {object} response.Envelope
// @Router /students/{number} [get]
func (h *CatalogHandler) GetStudent(c *gin.Context) {
	number, err := studentNumberParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.catalog.GetStudent(c.Request.Context(), number)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}
