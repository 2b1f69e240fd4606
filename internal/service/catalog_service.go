package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/enlistment-api/internal/dto"
	"github.com/noah-isme/enlistment-api/internal/models"
	"github.com/noah-isme/enlistment-api/internal/repository"
	appErrors "github.com/noah-isme/enlistment-api/pkg/errors"
	"github.com/noah-isme/enlistment-api/pkg/export"
)

type catalogStore interface {
	InsertSubject(subject models.Subject) error
	AddPrerequisite(subjectID, prerequisiteID string) error
	Subject(id string) (models.Subject, error)
	ListSubjects() []models.Subject
	InsertRoom(room models.Room) error
	Room(name string) (models.Room, error)
	ListRooms() []models.Room
	InsertInstructor(instructor models.Instructor) error
	Instructor(name string) (models.Instructor, error)
	ListInstructors() []models.Instructor
	InsertSection(section models.Section) (models.Section, error)
	DeleteSection(id string) error
	Section(id string) (models.SectionDetail, error)
	ListSections() []models.SectionDetail
	InsertStudent(number int) (models.Student, error)
	Student(number int) (models.Student, error)
}

type rosterExporter interface {
	Render(data export.Dataset) ([]byte, error)
}

// CatalogService manages the term catalog: subjects, rooms, instructors,
// sections and registered students.
type CatalogService struct {
	store     catalogStore
	exporter  rosterExporter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(store catalogStore, exporter rosterExporter, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if exporter == nil {
		exporter = export.NewCSVExporter()
	}
	return &CatalogService{store: store, exporter: exporter, metrics: metrics, validator: validate, logger: logger}
}

// CreateSubject adds a subject to the catalog.
func (s *CatalogService) CreateSubject(ctx context.Context, req dto.CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "invalid subject payload")
	}
	subject := models.Subject{ID: req.ID, Units: req.Units, Laboratory: req.Laboratory, Prerequisites: req.Prerequisites}
	if err := s.store.InsertSubject(subject); err != nil {
		return nil, referenceError(err, "failed to create subject")
	}
	created, err := s.store.Subject(req.ID)
	if err != nil {
		return nil, mapStoreError(err, "failed to load subject")
	}
	s.logger.Info("subject created", zap.String("subject_id", created.ID), zap.Int("units", created.Units))
	return &created, nil
}

// AddPrerequisite links an existing subject as a prerequisite of another.
func (s *CatalogService) AddPrerequisite(ctx context.Context, subjectID string, req dto.AddPrerequisiteRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "invalid prerequisite payload")
	}
	if subjectID == req.PrerequisiteID {
		return nil, appErrors.Clonef(appErrors.ErrInvalidArgument, "subject %s cannot be its own prerequisite", subjectID)
	}
	if err := s.store.AddPrerequisite(subjectID, req.PrerequisiteID); err != nil {
		return nil, mapStoreError(err, "failed to add prerequisite")
	}
	subject, err := s.store.Subject(subjectID)
	if err != nil {
		return nil, mapStoreError(err, "failed to load subject")
	}
	return &subject, nil
}

// GetSubject returns one subject.
func (s *CatalogService) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.store.Subject(id)
	if err != nil {
		return nil, mapStoreError(err, "failed to load subject")
	}
	return &subject, nil
}

// ListSubjects returns the catalog ordered by id.
func (s *CatalogService) ListSubjects(ctx context.Context) []models.Subject {
	return s.store.ListSubjects()
}

// CreateRoom adds a room.
func (s *CatalogService) CreateRoom(ctx context.Context, req dto.CreateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "invalid room payload")
	}
	if err := s.store.InsertRoom(models.Room{Name: req.Name, Capacity: req.Capacity}); err != nil {
		return nil, mapStoreError(err, "failed to create room")
	}
	room, err := s.store.Room(req.Name)
	if err != nil {
		return nil, mapStoreError(err, "failed to load room")
	}
	return &room, nil
}

// GetRoom returns one room with its assigned sections.
func (s *CatalogService) GetRoom(ctx context.Context, name string) (*models.Room, error) {
	room, err := s.store.Room(name)
	if err != nil {
		return nil, mapStoreError(err, "failed to load room")
	}
	return &room, nil
}

// ListRooms returns every room.
func (s *CatalogService) ListRooms(ctx context.Context) []models.Room {
	return s.store.ListRooms()
}

// CreateInstructor adds an instructor.
func (s *CatalogService) CreateInstructor(ctx context.Context, req dto.CreateInstructorRequest) (*models.Instructor, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "invalid instructor payload")
	}
	if err := s.store.InsertInstructor(models.Instructor{Name: req.Name}); err != nil {
		return nil, mapStoreError(err, "failed to create instructor")
	}
	instructor, err := s.store.Instructor(req.Name)
	if err != nil {
		return nil, mapStoreError(err, "failed to load instructor")
	}
	return &instructor, nil
}

// ListInstructors returns every instructor.
func (s *CatalogService) ListInstructors(ctx context.Context) []models.Instructor {
	return s.store.ListInstructors()
}

// CreateSection is the only way a section enters the timetable. The room and
// instructor are checked for a slot collision, in that order, and the section
// is registered with both in the same step.
func (s *CatalogService) CreateSection(ctx context.Context, req dto.CreateSectionRequest) (*models.SectionDetail, error) {
	req.Instructor = strings.TrimSpace(req.Instructor)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "invalid section payload")
	}
	schedule, err := models.NewSchedule(req.Days, req.Period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, err.Error())
	}

	_, err = s.store.InsertSection(models.Section{
		ID:         req.ID,
		SubjectID:  req.SubjectID,
		Schedule:   schedule,
		Room:       req.Room,
		Instructor: req.Instructor,
	})
	if err != nil {
		var conflict *models.ScheduleConflictError
		if errors.As(err, &conflict) {
			s.logger.Debug("section rejected",
				zap.String("section_id", req.ID),
				zap.String("rule", conflict.Dimension),
				zap.String("conflicting_section_id", conflict.ConflictingID))
		}
		return nil, referenceError(err, "failed to create section")
	}

	detail, err := s.store.Section(req.ID)
	if err != nil {
		return nil, mapStoreError(err, "failed to load section")
	}
	s.metrics.SetSectionFill(detail.ID, detail.EnrolledCount(), detail.Capacity)
	s.logger.Info("section created",
		zap.String("section_id", detail.ID),
		zap.String("subject_id", detail.SubjectID),
		zap.String("schedule", detail.Schedule.String()),
		zap.String("room", detail.Room),
		zap.String("instructor", detail.Instructor))
	return &detail, nil
}

// RemoveSection unassigns an empty section from its room and instructor.
func (s *CatalogService) RemoveSection(ctx context.Context, id string) error {
	if err := s.store.DeleteSection(id); err != nil {
		return mapStoreError(err, "failed to remove section")
	}
	s.metrics.DeleteSectionFill(id)
	s.logger.Info("section removed", zap.String("section_id", id))
	return nil
}

// GetSection returns one section with its roster.
func (s *CatalogService) GetSection(ctx context.Context, id string) (*models.SectionDetail, error) {
	detail, err := s.store.Section(id)
	if err != nil {
		return nil, mapStoreError(err, "failed to load section")
	}
	return &detail, nil
}

// ListSections returns every section ordered by id.
func (s *CatalogService) ListSections(ctx context.Context) []models.SectionDetail {
	return s.store.ListSections()
}

// ExportRoster renders a section roster as CSV.
func (s *CatalogService) ExportRoster(ctx context.Context, id string) ([]byte, error) {
	detail, err := s.store.Section(id)
	if err != nil {
		return nil, mapStoreError(err, "failed to load section")
	}
	rows := make([][]string, 0, len(detail.Roster))
	for _, number := range detail.Roster {
		rows = append(rows, []string{
			strconv.Itoa(number),
			detail.ID,
			detail.SubjectID,
			detail.Schedule.String(),
			detail.Room,
			detail.Instructor,
		})
	}
	content, err := s.exporter.Render(export.Dataset{
		Headers: []string{"student_number", "section_id", "subject_id", "schedule", "room", "instructor"},
		Rows:    rows,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export roster")
	}
	return content, nil
}

// RegisterStudent adds a student with no enrollments.
func (s *CatalogService) RegisterStudent(ctx context.Context, req dto.RegisterStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "invalid student payload")
	}
	student, err := s.store.InsertStudent(*req.StudentNumber)
	if err != nil {
		return nil, mapStoreError(err, "failed to register student")
	}
	s.logger.Info("student registered", zap.Int("student_number", student.Number))
	return &student, nil
}

// GetStudent returns a student's enrollment state.
func (s *CatalogService) GetStudent(ctx context.Context, number int) (*models.Student, error) {
	student, err := s.store.Student(number)
	if err != nil {
		return nil, mapStoreError(err, "failed to load student")
	}
	return &student, nil
}

// referenceError maps store errors for writes that name other entities: an
// unknown reference is a bad argument rather than a missing resource.
func referenceError(err error, fallback string) error {
	if errors.Is(err, repository.ErrRecordNotFound) {
		return appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "unknown reference: "+trimStoreError(err))
	}
	return mapStoreError(err, fallback)
}

// mapStoreError translates store errors into API errors.
func mapStoreError(err error, fallback string) error {
	var conflict *models.ScheduleConflictError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &conflict):
		return appErrors.Wrap(conflict, appErrors.ErrScheduleConflict.Code, appErrors.ErrScheduleConflict.Status, conflict.Error())
	case errors.Is(err, repository.ErrRecordNotFound):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, trimStoreError(err)+" not found")
	case errors.Is(err, repository.ErrDuplicateRecord):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, trimStoreError(err)+" already exists")
	case errors.Is(err, repository.ErrSectionInUse):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, trimStoreError(err)+" still has enrolled students")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fallback)
}

// trimStoreError drops the sentinel prefix, leaving "kind key".
func trimStoreError(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{repository.ErrRecordNotFound, repository.ErrDuplicateRecord, repository.ErrSectionInUse} {
		if trimmed := strings.TrimPrefix(msg, sentinel.Error()+": "); trimmed != msg {
			return trimmed
		}
	}
	return msg
}
