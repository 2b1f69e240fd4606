package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/enlistment-api/internal/dto"
	"github.com/noah-isme/enlistment-api/internal/models"
	"github.com/noah-isme/enlistment-api/internal/repository"
	appErrors "github.com/noah-isme/enlistment-api/pkg/errors"
)

type enlistmentStore interface {
	Enlist(number int, sectionID string, check repository.EnlistmentCheck, commit repository.CommitHook) error
	Cancel(number int, sectionID string, check repository.EnlistmentCheck, commit repository.CommitHook) error
	CompleteSubject(number int, subjectID string) error
	Student(number int) (models.Student, error)
	Section(id string) (models.SectionDetail, error)
}

type enlistmentJournal interface {
	Create(ctx context.Context, event *models.EnlistmentEvent) error
	ListByStudent(ctx context.Context, studentNumber int) ([]models.EnlistmentEvent, error)
	CountBySection(ctx context.Context, sectionID string) (map[models.EnlistmentAction]int, error)
}

type actorContextKey struct{}

const systemActor = "system"

// ContextWithActor tags ctx with the principal performing roster changes.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the principal stored by ContextWithActor.
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorContextKey{}).(string); ok && actor != "" {
		return actor
	}
	return systemActor
}

// EnlistmentService adds and drops sections for students.
type EnlistmentService struct {
	store     enlistmentStore
	journal   enlistmentJournal
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEnlistmentService constructs EnlistmentService. A nil journal disables
// the audit trail.
func NewEnlistmentService(store enlistmentStore, journal enlistmentJournal, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnlistmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnlistmentService{
		store:     store,
		journal:   journal,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Enlist adds the section to the student's load. The rules are evaluated
// while the student and the section are locked; the first violation is
// returned and nothing changes.
func (s *EnlistmentService) Enlist(ctx context.Context, studentNumber int, req dto.EnlistRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "invalid enlistment payload")
	}
	sectionID := req.SectionID

	var enrolled, capacity int
	check := func(view repository.EnlistmentView) error {
		if err := validateEnlistment(view); err != nil {
			return err
		}
		enrolled, capacity = view.Target.EnrolledCount()+1, view.Target.Capacity
		return nil
	}

	err := s.store.Enlist(studentNumber, sectionID, check, s.journalHook(ctx, studentNumber, sectionID, models.EnlistmentActionEnlist))
	if err != nil {
		mapped := mapStoreError(err, "failed to enlist student")
		code := appErrors.Code(mapped)
		s.metrics.RecordEnlistment(code)
		s.logger.Debug("enlistment rejected",
			zap.Int("student_number", studentNumber),
			zap.String("section_id", sectionID),
			zap.String("rule", code),
			zap.Error(err))
		return nil, mapped
	}

	s.metrics.RecordEnlistment("")
	s.metrics.SetSectionFill(sectionID, enrolled, capacity)
	s.logger.Info("student enlisted",
		zap.Int("student_number", studentNumber),
		zap.String("section_id", sectionID),
		zap.String("actor", ActorFromContext(ctx)))

	return s.student(studentNumber)
}

// Cancel drops the section from the student's load.
func (s *EnlistmentService) Cancel(ctx context.Context, studentNumber int, sectionID string) (*models.Student, error) {
	var enrolled, capacity int
	check := func(view repository.EnlistmentView) error {
		if err := validateCancellation(view); err != nil {
			return err
		}
		enrolled, capacity = view.Target.EnrolledCount()-1, view.Target.Capacity
		return nil
	}

	err := s.store.Cancel(studentNumber, sectionID, check, s.journalHook(ctx, studentNumber, sectionID, models.EnlistmentActionCancel))
	if err != nil {
		mapped := mapStoreError(err, "failed to cancel enlistment")
		s.logger.Debug("cancellation rejected",
			zap.Int("student_number", studentNumber),
			zap.String("section_id", sectionID),
			zap.String("rule", appErrors.Code(mapped)),
			zap.Error(err))
		return nil, mapped
	}

	s.metrics.RecordCancellation()
	s.metrics.SetSectionFill(sectionID, enrolled, capacity)
	s.logger.Info("enlistment cancelled",
		zap.Int("student_number", studentNumber),
		zap.String("section_id", sectionID),
		zap.String("actor", ActorFromContext(ctx)))

	return s.student(studentNumber)
}

// CompleteSubject records a subject in the student's completed set. It only
// affects future prerequisite checks.
func (s *EnlistmentService) CompleteSubject(ctx context.Context, studentNumber int, req dto.CompleteSubjectRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "invalid completed subject payload")
	}
	if err := s.store.CompleteSubject(studentNumber, req.SubjectID); err != nil {
		return nil, mapStoreError(err, "failed to record completed subject")
	}
	s.logger.Info("subject completed", zap.Int("student_number", studentNumber), zap.String("subject_id", req.SubjectID))
	return s.student(studentNumber)
}

// History lists the journaled roster changes of a student, oldest first.
func (s *EnlistmentService) History(ctx context.Context, studentNumber int) ([]models.EnlistmentEvent, error) {
	if _, err := s.store.Student(studentNumber); err != nil {
		return nil, mapStoreError(err, "failed to load student")
	}
	if s.journal == nil {
		return []models.EnlistmentEvent{}, nil
	}
	start := time.Now()
	events, err := s.journal.ListByStudent(ctx, studentNumber)
	s.metrics.ObserveDBQuery("enlistment_events.list_by_student", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enlistment history")
	}
	return events, nil
}

// SectionActivity counts journaled enlists and cancels for a section.
func (s *EnlistmentService) SectionActivity(ctx context.Context, sectionID string) (*models.SectionActivity, error) {
	detail, err := s.store.Section(sectionID)
	if err != nil {
		return nil, mapStoreError(err, "failed to load section")
	}
	activity := &models.SectionActivity{SectionID: detail.ID, Enrolled: detail.EnrolledCount(), Capacity: detail.Capacity}
	if s.journal == nil {
		return activity, nil
	}

	start := time.Now()
	counts, err := s.journal.CountBySection(ctx, sectionID)
	s.metrics.ObserveDBQuery("enlistment_events.count_by_section", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count section activity")
	}
	activity.Enlisted = counts[models.EnlistmentActionEnlist]
	activity.Cancelled = counts[models.EnlistmentActionCancel]
	return activity, nil
}

// journalHook appends the audit event while both records are still locked,
// so a failed write leaves no trace of the roster change.
func (s *EnlistmentService) journalHook(ctx context.Context, studentNumber int, sectionID string, action models.EnlistmentAction) repository.CommitHook {
	if s.journal == nil {
		return nil
	}
	return func() error {
		start := time.Now()
		err := s.journal.Create(ctx, &models.EnlistmentEvent{
			StudentNumber: studentNumber,
			SectionID:     sectionID,
			Action:        action,
			Actor:         ActorFromContext(ctx),
			OccurredAt:    s.now(),
		})
		s.metrics.ObserveDBQuery("enlistment_events.create", time.Since(start))
		if err != nil {
			s.logger.Warn("enlistment journal write failed",
				zap.Int("student_number", studentNumber),
				zap.String("section_id", sectionID),
				zap.String("action", string(action)),
				zap.Error(err))
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record enlistment event")
		}
		return nil
	}
}

func (s *EnlistmentService) student(number int) (*models.Student, error) {
	student, err := s.store.Student(number)
	if err != nil {
		return nil, mapStoreError(err, "failed to load student")
	}
	return &student, nil
}
