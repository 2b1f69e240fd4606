package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/enlistment-api/internal/models"
	appErrors "github.com/noah-isme/enlistment-api/pkg/errors"
	"github.com/noah-isme/enlistment-api/pkg/export"
)

const assessmentCachePrefix = "assessment:"

type assessmentStore interface {
	StudentSections(number int) (models.Student, []models.SectionDetail, error)
}

type statementRenderer interface {
	Render(doc export.Statement) ([]byte, error)
}

// AssessmentService computes tuition for a student's current load.
type AssessmentService struct {
	store    assessmentStore
	cache    *CacheService
	renderer statementRenderer
	fees     FeeSchedule
	ttl      time.Duration
	logger   *zap.Logger
}

// NewAssessmentService constructs AssessmentService. cache may be nil.
func NewAssessmentService(store assessmentStore, cache *CacheService, renderer statementRenderer, fees FeeSchedule, ttl time.Duration, logger *zap.Logger) *AssessmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = export.NewPDFExporter()
	}
	return &AssessmentService{store: store, cache: cache, renderer: renderer, fees: fees, ttl: ttl, logger: logger}
}

// RequestAssessment returns the assessment for the student's enrolled
// sections. Cache keys are derived from what each enrolled section bills,
// so an enlist, a cancel or a recreated section id moves the student to a
// different key.
func (s *AssessmentService) RequestAssessment(ctx context.Context, studentNumber int) (*models.Assessment, error) {
	assessment, _, err := s.assess(ctx, studentNumber)
	return assessment, err
}

// Statement renders the assessment together with the enrolled sections as a PDF.
func (s *AssessmentService) Statement(ctx context.Context, studentNumber int) ([]byte, error) {
	assessment, sections, err := s.assess(ctx, studentNumber)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(sections))
	for _, section := range sections {
		lab := ""
		if section.Subject.Laboratory {
			lab = "yes"
		}
		rows = append(rows, []string{section.ID, section.SubjectID, section.Schedule.String(), strconv.Itoa(section.Subject.Units), lab})
	}

	summary := make([]export.SummaryLine, 0, len(assessment.Lines)+3)
	for _, line := range assessment.Lines {
		summary = append(summary, export.SummaryLine{
			Label: fmt.Sprintf("%s x %d @ %s", line.Label, line.Quantity, line.Rate.StringFixed(2)),
			Value: line.Amount.StringFixed(2),
		})
	}
	summary = append(summary,
		export.SummaryLine{Label: "Subtotal", Value: assessment.Subtotal.StringFixed(2)},
		export.SummaryLine{Label: "VAT " + s.fees.VATRate.Shift(2).String() + "%", Value: assessment.VAT.StringFixed(2)},
		export.SummaryLine{Label: "Total due", Value: assessment.Total.StringFixed(2), Bold: true},
	)

	content, err := s.renderer.Render(export.Statement{
		Title:    "Assessment of Fees",
		Subtitle: []string{fmt.Sprintf("Student number: %d", studentNumber), fmt.Sprintf("Units: %d  Laboratory subjects: %d", assessment.TotalUnits, assessment.LabCount)},
		Table: export.Dataset{
			Headers: []string{"Section", "Subject", "Schedule", "Units", "Lab"},
			Rows:    rows,
		},
		Summary: summary,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render assessment statement")
	}
	return content, nil
}

// PurgeCache drops every cached assessment.
func (s *AssessmentService) PurgeCache(ctx context.Context) error {
	return s.cache.Purge(ctx, assessmentCachePrefix+"*")
}

func (s *AssessmentService) assess(ctx context.Context, studentNumber int) (*models.Assessment, []models.SectionDetail, error) {
	student, sections, err := s.store.StudentSections(studentNumber)
	if err != nil {
		return nil, nil, mapStoreError(err, "failed to load student")
	}

	key := assessmentCacheKey(studentNumber, sections)
	var cached models.Assessment
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, sections, nil
	}

	subjects := make([]models.Subject, 0, len(sections))
	for _, section := range sections {
		subjects = append(subjects, section.Subject)
	}
	assessment := CalculateAssessment(s.fees, subjects)
	assessment.StudentNumber = studentNumber
	assessment.Sections = student.EnrolledSections

	if err := s.cache.Set(ctx, key, assessment, s.ttl); err != nil {
		s.logger.Debug("assessment not cached", zap.Int("student_number", studentNumber), zap.Error(err))
	}
	return &assessment, sections, nil
}

// assessmentCacheKey names the cache entry for a student's exact load. Each
// section contributes its id and the billing facts of its subject; a
// section id reused for another subject yields another key.
func assessmentCacheKey(studentNumber int, sections []models.SectionDetail) string {
	parts := make([]string, 0, len(sections))
	for _, section := range sections {
		parts = append(parts, fmt.Sprintf("%s/%s/%d/%t", section.ID, section.SubjectID, section.Subject.Units, section.Subject.Laboratory))
	}
	sort.Strings(parts)
	digest := uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(parts, ",")))
	return fmt.Sprintf("%s%d:%s", assessmentCachePrefix, studentNumber, digest)
}
