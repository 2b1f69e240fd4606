package service

import (
	"github.com/noah-isme/enlistment-api/internal/models"
	"github.com/noah-isme/enlistment-api/internal/repository"
	appErrors "github.com/noah-isme/enlistment-api/pkg/errors"
)

// enlistmentRule is one precondition evaluated before a student joins a section.
type enlistmentRule func(view repository.EnlistmentView) error

// enlistmentRules run in this order; the first failure decides the error.
var enlistmentRules = []enlistmentRule{
	checkNotAlreadyEnrolled,
	checkScheduleFree,
	checkSubjectNotTaken,
	checkPrerequisites,
	checkCapacity,
}

// validateEnlistment runs the rule chain. It never mutates the view.
func validateEnlistment(view repository.EnlistmentView) error {
	for _, rule := range enlistmentRules {
		if err := rule(view); err != nil {
			return err
		}
	}
	return nil
}

// validateCancellation only requires current membership.
func validateCancellation(view repository.EnlistmentView) error {
	if !view.Student.IsEnrolledIn(view.Target.ID) {
		return appErrors.Clonef(appErrors.ErrNotEnrolled, "student %d not enrolled in section %s", view.Student.Number, view.Target.ID)
	}
	return nil
}

func checkNotAlreadyEnrolled(view repository.EnlistmentView) error {
	if view.Student.IsEnrolledIn(view.Target.ID) {
		return appErrors.Clonef(appErrors.ErrAlreadyEnrolled, "student %d already enrolled in section %s", view.Student.Number, view.Target.ID)
	}
	return nil
}

func checkScheduleFree(view repository.EnlistmentView) error {
	for _, enrolled := range view.Enrolled {
		if enrolled.Schedule.ConflictsWith(view.Target.Schedule) {
			conflict := &models.ScheduleConflictError{
				Dimension:     models.ConflictDimensionStudent,
				SectionID:     view.Target.ID,
				ConflictingID: enrolled.ID,
				Schedule:      view.Target.Schedule,
			}
			return appErrors.Wrap(conflict, appErrors.ErrScheduleConflict.Code, appErrors.ErrScheduleConflict.Status, conflict.Error())
		}
	}
	return nil
}

func checkSubjectNotTaken(view repository.EnlistmentView) error {
	for _, enrolled := range view.Enrolled {
		if enrolled.SubjectID == view.Target.SubjectID {
			return appErrors.Clonef(appErrors.ErrSameSubjectEnrollment, "student %d already enrolled in subject %s through section %s",
				view.Student.Number, view.Target.SubjectID, enrolled.ID)
		}
	}
	return nil
}

func checkPrerequisites(view repository.EnlistmentView) error {
	for _, prerequisite := range view.Target.Subject.Prerequisites {
		if !view.Student.HasCompleted(prerequisite) {
			return appErrors.Clonef(appErrors.ErrPrerequisiteNotMet, "prerequisite %s not completed for subject %s", prerequisite, view.Target.SubjectID)
		}
	}
	return nil
}

func checkCapacity(view repository.EnlistmentView) error {
	if view.Target.IsAtCapacity() {
		return appErrors.Clonef(appErrors.ErrCapacityReached, "section %s is at full capacity (%d)", view.Target.ID, view.Target.Capacity)
	}
	return nil
}
