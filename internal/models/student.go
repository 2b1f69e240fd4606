package models

// Student holds the enrollment state of one student for the term.
type Student struct {
	Number            int      `json:"student_number"`
	EnrolledSections  []string `json:"enrolled_sections"`
	CompletedSubjects []string `json:"completed_subjects"`
}

// IsEnrolledIn reports whether the student currently holds sectionID.
func (s Student) IsEnrolledIn(sectionID string) bool {
	for _, id := range s.EnrolledSections {
		if id == sectionID {
			return true
		}
	}
	return false
}

// HasCompleted reports whether subjectID is in the completed set.
func (s Student) HasCompleted(subjectID string) bool {
	for _, id := range s.CompletedSubjects {
		if id == subjectID {
			return true
		}
	}
	return false
}
