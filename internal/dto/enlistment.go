package dto

// EnlistRequest adds a section to a student's load.
type EnlistRequest struct {
	SectionID string `json:"sectionId" validate:"required,alphanum"`
}

// CompleteSubjectRequest records a subject as completed by the student.
type CompleteSubjectRequest struct {
	SubjectID string `json:"subjectId" validate:"required,alphanum"`
}

// BatchEnlistItem is one pair of a batch enlistment.
type BatchEnlistItem struct {
	StudentNumber *int   `json:"studentNumber" validate:"required,gte=0"`
	SectionID     string `json:"sectionId" validate:"required,alphanum"`
}

// BatchEnlistRequest queues many enlistments at once.
type BatchEnlistRequest struct {
	Items []BatchEnlistItem `json:"items" validate:"required,min=1,max=500,dive"`
}
