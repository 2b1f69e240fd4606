package dto

// CreateSubjectRequest registers a subject in the term catalog.
type CreateSubjectRequest struct {
	ID            string   `json:"id" validate:"required,alphanum"`
	Units         int      `json:"units" validate:"gt=0"`
	Laboratory    bool     `json:"laboratory"`
	Prerequisites []string `json:"prerequisites" validate:"omitempty,dive,required,alphanum"`
}

// AddPrerequisiteRequest links an existing subject as a prerequisite.
type AddPrerequisiteRequest struct {
	PrerequisiteID string `json:"prerequisiteId" validate:"required,alphanum"`
}

// CreateRoomRequest registers a room.
type CreateRoomRequest struct {
	Name     string `json:"name" validate:"required,alphanum"`
	Capacity int    `json:"capacity" validate:"gt=0"`
}

// CreateInstructorRequest registers an instructor. Name is trimmed before
// validation.
type CreateInstructorRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateSectionRequest places a new section in the timetable.
type CreateSectionRequest struct {
	ID         string `json:"id" validate:"required,alphanum"`
	SubjectID  string `json:"subjectId" validate:"required,alphanum"`
	Days       string `json:"days" validate:"required"`
	Period     string `json:"period" validate:"required"`
	Room       string `json:"room" validate:"required,alphanum"`
	Instructor string `json:"instructor" validate:"required"`
}

// RegisterStudentRequest registers a student for the term.
type RegisterStudentRequest struct {
	StudentNumber *int `json:"studentNumber" validate:"required,gte=0"`
}
