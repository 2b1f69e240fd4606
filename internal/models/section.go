package models

// Section is one scheduled, room-and-instructor-bound offering of a subject.
type Section struct {
	ID         string   `json:"id"`
	SubjectID  string   `json:"subject_id"`
	Schedule   Schedule `json:"schedule"`
	Room       string   `json:"room"`
	Instructor string   `json:"instructor"`
	Capacity   int      `json:"capacity"`
	Roster     []int    `json:"roster"`
}

// EnrolledCount returns the roster size.
func (s Section) EnrolledCount() int {
	return len(s.Roster)
}

// IsAtCapacity reports whether the roster has reached the room capacity.
func (s Section) IsAtCapacity() bool {
	return len(s.Roster) >= s.Capacity
}

// SectionDetail is a section enriched with its subject for display.
type SectionDetail struct {
	Section
	Subject Subject `json:"subject"`
}
