package models

// Subject is an academic course offered in the term catalog. Subjects are
// identified by ID; prerequisites are referenced by subject ID.
type Subject struct {
	ID            string   `json:"id"`
	Units         int      `json:"units"`
	Laboratory    bool     `json:"laboratory"`
	Prerequisites []string `json:"prerequisites"`
}

// HasPrerequisite reports whether id is a direct prerequisite of the subject.
func (s Subject) HasPrerequisite(id string) bool {
	for _, p := range s.Prerequisites {
		if p == id {
			return true
		}
	}
	return false
}
