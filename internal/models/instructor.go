package models

// Instructor teaches sections and can only be in one place per slot.
type Instructor struct {
	Name             string   `json:"name"`
	AssignedSections []string `json:"assigned_sections"`
}
