package models

// Room is a physical room; its capacity bounds every section held in it.
type Room struct {
	Name             string   `json:"name"`
	Capacity         int      `json:"capacity"`
	AssignedSections []string `json:"assigned_sections"`
}
