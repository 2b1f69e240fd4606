package models

import (
	"fmt"
	"strings"
)

// Days is the meeting day pattern of a section.
type Days string

// Supported day patterns.
const (
	DaysMonThu Days = "MTH"
	DaysTueFri Days = "TF"
	DaysWedSat Days = "WS"
)

// Period is one of the fixed time bands a section can occupy.
type Period string

// Supported periods.
const (
	PeriodH0830 Period = "H0830_1000"
	PeriodH1000 Period = "H1000_1130"
	PeriodH1130 Period = "H1130_1300"
	PeriodH1300 Period = "H1300_1430"
	PeriodH1430 Period = "H1430_1600"
	PeriodH1600 Period = "H1600_1730"
)

var periodRanges = map[Period]string{
	PeriodH0830: "8:30am-10am",
	PeriodH1000: "10am-11:30am",
	PeriodH1130: "11:30am-1pm",
	PeriodH1300: "1pm-2:30pm",
	PeriodH1430: "2:30pm-4pm",
	PeriodH1600: "4pm-5:30pm",
}

// AllDays lists day patterns in timetable order.
func AllDays() []Days {
	return []Days{DaysMonThu, DaysTueFri, DaysWedSat}
}

// AllPeriods lists periods in timetable order.
func AllPeriods() []Period {
	return []Period{PeriodH0830, PeriodH1000, PeriodH1130, PeriodH1300, PeriodH1430, PeriodH1600}
}

// ParseDays converts a raw value into a Days pattern.
func ParseDays(raw string) (Days, error) {
	d := Days(strings.ToUpper(strings.TrimSpace(raw)))
	switch d {
	case DaysMonThu, DaysTueFri, DaysWedSat:
		return d, nil
	}
	return "", fmt.Errorf("unknown day pattern %q", raw)
}

// ParsePeriod converts a raw value into a Period.
func ParsePeriod(raw string) (Period, error) {
	p := Period(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := periodRanges[p]; ok {
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q", raw)
}

// TimeRange returns the human readable band, e.g. "8:30am-10am".
func (p Period) TimeRange() string {
	return periodRanges[p]
}

// Schedule is the (day pattern, period) slot a section occupies.
type Schedule struct {
	Days   Days   `json:"days"`
	Period Period `json:"period"`
}

// NewSchedule validates and builds a Schedule from raw values.
func NewSchedule(days, period string) (Schedule, error) {
	d, err := ParseDays(days)
	if err != nil {
		return Schedule{}, err
	}
	p, err := ParsePeriod(period)
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{Days: d, Period: p}, nil
}

// ConflictsWith reports whether both schedules occupy the exact same slot.
// Different bands never conflict, even if they would touch on a clock.
func (s Schedule) ConflictsWith(other Schedule) bool {
	return s == other
}

func (s Schedule) String() string {
	return fmt.Sprintf("%s %s", s.Days, s.Period.TimeRange())
}

// Conflict dimensions.
const (
	ConflictDimensionRoom       = "room"
	ConflictDimensionInstructor = "instructor"
	ConflictDimensionStudent    = "student"
)

// ScheduleConflictError names the two sections that collide in one slot.
// Dimension tells room/instructor (timetable build) apart from student
// (enlistment) collisions.
type ScheduleConflictError struct {
	Dimension     string   `json:"dimension"`
	SectionID     string   `json:"section_id"`
	ConflictingID string   `json:"conflicting_section_id"`
	Resource      string   `json:"resource,omitempty"`
	Schedule      Schedule `json:"schedule"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Dimension {
	case ConflictDimensionRoom:
		return fmt.Sprintf("room %s already holds section %s at %s", e.Resource, e.ConflictingID, e.Schedule)
	case ConflictDimensionInstructor:
		return fmt.Sprintf("instructor %s already teaches section %s at %s", e.Resource, e.ConflictingID, e.Schedule)
	default:
		return fmt.Sprintf("schedule conflict between sections %s and %s at %s", e.ConflictingID, e.SectionID, e.Schedule)
	}
}
