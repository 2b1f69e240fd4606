package repository

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/noah-isme/enlistment-api/internal/models"
)

// Store errors. They are wrapped with the offending key.
var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrDuplicateRecord = errors.New("duplicate record")
	ErrSectionInUse    = errors.New("section has enrolled students")
)

// EnlistmentView is a consistent snapshot of one student and one target
// section, taken while both records are locked.
type EnlistmentView struct {
	Student  models.Student
	Target   models.SectionDetail
	Enrolled []models.SectionDetail
}

// EnlistmentCheck inspects a view and returns an error to veto the change.
type EnlistmentCheck func(view EnlistmentView) error

// CommitHook runs after both sides of a roster change are applied and before
// the locks are released. A non-nil error rolls the change back.
type CommitHook func() error

type subjectRecord struct {
	id            string
	units         int
	laboratory    bool
	prerequisites map[string]struct{}
}

type roomRecord struct {
	name     string
	capacity int
	sections map[string]struct{}
}

type instructorRecord struct {
	name     string
	sections map[string]struct{}
}

type sectionRecord struct {
	mu sync.Mutex

	id         string
	subjectID  string
	schedule   models.Schedule
	room       string
	instructor string
	capacity   int

	roster  map[int]struct{}
	removed bool
}

type studentRecord struct {
	mu sync.Mutex

	number    int
	enrolled  map[string]struct{}
	completed map[string]struct{}
}

// CatalogStore keeps the term catalog and the enrollment relation in memory.
// Entities live in tables keyed by id; relations are id sets maintained on
// both sides by the update functions below.
//
// Lock order: student, then section, then the table lock (read). The table
// write lock is never held while acquiring a record lock.
type CatalogStore struct {
	mu          sync.RWMutex
	subjects    map[string]*subjectRecord
	rooms       map[string]*roomRecord
	instructors map[string]*instructorRecord
	sections    map[string]*sectionRecord
	students    map[int]*studentRecord
}

// NewCatalogStore constructs an empty store.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		subjects:    make(map[string]*subjectRecord),
		rooms:       make(map[string]*roomRecord),
		instructors: make(map[string]*instructorRecord),
		sections:    make(map[string]*sectionRecord),
		students:    make(map[int]*studentRecord),
	}
}

// InsertSubject adds a subject without prerequisites.
func (s *CatalogStore) InsertSubject(subject models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subjects[subject.ID]; ok {
		return fmt.Errorf("%w: subject %s", ErrDuplicateRecord, subject.ID)
	}
	rec := &subjectRecord{id: subject.ID, units: subject.Units, laboratory: subject.Laboratory, prerequisites: make(map[string]struct{})}
	for _, p := range subject.Prerequisites {
		if _, ok := s.subjects[p]; !ok {
			return fmt.Errorf("%w: subject %s", ErrRecordNotFound, p)
		}
		rec.prerequisites[p] = struct{}{}
	}
	s.subjects[subject.ID] = rec
	return nil
}

// AddPrerequisite links prerequisiteID as a prerequisite of subjectID.
func (s *CatalogStore) AddPrerequisite(subjectID, prerequisiteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.subjects[subjectID]
	if !ok {
		return fmt.Errorf("%w: subject %s", ErrRecordNotFound, subjectID)
	}
	if _, ok := s.subjects[prerequisiteID]; !ok {
		return fmt.Errorf("%w: subject %s", ErrRecordNotFound, prerequisiteID)
	}
	rec.prerequisites[prerequisiteID] = struct{}{}
	return nil
}

// Subject returns a snapshot of a subject.
func (s *CatalogStore) Subject(id string) (models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.subjects[id]
	if !ok {
		return models.Subject{}, fmt.Errorf("%w: subject %s", ErrRecordNotFound, id)
	}
	return rec.snapshot(), nil
}

// ListSubjects returns all subjects ordered by id.
func (s *CatalogStore) ListSubjects() []models.Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Subject, 0, len(s.subjects))
	for _, rec := range s.subjects {
		out = append(out, rec.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InsertRoom adds a room.
func (s *CatalogStore) InsertRoom(room models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.Name]; ok {
		return fmt.Errorf("%w: room %s", ErrDuplicateRecord, room.Name)
	}
	s.rooms[room.Name] = &roomRecord{name: room.Name, capacity: room.Capacity, sections: make(map[string]struct{})}
	return nil
}

// Room returns a snapshot of a room.
func (s *CatalogStore) Room(name string) (models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.rooms[name]
	if !ok {
		return models.Room{}, fmt.Errorf("%w: room %s", ErrRecordNotFound, name)
	}
	return models.Room{Name: rec.name, Capacity: rec.capacity, AssignedSections: sortedKeys(rec.sections)}, nil
}

// ListRooms returns all rooms ordered by name.
func (s *CatalogStore) ListRooms() []models.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Room, 0, len(s.rooms))
	for _, rec := range s.rooms {
		out = append(out, models.Room{Name: rec.name, Capacity: rec.capacity, AssignedSections: sortedKeys(rec.sections)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// InsertInstructor adds an instructor.
func (s *CatalogStore) InsertInstructor(instructor models.Instructor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.instructors[instructor.Name]; ok {
		return fmt.Errorf("%w: instructor %s", ErrDuplicateRecord, instructor.Name)
	}
	s.instructors[instructor.Name] = &instructorRecord{name: instructor.Name, sections: make(map[string]struct{})}
	return nil
}

// Instructor returns a snapshot of an instructor.
func (s *CatalogStore) Instructor(name string) (models.Instructor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.instructors[name]
	if !ok {
		return models.Instructor{}, fmt.Errorf("%w: instructor %s", ErrRecordNotFound, name)
	}
	return models.Instructor{Name: rec.name, AssignedSections: sortedKeys(rec.sections)}, nil
}

// ListInstructors returns all instructors ordered by name.
func (s *CatalogStore) ListInstructors() []models.Instructor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Instructor, 0, len(s.instructors))
	for _, rec := range s.instructors {
		out = append(out, models.Instructor{Name: rec.name, AssignedSections: sortedKeys(rec.sections)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// InsertSection checks the room and instructor timetables for the section's
// slot and, when free, stores the section and assigns it to both in one step.
// A collision is reported as *models.ScheduleConflictError; the room is
// checked before the instructor.
func (s *CatalogStore) InsertSection(section models.Section) (models.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sections[section.ID]; ok {
		return models.Section{}, fmt.Errorf("%w: section %s", ErrDuplicateRecord, section.ID)
	}
	if _, ok := s.subjects[section.SubjectID]; !ok {
		return models.Section{}, fmt.Errorf("%w: subject %s", ErrRecordNotFound, section.SubjectID)
	}
	room, ok := s.rooms[section.Room]
	if !ok {
		return models.Section{}, fmt.Errorf("%w: room %s", ErrRecordNotFound, section.Room)
	}
	instructor, ok := s.instructors[section.Instructor]
	if !ok {
		return models.Section{}, fmt.Errorf("%w: instructor %s", ErrRecordNotFound, section.Instructor)
	}

	for _, id := range sortedKeys(room.sections) {
		if existing := s.sections[id]; existing.schedule.ConflictsWith(section.Schedule) {
			return models.Section{}, &models.ScheduleConflictError{
				Dimension:     models.ConflictDimensionRoom,
				SectionID:     section.ID,
				ConflictingID: existing.id,
				Resource:      room.name,
				Schedule:      section.Schedule,
			}
		}
	}
	for _, id := range sortedKeys(instructor.sections) {
		if existing := s.sections[id]; existing.schedule.ConflictsWith(section.Schedule) {
			return models.Section{}, &models.ScheduleConflictError{
				Dimension:     models.ConflictDimensionInstructor,
				SectionID:     section.ID,
				ConflictingID: existing.id,
				Resource:      instructor.name,
				Schedule:      section.Schedule,
			}
		}
	}

	rec := &sectionRecord{
		id:         section.ID,
		subjectID:  section.SubjectID,
		schedule:   section.Schedule,
		room:       room.name,
		instructor: instructor.name,
		capacity:   room.capacity,
		roster:     make(map[int]struct{}),
	}
	s.sections[rec.id] = rec
	room.sections[rec.id] = struct{}{}
	instructor.sections[rec.id] = struct{}{}

	return rec.snapshotLocked(), nil
}

// DeleteSection unassigns an empty section from its room and instructor and
// drops it from the catalog.
func (s *CatalogStore) DeleteSection(id string) error {
	rec, err := s.sectionRecord(id)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	if rec.removed {
		rec.mu.Unlock()
		return fmt.Errorf("%w: section %s", ErrRecordNotFound, id)
	}
	if len(rec.roster) > 0 {
		rec.mu.Unlock()
		return fmt.Errorf("%w: section %s", ErrSectionInUse, id)
	}
	rec.removed = true
	rec.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sections, id)
	if room, ok := s.rooms[rec.room]; ok {
		delete(room.sections, id)
	}
	if instructor, ok := s.instructors[rec.instructor]; ok {
		delete(instructor.sections, id)
	}
	return nil
}

// Section returns a snapshot of a section including its roster.
func (s *CatalogStore) Section(id string) (models.SectionDetail, error) {
	rec, err := s.sectionRecord(id)
	if err != nil {
		return models.SectionDetail{}, err
	}
	rec.mu.Lock()
	if rec.removed {
		rec.mu.Unlock()
		return models.SectionDetail{}, fmt.Errorf("%w: section %s", ErrRecordNotFound, id)
	}
	section := rec.snapshotLocked()
	rec.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.SectionDetail{Section: section, Subject: s.subjects[section.SubjectID].snapshot()}, nil
}

// ListSections returns every section ordered by id.
func (s *CatalogStore) ListSections() []models.SectionDetail {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sections))
	for id := range s.sections {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)

	out := make([]models.SectionDetail, 0, len(ids))
	for _, id := range ids {
		detail, err := s.Section(id)
		if err != nil {
			continue
		}
		out = append(out, detail)
	}
	return out
}

// InsertStudent registers a student with empty enrollment state.
func (s *CatalogStore) InsertStudent(number int) (models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[number]; ok {
		return models.Student{}, fmt.Errorf("%w: student %d", ErrDuplicateRecord, number)
	}
	rec := &studentRecord{number: number, enrolled: make(map[string]struct{}), completed: make(map[string]struct{})}
	s.students[number] = rec
	return rec.snapshotLocked(), nil
}

// Student returns a snapshot of a student's enrollment state.
func (s *CatalogStore) Student(number int) (models.Student, error) {
	rec, err := s.studentRecord(number)
	if err != nil {
		return models.Student{}, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.snapshotLocked(), nil
}

// StudentSections returns the student snapshot together with the details of
// every enrolled section, read under the student's lock.
func (s *CatalogStore) StudentSections(number int) (models.Student, []models.SectionDetail, error) {
	rec, err := s.studentRecord(number)
	if err != nil {
		return models.Student{}, nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	student := rec.snapshotLocked()
	return student, s.sectionDetails(student.EnrolledSections), nil
}

// CompleteSubject records subjectID in the student's completed set.
func (s *CatalogStore) CompleteSubject(number int, subjectID string) error {
	rec, err := s.studentRecord(number)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	s.mu.RLock()
	_, ok := s.subjects[subjectID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: subject %s", ErrRecordNotFound, subjectID)
	}
	rec.completed[subjectID] = struct{}{}
	return nil
}

// Enlist adds the section to the student's set and the student to the
// section's roster as one change. check sees a consistent view and may veto;
// commit runs after both sides are applied and its failure undoes them.
func (s *CatalogStore) Enlist(number int, sectionID string, check EnlistmentCheck, commit CommitHook) error {
	return s.withPair(number, sectionID, func(student *studentRecord, section *sectionRecord) error {
		if check != nil {
			if err := check(s.viewLocked(student, section)); err != nil {
				return err
			}
		}
		student.enrolled[section.id] = struct{}{}
		section.roster[student.number] = struct{}{}
		if commit != nil {
			if err := commit(); err != nil {
				delete(student.enrolled, section.id)
				delete(section.roster, student.number)
				return err
			}
		}
		return nil
	})
}

// Cancel removes the pair from both sides as one change, with the same
// check/commit contract as Enlist.
func (s *CatalogStore) Cancel(number int, sectionID string, check EnlistmentCheck, commit CommitHook) error {
	return s.withPair(number, sectionID, func(student *studentRecord, section *sectionRecord) error {
		if check != nil {
			if err := check(s.viewLocked(student, section)); err != nil {
				return err
			}
		}
		_, inStudent := student.enrolled[section.id]
		_, inRoster := section.roster[student.number]
		delete(student.enrolled, section.id)
		delete(section.roster, student.number)
		if commit != nil {
			if err := commit(); err != nil {
				if inStudent {
					student.enrolled[section.id] = struct{}{}
				}
				if inRoster {
					section.roster[student.number] = struct{}{}
				}
				return err
			}
		}
		return nil
	})
}

func (s *CatalogStore) withPair(number int, sectionID string, fn func(*studentRecord, *sectionRecord) error) error {
	student, err := s.studentRecord(number)
	if err != nil {
		return err
	}
	section, err := s.sectionRecord(sectionID)
	if err != nil {
		return err
	}

	student.mu.Lock()
	defer student.mu.Unlock()
	section.mu.Lock()
	defer section.mu.Unlock()

	if section.removed {
		return fmt.Errorf("%w: section %s", ErrRecordNotFound, sectionID)
	}
	return fn(student, section)
}

// viewLocked builds the enlistment view. Caller holds both record locks.
func (s *CatalogStore) viewLocked(student *studentRecord, section *sectionRecord) EnlistmentView {
	snapshot := student.snapshotLocked()
	target := section.snapshotLocked()

	s.mu.RLock()
	subject := s.subjects[target.SubjectID].snapshot()
	s.mu.RUnlock()

	return EnlistmentView{
		Student:  snapshot,
		Target:   models.SectionDetail{Section: target, Subject: subject},
		Enrolled: s.sectionDetails(snapshot.EnrolledSections),
	}
}

// sectionDetails resolves section ids without taking their record locks, so
// rosters are left empty. Schedule, subject and placement never change after
// insertion.
func (s *CatalogStore) sectionDetails(ids []string) []models.SectionDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SectionDetail, 0, len(ids))
	for _, id := range ids {
		rec, ok := s.sections[id]
		if !ok {
			continue
		}
		out = append(out, models.SectionDetail{
			Section: models.Section{
				ID:         rec.id,
				SubjectID:  rec.subjectID,
				Schedule:   rec.schedule,
				Room:       rec.room,
				Instructor: rec.instructor,
				Capacity:   rec.capacity,
			},
			Subject: s.subjects[rec.subjectID].snapshot(),
		})
	}
	return out
}

func (s *CatalogStore) studentRecord(number int) (*studentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.students[number]
	if !ok {
		return nil, fmt.Errorf("%w: student %d", ErrRecordNotFound, number)
	}
	return rec, nil
}

func (s *CatalogStore) sectionRecord(id string) (*sectionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sections[id]
	if !ok {
		return nil, fmt.Errorf("%w: section %s", ErrRecordNotFound, id)
	}
	return rec, nil
}

func (r *subjectRecord) snapshot() models.Subject {
	if r == nil {
		return models.Subject{}
	}
	return models.Subject{ID: r.id, Units: r.units, Laboratory: r.laboratory, Prerequisites: sortedKeys(r.prerequisites)}
}

func (r *sectionRecord) snapshotLocked() models.Section {
	roster := make([]int, 0, len(r.roster))
	for n := range r.roster {
		roster = append(roster, n)
	}
	sort.Ints(roster)
	return models.Section{
		ID:         r.id,
		SubjectID:  r.subjectID,
		Schedule:   r.schedule,
		Room:       r.room,
		Instructor: r.instructor,
		Capacity:   r.capacity,
		Roster:     roster,
	}
}

func (r *studentRecord) snapshotLocked() models.Student {
	return models.Student{
		Number:            r.number,
		EnrolledSections:  sortedKeys(r.enrolled),
		CompletedSubjects: sortedKeys(r.completed),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
