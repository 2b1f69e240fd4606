package repository

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enlistment-api/internal/models"
)

func newTestStore(t *testing.T) *CatalogStore {
	t.Helper()
	store := NewCatalogStore()
	require.NoError(t, store.InsertSubject(models.Subject{ID: "MATH101", Units: 3}))
	require.NoError(t, store.InsertSubject(models.Subject{ID: "CHEM101L", Units: 1, Laboratory: true}))
	require.NoError(t, store.InsertRoom(models.Room{Name: "A101", Capacity: 30}))
	require.NoError(t, store.InsertRoom(models.Room{Name: "B101", Capacity: 1}))
	require.NoError(t, store.InsertInstructor(models.Instructor{Name: "Dr. Smith"}))
	require.NoError(t, store.InsertInstructor(models.Instructor{Name: "Dr. Jones"}))
	return store
}

func mth0830() models.Schedule {
	return models.Schedule{Days: models.DaysMonThu, Period: models.PeriodH0830}
}

func TestCatalogStoreInsertSectionRegistersPlacement(t *testing.T) {
	store := newTestStore(t)

	section, err := store.InsertSection(models.Section{ID: "MATH101A", SubjectID: "MATH101", Schedule: mth0830(), Room: "A101", Instructor: "Dr. Smith"})
	require.NoError(t, err)
	assert.Equal(t, 30, section.Capacity)
	assert.Empty(t, section.Roster)

	room, err := store.Room("A101")
	require.NoError(t, err)
	assert.Equal(t, []string{"MATH101A"}, room.AssignedSections)

	instructor, err := store.Instructor("Dr. Smith")
	require.NoError(t, err)
	assert.Equal(t, []string{"MATH101A"}, instructor.AssignedSections)
}

func TestCatalogStoreInsertSectionRoomConflict(t *testing.T) {
	store := newTestStore(t)
	_, err := store.InsertSection(models.Section{ID: "MATH101A", SubjectID: "MATH101", Schedule: mth0830(), Room: "A101", Instructor: "Dr. Smith"})
	require.NoError(t, err)

	_, err = store.InsertSection(models.Section{ID: "MATH101B", SubjectID: "MATH101", Schedule: mth0830(), Room: "A101", Instructor: "Dr. Jones"})
	var conflict *models.ScheduleConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.ConflictDimensionRoom, conflict.Dimension)
	assert.Equal(t, "MATH101A", conflict.ConflictingID)

	_, err = store.Section("MATH101B")
	assert.ErrorIs(t, err, ErrRecordNotFound)
	instructor, _ := store.Instructor("Dr. Jones")
	assert.Empty(t, instructor.AssignedSections)
}

func TestCatalogStoreInsertSectionInstructorConflict(t *testing.T) {
	store := newTestStore(t)
	_, err := store.InsertSection(models.Section{ID: "MATH101A", SubjectID: "MATH101", Schedule: mth0830(), Room: "A101", Instructor: "Dr. Smith"})
	require.NoError(t, err)

	_, err = store.InsertSection(models.Section{ID: "CHEM101LA", SubjectID: "CHEM101L", Schedule: mth0830(), Room: "B101", Instructor: "Dr. Smith"})
	var conflict *models.ScheduleConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.ConflictDimensionInstructor, conflict.Dimension)

	_, err = store.InsertSection(models.Section{ID: "MATH101A", SubjectID: "MATH101", Schedule: models.Schedule{Days: models.DaysTueFri, Period: models.PeriodH1000}, Room: "B101", Instructor: "Dr. Jones"})
	assert.ErrorIs(t, err, ErrDuplicateRecord)
}

func TestCatalogStoreEnlistUpdatesBothSides(t *testing.T) {
	store := newTestStore(t)
	_, err := store.InsertSection(models.Section{ID: "MATH101A", SubjectID: "MATH101", Schedule: mth0830(), Room: "A101", Instructor: "Dr. Smith"})
	require.NoError(t, err)
	_, err = store.InsertStudent(12345)
	require.NoError(t, err)

	var seen EnlistmentView
	err = store.Enlist(12345, "MATH101A", func(view EnlistmentView) error {
		seen = view
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "MATH101", seen.Target.Subject.ID)
	assert.Empty(t, seen.Enrolled)

	student, _ := store.Student(12345)
	section, _ := store.Section("MATH101A")
	assert.Equal(t, []string{"MATH101A"}, student.EnrolledSections)
	assert.Equal(t, []int{12345}, section.Roster)
}

func TestCatalogStoreEnlistVetoAndRollback(t *testing.T) {
	store := newTestStore(t)
	_, err := store.InsertSection(models.Section{ID: "MATH101A", SubjectID: "MATH101", Schedule: mth0830(), Room: "A101", Instructor: "Dr. Smith"})
	require.NoError(t, err)
	_, err = store.InsertStudent(1)
	require.NoError(t, err)

	veto := errors.New("veto")
	err = store.Enlist(1, "MATH101A", func(EnlistmentView) error { return veto }, nil)
	assert.ErrorIs(t, err, veto)

	journalDown := errors.New("journal down")
	err = store.Enlist(1, "MATH101A", nil, func() error { return journalDown })
	assert.ErrorIs(t, err, journalDown)

	student, _ := store.Student(1)
	section, _ := store.Section("MATH101A")
	assert.Empty(t, student.EnrolledSections)
	assert.Empty(t, section.Roster)
}

func TestCatalogStoreCancelRollbackRestoresMembership(t *testing.T) {
	store := newTestStore(t)
	_, err := store.InsertSection(models.Section{ID: "MATH101A", SubjectID: "MATH101", Schedule: mth0830(), Room: "A101", Instructor: "Dr. Smith"})
	require.NoError(t, err)
	_, err = store.InsertStudent(1)
	require.NoError(t, err)
	require.NoError(t, store.Enlist(1, "MATH101A", nil, nil))

	err = store.Cancel(1, "MATH101A", nil, func() error { return errors.New("journal down") })
	require.Error(t, err)
	student, _ := store.Student(1)
	section, _ := store.Section("MATH101A")
	assert.Equal(t, []string{"MATH101A"}, student.EnrolledSections)
	assert.Equal(t, []int{1}, section.Roster)

	require.NoError(t, store.Cancel(1, "MATH101A", nil, nil))
	student, _ = store.Student(1)
	section, _ = store.Section("MATH101A")
	assert.Empty(t, student.EnrolledSections)
	assert.Empty(t, section.Roster)
}

func TestCatalogStoreConcurrentEnlistRespectsCheck(t *testing.T) {
	store := newTestStore(t)
	_, err := store.InsertSection(models.Section{ID: "CHEM101LA", SubjectID: "CHEM101L", Schedule: mth0830(), Room: "B101", Instructor: "Dr. Smith"})
	require.NoError(t, err)

	const students = 50
	for i := 0; i < students; i++ {
		_, err := store.InsertStudent(i)
		require.NoError(t, err)
	}

	full := errors.New("full")
	capacityCheck := func(view EnlistmentView) error {
		if view.Target.IsAtCapacity() {
			return full
		}
		return nil
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < students; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := store.Enlist(n, "CHEM101LA", capacityCheck, nil); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	section, err := store.Section("CHEM101LA")
	require.NoError(t, err)
	assert.Equal(t, 1, succeeded)
	assert.Len(t, section.Roster, 1)
}

func TestCatalogStoreDeleteSection(t *testing.T) {
	store := newTestStore(t)
	_, err := store.InsertSection(models.Section{ID: "MATH101A", SubjectID: "MATH101", Schedule: mth0830(), Room: "A101", Instructor: "Dr. Smith"})
	require.NoError(t, err)
	_, err = store.InsertStudent(1)
	require.NoError(t, err)
	require.NoError(t, store.Enlist(1, "MATH101A", nil, nil))

	assert.ErrorIs(t, store.DeleteSection("MATH101A"), ErrSectionInUse)

	require.NoError(t, store.Cancel(1, "MATH101A", nil, nil))
	require.NoError(t, store.DeleteSection("MATH101A"))

	room, _ := store.Room("A101")
	assert.Empty(t, room.AssignedSections)
	assert.ErrorIs(t, store.Enlist(1, "MATH101A", nil, nil), ErrRecordNotFound)

	// the slot is free again
	_, err = store.InsertSection(models.Section{ID: "MATH101B", SubjectID: "MATH101", Schedule: mth0830(), Room: "A101", Instructor: "Dr. Smith"})
	assert.NoError(t, err)
}

func TestCatalogStoreSnapshotsAreCopies(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddPrerequisite("CHEM101L", "MATH101"))
	_, err := store.InsertStudent(7)
	require.NoError(t, err)
	require.NoError(t, store.CompleteSubject(7, "MATH101"))
	assert.ErrorIs(t, store.CompleteSubject(7, "NOPE"), ErrRecordNotFound)

	student, _ := store.Student(7)
	student.CompletedSubjects[0] = "MUTATED"
	again, _ := store.Student(7)
	assert.Equal(t, []string{"MATH101"}, again.CompletedSubjects)

	subject, _ := store.Subject("CHEM101L")
	subject.Prerequisites[0] = "MUTATED"
	fresh, _ := store.Subject("CHEM101L")
	assert.Equal(t, []string{"MATH101"}, fresh.Prerequisites)
}
