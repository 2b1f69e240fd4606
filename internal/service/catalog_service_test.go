package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enlistment-api/internal/dto"
	"github.com/noah-isme/enlistment-api/internal/models"
	"github.com/noah-isme/enlistment-api/internal/repository"
	appErrors "github.com/noah-isme/enlistment-api/pkg/errors"
)

type catalogFixture struct {
	store   *repository.CatalogStore
	catalog *CatalogService
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	store := repository.NewCatalogStore()
	return &catalogFixture{store: store, catalog: NewCatalogService(store, nil, nil, nil, nil)}
}

func (f *catalogFixture) subject(t *testing.T, id string, units int, lab bool, prerequisites ...string) {
	t.Helper()
	_, err := f.catalog.CreateSubject(context.Background(), dto.CreateSubjectRequest{ID: id, Units: units, Laboratory: lab, Prerequisites: prerequisites})
	require.NoError(t, err)
}

func (f *catalogFixture) room(t *testing.T, name string, capacity int) {
	t.Helper()
	_, err := f.catalog.CreateRoom(context.Background(), dto.CreateRoomRequest{Name: name, Capacity: capacity})
	require.NoError(t, err)
}

func (f *catalogFixture) instructor(t *testing.T, name string) {
	t.Helper()
	_, err := f.catalog.CreateInstructor(context.Background(), dto.CreateInstructorRequest{Name: name})
	require.NoError(t, err)
}

func (f *catalogFixture) section(t *testing.T, id, subject, days, period, room, instructor string) {
	t.Helper()
	_, err := f.catalog.CreateSection(context.Background(), dto.CreateSectionRequest{
		ID: id, SubjectID: subject, Days: days, Period: period, Room: room, Instructor: instructor,
	})
	require.NoError(t, err)
}

func (f *catalogFixture) student(t *testing.T, number int) {
	t.Helper()
	_, err := f.catalog.RegisterStudent(context.Background(), dto.RegisterStudentRequest{StudentNumber: &number})
	require.NoError(t, err)
}

func TestCatalogServiceCreateSectionRegistersPlacement(t *testing.T) {
	f := newCatalogFixture(t)
	f.subject(t, "MATH101", 3, false)
	f.room(t, "R101", 30)
	f.instructor(t, "Reyes")

	detail, err := f.catalog.CreateSection(context.Background(), dto.CreateSectionRequest{
		ID: "MATH101A", SubjectID: "MATH101", Days: "mth", Period: "h0830_1000", Room: "R101", Instructor: "Reyes",
	})
	require.NoError(t, err)
	assert.Equal(t, 30, detail.Capacity)
	assert.Equal(t, "MTH 8:30am-10am", detail.Schedule.String())
	assert.Empty(t, detail.Roster)

	room, err := f.catalog.GetRoom(context.Background(), "R101")
	require.NoError(t, err)
	assert.Equal(t, []string{"MATH101A"}, room.AssignedSections)
}

func TestCatalogServiceCreateSectionRoomConflict(t *testing.T) {
	f := newCatalogFixture(t)
	f.subject(t, "MATH101", 3, false)
	f.subject(t, "PHYS101", 4, false)
	f.room(t, "R101", 30)
	f.instructor(t, "Reyes")
	f.instructor(t, "Santos")
	f.section(t, "MATH101A", "MATH101", "MTH", "H0830_1000", "R101", "Reyes")

	_, err := f.catalog.CreateSection(context.Background(), dto.CreateSectionRequest{
		ID: "PHYS101A", SubjectID: "PHYS101", Days: "MTH", Period: "H0830_1000", Room: "R101", Instructor: "Reyes",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrScheduleConflict)
	var conflict *models.ScheduleConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.ConflictDimensionRoom, conflict.Dimension)
	assert.Equal(t, "MATH101A", conflict.ConflictingID)

	_, err = f.catalog.GetSection(context.Background(), "PHYS101A")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCatalogServiceCreateSectionInstructorConflict(t *testing.T) {
	f := newCatalogFixture(t)
	f.subject(t, "MATH101", 3, false)
	f.room(t, "R101", 30)
	f.room(t, "R102", 30)
	f.instructor(t, "Reyes")
	f.section(t, "MATH101A", "MATH101", "TF", "H1000_1130", "R101", "Reyes")

	_, err := f.catalog.CreateSection(context.Background(), dto.CreateSectionRequest{
		ID: "MATH101B", SubjectID: "MATH101", Days: "TF", Period: "H1000_1130", Room: "R102", Instructor: "Reyes",
	})
	var conflict *models.ScheduleConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.ConflictDimensionInstructor, conflict.Dimension)
	assert.Equal(t, http.StatusConflict, appErrors.FromError(err).Status)

	f.section(t, "MATH101B", "MATH101", "TF", "H1130_1300", "R102", "Reyes")
}

func TestCatalogServiceCreateSectionArguments(t *testing.T) {
	f := newCatalogFixture(t)
	f.subject(t, "MATH101", 3, false)
	f.room(t, "R101", 30)
	f.instructor(t, "Reyes")
	f.section(t, "MATH101A", "MATH101", "MTH", "H0830_1000", "R101", "Reyes")

	cases := []struct {
		name string
		req  dto.CreateSectionRequest
		want *appErrors.Error
	}{
		{"non alphanumeric id", dto.CreateSectionRequest{ID: "MATH-1", SubjectID: "MATH101", Days: "MTH", Period: "H1000_1130", Room: "R101", Instructor: "Reyes"}, appErrors.ErrInvalidArgument},
		{"unknown days", dto.CreateSectionRequest{ID: "X1", SubjectID: "MATH101", Days: "SUN", Period: "H1000_1130", Room: "R101", Instructor: "Reyes"}, appErrors.ErrInvalidArgument},
		{"unknown period", dto.CreateSectionRequest{ID: "X1", SubjectID: "MATH101", Days: "MTH", Period: "H0700", Room: "R101", Instructor: "Reyes"}, appErrors.ErrInvalidArgument},
		{"unknown subject", dto.CreateSectionRequest{ID: "X1", SubjectID: "NOPE", Days: "MTH", Period: "H1000_1130", Room: "R101", Instructor: "Reyes"}, appErrors.ErrInvalidArgument},
		{"unknown room", dto.CreateSectionRequest{ID: "X1", SubjectID: "MATH101", Days: "MTH", Period: "H1000_1130", Room: "R999", Instructor: "Reyes"}, appErrors.ErrInvalidArgument},
		{"duplicate id", dto.CreateSectionRequest{ID: "MATH101A", SubjectID: "MATH101", Days: "WS", Period: "H1000_1130", Room: "R101", Instructor: "Reyes"}, appErrors.ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.catalog.CreateSection(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCatalogServiceRemoveSection(t *testing.T) {
	f := newCatalogFixture(t)
	f.subject(t, "MATH101", 3, false)
	f.room(t, "R101", 30)
	f.instructor(t, "Reyes")
	f.section(t, "MATH101A", "MATH101", "MTH", "H0830_1000", "R101", "Reyes")
	f.student(t, 1)

	require.NoError(t, f.store.Enlist(1, "MATH101A", nil, nil))

	err := f.catalog.RemoveSection(context.Background(), "MATH101A")
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	require.NoError(t, f.store.Cancel(1, "MATH101A", nil, nil))
	require.NoError(t, f.catalog.RemoveSection(context.Background(), "MATH101A"))

	room, err := f.catalog.GetRoom(context.Background(), "R101")
	require.NoError(t, err)
	assert.Empty(t, room.AssignedSections)

	f.section(t, "MATH101B", "MATH101", "MTH", "H0830_1000", "R101", "Reyes")
	assert.ErrorIs(t, f.catalog.RemoveSection(context.Background(), "MATH101A"), appErrors.ErrNotFound)
}

func TestCatalogServiceCreateInstructorTrimsName(t *testing.T) {
	f := newCatalogFixture(t)

	for _, blank := range []string{"", "   ", "\t\n"} {
		_, err := f.catalog.CreateInstructor(context.Background(), dto.CreateInstructorRequest{Name: blank})
		assert.ErrorIs(t, err, appErrors.ErrInvalidArgument, "%q", blank)
	}
	assert.Empty(t, f.catalog.ListInstructors(context.Background()))

	instructor, err := f.catalog.CreateInstructor(context.Background(), dto.CreateInstructorRequest{Name: "  Reyes "})
	require.NoError(t, err)
	assert.Equal(t, "Reyes", instructor.Name)

	f.subject(t, "MATH101", 3, false)
	f.room(t, "R101", 30)
	_, err = f.catalog.CreateSection(context.Background(), dto.CreateSectionRequest{
		ID: "MATH101A", SubjectID: "MATH101", Days: "MTH", Period: "H0830_1000", Room: "R101", Instructor: " ",
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)

	section, err := f.catalog.CreateSection(context.Background(), dto.CreateSectionRequest{
		ID: "MATH101A", SubjectID: "MATH101", Days: "MTH", Period: "H0830_1000", Room: "R101", Instructor: "Reyes ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Reyes", section.Instructor)
}

func TestCatalogServiceSubjects(t *testing.T) {
	f := newCatalogFixture(t)
	f.subject(t, "MATH101", 3, false)
	f.subject(t, "MATH102", 3, false, "MATH101")

	_, err := f.catalog.CreateSubject(context.Background(), dto.CreateSubjectRequest{ID: "MATH101", Units: 3})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = f.catalog.CreateSubject(context.Background(), dto.CreateSubjectRequest{ID: "MATH103", Units: 0})
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)

	_, err = f.catalog.CreateSubject(context.Background(), dto.CreateSubjectRequest{ID: "MATH104", Units: 3, Prerequisites: []string{"NOPE"}})
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)

	f.subject(t, "STAT101", 3, false)
	subject, err := f.catalog.AddPrerequisite(context.Background(), "MATH102", dto.AddPrerequisiteRequest{PrerequisiteID: "STAT101"})
	require.NoError(t, err)
	assert.Equal(t, []string{"MATH101", "STAT101"}, subject.Prerequisites)

	_, err = f.catalog.AddPrerequisite(context.Background(), "MATH102", dto.AddPrerequisiteRequest{PrerequisiteID: "MATH102"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)

	ids := make([]string, 0)
	for _, s := range f.catalog.ListSubjects(context.Background()) {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"MATH101", "MATH102", "STAT101"}, ids)
}

func TestCatalogServiceRegisterStudent(t *testing.T) {
	f := newCatalogFixture(t)
	f.student(t, 0)

	dup := 0
	_, err := f.catalog.RegisterStudent(context.Background(), dto.RegisterStudentRequest{StudentNumber: &dup})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	negative := -1
	_, err = f.catalog.RegisterStudent(context.Background(), dto.RegisterStudentRequest{StudentNumber: &negative})
	assert.ErrorIs(t, err, appErrors.ErrInvalidArgument)

	_, err = f.catalog.GetStudent(context.Background(), 7)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Contains(t, err.Error(), "student 7")
}

func TestCatalogServiceExportRoster(t *testing.T) {
	f := newCatalogFixture(t)
	f.subject(t, "MATH101", 3, false)
	f.room(t, "R101", 30)
	f.instructor(t, "Reyes")
	f.section(t, "MATH101A", "MATH101", "MTH", "H0830_1000", "R101", "Reyes")
	f.student(t, 20)
	f.student(t, 10)
	require.NoError(t, f.store.Enlist(20, "MATH101A", nil, nil))
	require.NoError(t, f.store.Enlist(10, "MATH101A", nil, nil))

	content, err := f.catalog.ExportRoster(context.Background(), "MATH101A")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "student_number,section_id,subject_id,schedule,room,instructor", lines[0])
	assert.Equal(t, "10,MATH101A,MATH101,MTH 8:30am-10am,R101,Reyes", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "20,"))
}
