package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enlistment-api/internal/models"
)

func newEventRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnlistmentEventRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEnlistmentEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enlistment_events")).
		WithArgs(sqlmock.AnyArg(), 12345, "MATH101A", models.EnlistmentActionEnlist, "registrar", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	event := &models.EnlistmentEvent{StudentNumber: 12345, SectionID: "MATH101A", Action: models.EnlistmentActionEnlist, Actor: "registrar"}
	require.NoError(t, repo.Create(context.Background(), event))
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.OccurredAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnlistmentEventRepositoryCreateError(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEnlistmentEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enlistment_events")).
		WillReturnError(errors.New("disk full"))

	err := repo.Create(context.Background(), &models.EnlistmentEvent{StudentNumber: 1, SectionID: "S1", Action: models.EnlistmentActionCancel})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create enlistment event")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnlistmentEventRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEnlistmentEventRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "student_number", "section_id", "action", "actor", "occurred_at"}).
		AddRow("evt-1", int64(12345), "MATH101A", "ENLIST", "registrar", now).
		AddRow("evt-2", int64(12345), "MATH101A", "CANCEL", "student:12345", now.Add(time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_number, section_id, action, actor, occurred_at FROM enlistment_events WHERE student_number = $1")).
		WithArgs(12345).
		WillReturnRows(rows)

	events, err := repo.ListByStudent(context.Background(), 12345)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EnlistmentActionCancel, events[1].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnlistmentEventRepositoryCountBySection(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEnlistmentEventRepository(db)

	rows := sqlmock.NewRows([]string{"action", "total"}).
		AddRow("ENLIST", int64(3)).
		AddRow("CANCEL", int64(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT action, COUNT(*) AS total FROM enlistment_events WHERE section_id = $1")).
		WithArgs("MATH101A").
		WillReturnRows(rows)

	counts, err := repo.CountBySection(context.Background(), "MATH101A")
	require.NoError(t, err)
	assert.Equal(t, 3, counts[models.EnlistmentActionEnlist])
	assert.Equal(t, 1, counts[models.EnlistmentActionCancel])
	require.NoError(t, mock.ExpectationsWereMet())
}
