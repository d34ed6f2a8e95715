package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckinStateEnrolledStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT u.reg_no, u.full_name, u.face_template")).
		WithArgs("REG001", "course-1", "sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"reg_no", "full_name", "face_template", "enrolled", "already_recorded"}).
			AddRow("REG001", "Test Student", pq.Float64Array{0.1, 0.2}, true, false))

	state, err := repo.CheckinState(context.Background(), "REG001", "course-1", "sess-1")
	require.NoError(t, err)
	assert.True(t, state.Enrolled)
	assert.False(t, state.AlreadyRecorded)
	assert.Len(t, []float64(state.FaceTemplate), 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckinStateUnknownStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT u.reg_no, u.full_name, u.face_template")).
		WithArgs("NOPE", "course-1", "sess-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.CheckinState(context.Background(), "NOPE", "course-1", "sess-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFaceTemplate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET face_template")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateFaceTemplate(context.Background(), "REG001", []float64{0.1, 0.2, 0.3})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
