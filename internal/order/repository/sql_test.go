package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/internal/order/dto"
	"github.com/fekuna/omnipos-restaurant-service/pkg/database"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLRepository(sqlx.NewDb(db, database.DriverSQLite)), mock
}

func TestTransitionStatus_ConditionalOnCurrentStatus(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = ?, completed_at = ? WHERE id = ? AND status = ?")).
		WithArgs(model.StatusComplete, at, int64(3), model.StatusReady).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.TransitionStatus(context.Background(), 3, model.StatusReady, model.StatusComplete, at)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = ?, ready_at = ? WHERE id = ? AND status = ?")).
		WithArgs(model.StatusReady, at, int64(3), model.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = repo.TransitionStatus(context.Background(), 3, model.StatusPending, model.StatusReady, at)
	require.NoError(t, err)
	assert.False(t, ok, "a lost race updates no row")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatus_RejectsPending(t *testing.T) {
	repo, mock := newMockRepo(t)

	_, err := repo.TransitionStatus(context.Background(), 1, model.StatusReady, model.StatusPending, time.Now())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM orders WHERE id = ?")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	o, err := repo.FindByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Nil(t, o)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAll_DefaultLimitAndStatus(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM orders WHERE status = ? ORDER BY id DESC LIMIT 50")).
		WithArgs(model.StatusPending).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.FindAll(context.Background(), &dto.OrderFilters{Status: model.StatusPending})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
