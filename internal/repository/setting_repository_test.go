package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingRepository(db)

	rows := sqlmock.NewRows([]string{"key", "value", "description", "updated_at"}).
		AddRow("publication_lead_time_ideal_weeks", []byte("8"), nil, time.Now())
	mock.ExpectQuery("SELECT key, value, description, updated_at FROM settings").WillReturnRows(rows)

	settings, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, settings, 1)
	assert.Equal(t, "publication_lead_time_ideal_weeks", settings[0].Key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingRepository(db)

	mock.ExpectExec("INSERT INTO settings").
		WithArgs("forecast_fill_ratio", types.JSONText("0.8"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), "forecast_fill_ratio", types.JSONText("0.8"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
