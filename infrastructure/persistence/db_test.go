package persistence

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"social-publisher/infrastructure/configuration"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS platform_connections")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS publish_results")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS idx_publish_results_user")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureSchema(db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema_StopsOnFirstError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS platform_connections").WillReturnError(errors.New("permission denied"))

	err = EnsureSchema(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaMSSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("dbo.[platform_connections]")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("dbo.[publish_results]")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureSchemaMSSQL(db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgreSQLDB_Unreachable(t *testing.T) {
	db, err := NewPostgreSQLDB(configuration.Db{Host: "127.0.0.1", Port: "1", User: "u", Name: "n", SSLMode: "disable"})
	assert.Error(t, err)
	assert.Nil(t, db)
}

func TestNewMongoDb_NotConfigured(t *testing.T) {
	client, err := NewMongoDb(context.Background(), configuration.Db{})
	assert.Error(t, err)
	assert.Nil(t, client)
}
