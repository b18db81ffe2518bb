package meta

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/cleantrashrooms/upload_lite/internal/models"
)

func newStoreWithMock(t *testing.T) (*PGStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPGStore(db), mock
}

func TestPGStore_Save(t *testing.T) {
	s, mock := newStoreWithMock(t)
	u := sampleUpload(1, time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC))

	mock.ExpectExec(`(?s)^INSERT INTO uploads \(id,field,original_name,stored_name,url,size,content_type,created_at\) VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7,\$8\)$`).
		WithArgs(u.ID, u.Field, u.OriginalName, u.StoredName, u.URL, u.Size, u.ContentType, u.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Save(context.Background(), u))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_SaveDuplicate(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`^INSERT INTO uploads`).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err := s.Save(context.Background(), sampleUpload(1, time.Now()))
	require.ErrorIs(t, err, models.ErrExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_SaveFailure(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`^INSERT INTO uploads`).WillReturnError(errors.New("conn refused"))

	err := s.Save(context.Background(), sampleUpload(1, time.Now()))
	require.Error(t, err)
	require.NotErrorIs(t, err, models.ErrExists)
}

func TestPGStore_Get(t *testing.T) {
	s, mock := newStoreWithMock(t)
	u := sampleUpload(2, time.Date(2026, 10, 2, 8, 30, 0, 0, time.UTC))

	rows := sqlmock.NewRows(uploadColumns).
		AddRow(u.ID, u.Field, u.OriginalName, u.StoredName, u.URL, u.Size, u.ContentType, u.CreatedAt)
	mock.ExpectQuery(`^SELECT id, field, .* FROM uploads WHERE id = \$1 LIMIT 1$`).
		WithArgs(u.ID).
		WillReturnRows(rows)

	got, err := s.Get(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, u, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_GetNotFound(t *testing.T) {
	s, mock := newStoreWithMock(t)
	missing := sampleID(99)

	mock.ExpectQuery(`FROM uploads WHERE id`).
		WithArgs(missing).
		WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), missing)
	require.ErrorIs(t, err, models.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_GetMalformedID(t *testing.T) {
	s, mock := newStoreWithMock(t)

	for _, id := range []string{"", "  ", "not-a-uuid", "../etc/passwd"} {
		_, err := s.Get(context.Background(), id)
		require.ErrorIs(t, err, models.ErrNotFound, id)
	}
	// до базы такие id не доходят
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_GetInvalidTextFromDB(t *testing.T) {
	s, mock := newStoreWithMock(t)
	id := sampleID(7)

	mock.ExpectQuery(`FROM uploads WHERE id`).
		WithArgs(id).
		WillReturnError(&pgconn.PgError{Code: invalidTextRepresentation})

	_, err := s.Get(context.Background(), id)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestPGStore_List(t *testing.T) {
	s, mock := newStoreWithMock(t)
	base := time.Date(2026, 10, 3, 9, 0, 0, 0, time.UTC)
	newer := sampleUpload(2, base.Add(time.Minute))
	older := sampleUpload(1, base)

	rows := sqlmock.NewRows(uploadColumns).
		AddRow(newer.ID, newer.Field, newer.OriginalName, newer.StoredName, newer.URL, newer.Size, newer.ContentType, newer.CreatedAt).
		AddRow(older.ID, older.Field, older.OriginalName, older.StoredName, older.URL, older.Size, older.ContentType, older.CreatedAt)
	mock.ExpectQuery(`FROM uploads ORDER BY created_at DESC, stored_name DESC LIMIT 50$`).
		WillReturnRows(rows)

	got, err := s.List(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, []models.Upload{newer, older}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
