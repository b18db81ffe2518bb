package meta

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/cleantrashrooms/upload_lite/internal/models"
)

const uploadsTable = "uploads"

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var uploadColumns = []string{
	"id",
	"field",
	"original_name",
	"stored_name",
	"url",
	"size",
	"content_type",
	"created_at",
}

// PGStore сохраняет записи о загрузках в Postgres.
type PGStore struct {
	db *sql.DB
}

// OpenPostgres открывает пул через драйвер pgx/stdlib и проверяет подключение.
func OpenPostgres(ctx context.Context, dsn string) (*PGStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("meta dsn is empty")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return NewPGStore(db), nil
}

// NewPGStore оборачивает готовый *sql.DB (в тестах это sqlmock).
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// Save вставляет запись; записи неизменяемы, поэтому без ON CONFLICT.
func (s *PGStore) Save(ctx context.Context, u models.Upload) error {
	sqlStr, args, err := psql.
		Insert(uploadsTable).
		Columns(uploadColumns...).
		Values(u.ID, u.Field, u.OriginalName, u.StoredName, u.URL, u.Size, u.ContentType, u.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("upload %s: %w", u.ID, models.ErrExists)
		}
		return fmt.Errorf("exec insert: %w", err)
	}

	return nil
}

// Get возвращает запись по id.
func (s *PGStore) Get(ctx context.Context, id string) (models.Upload, error) {
	// id в таблице имеет тип UUID: строку другого вида Postgres отвергает с 22P02.
	if _, err := uuid.Parse(id); err != nil {
		return models.Upload{}, models.ErrNotFound
	}

	sqlStr, args, err := psql.
		Select(uploadColumns...).
		From(uploadsTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return models.Upload{}, fmt.Errorf("build select: %w", err)
	}

	u, err := scanUpload(s.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, sql.ErrNoRows) || (errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation) {
			return models.Upload{}, models.ErrNotFound
		}
		return models.Upload{}, fmt.Errorf("scan upload row: %w", err)
	}

	return u, nil
}

// List возвращает последние записи, новые первыми.
func (s *PGStore) List(ctx context.Context, limit int) ([]models.Upload, error) {
	sqlStr, args, err := psql.
		Select(uploadColumns...).
		From(uploadsTable).
		OrderBy("created_at DESC", "stored_name DESC").
		Limit(uint64(ClampLimit(limit))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	out := []models.Upload{}
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("scan upload row: %w", err)
		}
		out = append(out, u)
	}

	return out, rows.Err()
}

// Close освобождает подключения пула.
func (s *PGStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUpload(row rowScanner) (models.Upload, error) {
	var u models.Upload
	err := row.Scan(&u.ID, &u.Field, &u.OriginalName, &u.StoredName, &u.URL, &u.Size, &u.ContentType, &u.CreatedAt)
	return u, err
}
