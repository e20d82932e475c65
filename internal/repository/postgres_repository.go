package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zhejian/shortcodes/internal/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// PostgresRepository handles database operations for short links
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new Postgres-backed repository
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func startSpan(ctx context.Context, name, operation, code string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", operation),
			attribute.String("db.sql.table", "shortcodes"),
			attribute.String("short_code", code),
		),
	)
}

// Create inserts a new short link. The primary key on short_code is the
// final arbiter of uniqueness: a unique violation maps to ErrCodeConflict.
func (r *PostgresRepository) Create(ctx context.Context, link *model.ShortLink) error {
	ctx, span := startSpan(ctx, "db.insert", "INSERT", link.ShortCode)
	defer span.End()

	query := `
		INSERT INTO shortcodes (short_code, destination, password, expiration_date)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.QueryRow(
		ctx,
		query,
		link.ShortCode,
		link.Destination,
		link.PasswordHash,
		link.ExpirationDate,
	).Scan(&link.CreatedAt)

	if err != nil {
		span.RecordError(err)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrCodeConflict
		}
		return err
	}

	return nil
}

// GetByCode retrieves a short link by exact short code match
func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	ctx, span := startSpan(ctx, "db.select", "SELECT", code)
	defer span.End()

	query := `
		SELECT short_code, destination, password, expiration_date, created_at
		FROM shortcodes
		WHERE short_code = $1`

	var link model.ShortLink
	err := r.db.QueryRow(ctx, query, code).Scan(
		&link.ShortCode,
		&link.Destination,
		&link.PasswordHash,
		&link.ExpirationDate,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, err
	}

	return &link, nil
}

// Exists reports whether any record uses code, expired or not.
func (r *PostgresRepository) Exists(ctx context.Context, code string) (bool, error) {
	ctx, span := startSpan(ctx, "db.exists", "SELECT", code)
	defer span.End()

	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM shortcodes WHERE short_code = $1)`, code,
	).Scan(&exists)
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	return exists, nil
}

var _ ShortLinkRepository = (*PostgresRepository)(nil)
