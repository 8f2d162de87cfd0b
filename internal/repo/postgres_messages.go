package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ricardobn/wabridge/internal/model"
)

const uniqueViolation = "23505"

type PostgresMessageStore struct {
	db *pgxpool.Pool
}

func NewPostgresMessageStore(db *pgxpool.Pool) *PostgresMessageStore {
	return &PostgresMessageStore{db: db}
}

// Connect builds a bounded connection pool and verifies connectivity.
// Excess acquisitions queue inside the pool rather than failing outright.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	cfg.MaxConns = 30
	cfg.MinConns = 5
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Migrate creates the message log table if it does not exist.
func (s *PostgresMessageStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id         BIGSERIAL PRIMARY KEY,
			message_id TEXT NOT NULL UNIQUE,
			from_phone TEXT NOT NULL,
			to_phone   TEXT NOT NULL,
			body       TEXT NOT NULL,
			type       TEXT NOT NULL,
			timestamp  TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate messages table: %w", err)
	}
	return nil
}

func (s *PostgresMessageStore) Insert(ctx context.Context, msg model.StoredMessage) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO messages (message_id, from_phone, to_phone, body, type, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.MessageID, msg.FromPhone, msg.ToPhone, msg.Body, string(msg.Type), msg.Timestamp.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateMessage, msg.MessageID)
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresMessageStore) ListRecent(ctx context.Context, limit, offset int) ([]model.StoredMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
		SELECT message_id, from_phone, to_phone, body, type, timestamp
		FROM messages
		ORDER BY timestamp DESC, message_id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []model.StoredMessage
	for rows.Next() {
		var m model.StoredMessage
		var typ string
		if err := rows.Scan(&m.MessageID, &m.FromPhone, &m.ToPhone, &m.Body, &typ, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Type = model.MessageType(typ)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresMessageStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM messages WHERE timestamp < $1
	`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return tag.RowsAffected(), nil
}
