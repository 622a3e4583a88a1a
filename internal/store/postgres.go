package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"leadhunt-engine/internal/domain"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore keeps contacts in Postgres.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns, minConns := int32(4), int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS contacts (
  id TEXT PRIMARY KEY,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  company TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'new',
  notes TEXT NOT NULL DEFAULT '',
  tags TEXT[] NOT NULL DEFAULT '{}',
  lead_score INTEGER NOT NULL DEFAULT 0,
  estimated_value TEXT NOT NULL DEFAULT '',
  source_url TEXT NOT NULL DEFAULT '',
  source_id TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_created_at ON contacts(created_at)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_contacts_source_id ON contacts(source_id) WHERE source_id <> ''`,
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrap(err, "postgres: migrate")
		}
	}
	return nil
}

func (s *PostgresStore) CreateContact(ctx context.Context, f domain.ContactFields) (domain.Contact, error) {
	f = normalizeFields(f)
	id := uuid.NewString()
	now := time.Now().UTC()

	var got string
	err := s.pool.QueryRow(ctx, `INSERT INTO contacts (`+contactColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (source_id) WHERE source_id <> '' DO NOTHING
RETURNING id`,
		id, f.FirstName, f.LastName, f.Email, f.Phone, f.Company, f.Role, f.Source, f.Status,
		f.Notes, f.Tags, f.LeadScore, f.EstimatedValue, f.SourceURL, f.SourceID, now,
	).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Contact{}, ErrDuplicateContact
	}
	if err != nil {
		return domain.Contact{}, eris.Wrap(err, "postgres: insert contact")
	}
	return contactFromFields(got, f, now), nil
}

func (s *PostgresStore) GetContact(ctx context.Context, id string) (domain.Contact, error) {
	c, err := scanPgContact(s.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Contact{}, ErrNotFound
	}
	if err != nil {
		return domain.Contact{}, eris.Wrapf(err, "postgres: get contact %s", id)
	}
	return c, nil
}

func (s *PostgresStore) ListContacts(ctx context.Context, opts ListOpts) ([]domain.Contact, error) {
	where := ""
	args := []any{}
	if since := opts.since(time.Now()); !since.IsZero() {
		args = append(args, since.UTC())
		where = "WHERE created_at >= $1"
	}
	args = append(args, opts.limit())

	query := fmt.Sprintf(`SELECT %s FROM contacts %s ORDER BY %s LIMIT $%d`,
		contactColumns, where, opts.orderBy(), len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list contacts")
	}
	defer rows.Close()

	out := []domain.Contact{}
	for rows.Next() {
		c, err := scanPgContact(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan contact")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate contacts")
}

func (s *PostgresStore) DeleteContact(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete contact %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CleanupOldContacts(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM contacts WHERE created_at < $1`, before.UTC())
	if err != nil {
		return 0, eris.Wrap(err, "postgres: cleanup old contacts")
	}
	return tag.RowsAffected(), nil
}

func scanPgContact(row pgx.Row) (domain.Contact, error) {
	var c domain.Contact
	if err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Company, &c.Role,
		&c.Source, &c.Status, &c.Notes, &c.Tags, &c.LeadScore, &c.EstimatedValue, &c.SourceURL,
		&c.SourceID, &c.CreatedAt); err != nil {
		return domain.Contact{}, err
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c, nil
}
