package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"leadhunt-engine/internal/domain"
)

// CreateContact inserts a contact. A second contact with the same non-empty
// SourceID is ignored and reported as ErrDuplicateContact.
func (s *SQLiteStore) CreateContact(ctx context.Context, f domain.ContactFields) (domain.Contact, error) {
	f = normalizeFields(f)
	id := uuid.NewString()
	now := time.Now().UTC()

	tagsB, err := json.Marshal(f.Tags)
	if err != nil {
		return domain.Contact{}, eris.Wrap(err, "sqlite: marshal tags")
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO contacts(`+contactColumns+`)
VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(source_id) WHERE source_id != '' DO NOTHING;`,
		id, f.FirstName, f.LastName, f.Email, f.Phone, f.Company, f.Role, f.Source, f.Status,
		f.Notes, string(tagsB), f.LeadScore, f.EstimatedValue, f.SourceURL, f.SourceID, formatTime(now),
	)
	if err != nil {
		return domain.Contact{}, eris.Wrap(err, "sqlite: insert contact")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Contact{}, eris.Wrap(err, "sqlite: insert contact")
	}
	if n == 0 {
		return domain.Contact{}, ErrDuplicateContact
	}

	return contactFromFields(id, f, now), nil
}

func (s *SQLiteStore) GetContact(ctx context.Context, id string) (domain.Contact, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Contact{}, ErrNotFound
	}
	if err != nil {
		return domain.Contact{}, eris.Wrapf(err, "sqlite: get contact %s", id)
	}
	return c, nil
}

func (s *SQLiteStore) ListContacts(ctx context.Context, opts ListOpts) ([]domain.Contact, error) {
	where := ""
	args := []any{}
	if since := opts.since(time.Now()); !since.IsZero() {
		where = "WHERE created_at >= ?"
		args = append(args, formatTime(since))
	}
	args = append(args, opts.limit())

	query := fmt.Sprintf(`
SELECT %s
FROM contacts
%s
ORDER BY %s
LIMIT ?;
`, contactColumns, where, opts.orderBy())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list contacts")
	}
	defer rows.Close()

	out := []domain.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate contacts")
}

func (s *SQLiteStore) DeleteContact(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete contact %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete contact %s", id)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CleanupOldContacts deletes contacts created before the cutoff.
func (s *SQLiteStore) CleanupOldContacts(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE created_at < ?`, formatTime(before))
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: cleanup old contacts")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: cleanup contacts")
	}
	return n, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanContact(row scannable) (domain.Contact, error) {
	var (
		c       domain.Contact
		tags    string
		created string
	)
	if err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Company, &c.Role,
		&c.Source, &c.Status, &c.Notes, &tags, &c.LeadScore, &c.EstimatedValue, &c.SourceURL,
		&c.SourceID, &created); err != nil {
		return domain.Contact{}, err
	}
	_ = json.Unmarshal([]byte(tags), &c.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	c.CreatedAt = parseTime(created)
	return c, nil
}
