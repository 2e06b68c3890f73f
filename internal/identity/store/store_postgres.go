package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coalesce/internal/identity"
	"coalesce/pkg/platform/sentinel"
	"coalesce/pkg/platform/tx"
)

// PostgresStore persists contacts in PostgreSQL. Soft-deleted rows are carried
// but excluded from every lookup; the engine never writes deleted_at.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed contact store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const contactColumns = `id, email, phone_number, linked_id, link_precedence, created_at, updated_at, deleted_at`

type executor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// exec returns the context transaction when one is carried, else the pool.
func (s *PostgresStore) exec(ctx context.Context) executor {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *PostgresStore) FindOneByEmail(ctx context.Context, email string) (*identity.Contact, error) {
	query := `SELECT ` + contactColumns + `
		FROM contacts
		WHERE email = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	return s.findOne(ctx, query, email)
}

func (s *PostgresStore) FindOneByPhone(ctx context.Context, phone string) (*identity.Contact, error) {
	query := `SELECT ` + contactColumns + `
		FROM contacts
		WHERE phone_number = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	return s.findOne(ctx, query, phone)
}

func (s *PostgresStore) FindByID(ctx context.Context, id identity.ContactID) (*identity.Contact, error) {
	query := `SELECT ` + contactColumns + `
		FROM contacts
		WHERE id = $1 AND deleted_at IS NULL`
	return s.findOne(ctx, query, int64(id))
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*identity.Contact, error) {
	row := s.exec(ctx).QueryRowContext(ctx, query, arg)
	contact, err := scanContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find contact: %w", err)
	}
	return contact, nil
}

func (s *PostgresStore) FindAllByClusterRoot(ctx context.Context, primaryID identity.ContactID) ([]identity.Contact, error) {
	query := `SELECT ` + contactColumns + `
		FROM contacts
		WHERE (id = $1 OR linked_id = $1) AND deleted_at IS NULL
		ORDER BY created_at ASC, id ASC`
	rows, err := s.exec(ctx).QueryContext(ctx, query, int64(primaryID))
	if err != nil {
		return nil, fmt.Errorf("find cluster: %w", err)
	}
	defer rows.Close()

	var cluster []identity.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cluster row: %w", err)
		}
		cluster = append(cluster, *contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cluster: %w", err)
	}
	return cluster, nil
}

func (s *PostgresStore) CreateContact(ctx context.Context, fields identity.NewContact) (*identity.Contact, error) {
	query := `INSERT INTO contacts (email, phone_number, linked_id, link_precedence)
		VALUES (NULLIF($1, ''), NULLIF($2, ''), $3, $4)
		RETURNING id, created_at, updated_at`

	var linkedID sql.NullInt64
	if fields.LinkedID != nil {
		linkedID = sql.NullInt64{Int64: int64(*fields.LinkedID), Valid: true}
	}

	contact := identity.Contact{
		Email:          fields.Email,
		Phone:          fields.Phone,
		LinkedID:       fields.LinkedID,
		LinkPrecedence: fields.LinkPrecedence,
	}
	var id int64
	err := s.exec(ctx).QueryRowContext(ctx, query,
		fields.Email, fields.Phone, linkedID, string(fields.LinkPrecedence),
	).Scan(&id, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	contact.ID = identity.ContactID(id)
	return &contact, nil
}

func (s *PostgresStore) AtomicUpdateLinked(ctx context.Context, fromID, toID identity.ContactID) error {
	// One statement, so the demoted primary and everything pointing at it
	// flip together or not at all.
	query := `UPDATE contacts
		SET linked_id = $2, link_precedence = 'secondary', updated_at = now()
		WHERE id = $1 OR linked_id = $1`
	if _, err := s.exec(ctx).ExecContext(ctx, query, int64(fromID), int64(toID)); err != nil {
		return fmt.Errorf("repoint cluster %d -> %d: %w", fromID, toID, err)
	}
	return nil
}

// Health reports whether the backing database is reachable.
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*identity.Contact, error) {
	var (
		c         identity.Contact
		id        int64
		email     sql.NullString
		phone     sql.NullString
		linkedID  sql.NullInt64
		deletedAt sql.NullTime
	)
	err := row.Scan(&id, &email, &phone, &linkedID, &c.LinkPrecedence, &c.CreatedAt, &c.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	c.ID = identity.ContactID(id)
	c.Email = email.String
	c.Phone = phone.String
	if linkedID.Valid {
		lid := identity.ContactID(linkedID.Int64)
		c.LinkedID = &lid
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		c.DeletedAt = &t
	}
	return &c, nil
}
