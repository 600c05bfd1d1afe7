package credstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// credentialRow is the single-row table backing SQLite. The fixed primary key
// keeps "at most one credential" a schema-level fact.
type credentialRow struct {
	bun.BaseModel `bun:"table:credentials,alias:cred"`
	ID            int64     `bun:"id,pk"`
	Token         string    `bun:"token,notnull"`
	IdentityID    string    `bun:"identity_id"`
	SavedAt       time.Time `bun:"saved_at,notnull"`
}

const credentialRowID = 1

// SQLite is a Store backed by a local SQLite database, so the credential
// survives process restarts.
type SQLite struct {
	db *bun.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database at path and ensures the
// credentials table exists. Use ":memory:" for a throwaway store.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.NewCreateTable().
		Model((*credentialRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// NewSQLite wraps an existing bun DB. The caller owns the connection and the
// credentials table must already exist.
func NewSQLite(db *bun.DB) *SQLite {
	return &SQLite{db: db}
}

// Load implements Store.
func (s *SQLite) Load(ctx context.Context) (*Record, error) {
	row := &credentialRow{}

	err := s.db.NewSelect().
		Model(row).
		Where("cred.id = ?", credentialRowID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &Record{
		Token:      row.Token,
		IdentityID: row.IdentityID,
		SavedAt:    row.SavedAt,
	}, nil
}

// Save implements Store.
func (s *SQLite) Save(ctx context.Context, record Record) error {
	row := &credentialRow{
		ID:         credentialRowID,
		Token:      record.Token,
		IdentityID: record.IdentityID,
		SavedAt:    record.SavedAt,
	}

	if row.SavedAt.IsZero() {
		row.SavedAt = time.Now()
	}

	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("identity_id = EXCLUDED.identity_id").
		Set("saved_at = EXCLUDED.saved_at").
		Exec(ctx)

	return err
}

// Clear implements Store.
func (s *SQLite) Clear(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*credentialRow)(nil)).
		Where("id = ?", credentialRowID).
		Exec(ctx)

	return err
}

// Close releases the underlying database handle when the store owns it.
func (s *SQLite) Close() error {
	return s.db.Close()
}
