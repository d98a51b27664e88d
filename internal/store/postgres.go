package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aport-academy/appraisal-api/internal/core"
)

// PostgresStore keeps the snapshot as a single JSONB row. The table is
// fixed to one row (id = 1) and every Save rewrites it inside a
// transaction, so readers never observe a partial snapshot.
type PostgresStore struct {
	db *sqlx.DB
}

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS app_snapshot (
    id          INT PRIMARY KEY CHECK (id = 1),
    version     INT NOT NULL,
    data        JSONB NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func NewPostgresStore(ctx context.Context, db *core.Database) (*PostgresStore, error) {
	if _, err := db.DB.ExecContext(ctx, snapshotSchema); err != nil {
		return nil, fmt.Errorf("ensuring snapshot table: %w", err)
	}
	return &PostgresStore{db: db.DB}, nil
}

func (s *PostgresStore) Load(ctx context.Context) (*Snapshot, error) {
	var data []byte
	query := `SELECT data FROM app_snapshot WHERE id = 1`

	err := s.db.GetContext(ctx, &data, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot row: %w", err)
	}
	return DecodeSnapshot(data)
}

func (s *PostgresStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	query := `
		INSERT INTO app_snapshot (id, version, data, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET version = EXCLUDED.version,
		    data = EXCLUDED.data,
		    updated_at = EXCLUDED.updated_at`

	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query, snap.SchemaVersion, data, time.Now().UTC()); err != nil {
			return fmt.Errorf("upserting snapshot row: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) Close() error {
	// The *sqlx.DB is owned by core.Database and closed by the caller.
	return nil
}
