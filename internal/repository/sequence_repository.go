package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rossmikee121/schoolrepr/internal/models"
)

// upsert takes the row lock on (scope, counter_key) for the whole
// read-increment-write cycle; concurrent allocators on the same key queue on it.
const nextSequenceSQL = `INSERT INTO sequence_counters (scope, counter_key, last_value, updated_at)
VALUES (?, ?, 1, ?)
ON CONFLICT (scope, counter_key)
DO UPDATE SET last_value = sequence_counters.last_value + 1, updated_at = excluded.updated_at
RETURNING last_value`

// SequenceRepository persists monotonically increasing counters.
type SequenceRepository struct {
	db *sqlx.DB
}

// NewSequenceRepository constructs the repository.
func NewSequenceRepository(db *sqlx.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// DB exposes the handle so services can open units of work spanning several repositories.
func (r *SequenceRepository) DB() *sqlx.DB {
	return r.db
}

// Next increments the counter for key inside tx and returns the new value.
// The first allocation of a key yields 1.
func (r *SequenceRepository) Next(ctx context.Context, tx *sqlx.Tx, key models.SequenceKey) (int64, error) {
	var value int64
	if err := tx.GetContext(ctx, &value, tx.Rebind(nextSequenceSQL), string(key.Scope), key.Encoded(), time.Now().UTC()); err != nil {
		return 0, classify("allocate sequence "+key.String(), err)
	}
	return value, nil
}
