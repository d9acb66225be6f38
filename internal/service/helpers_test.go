package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/rossmikee121/schoolrepr/internal/repository"
	"github.com/rossmikee121/schoolrepr/pkg/database"
)

func newServiceDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repository.Bootstrap(context.Background(), db))
	return db
}

func seed(t *testing.T, db *sqlx.DB, query string, args ...interface{}) {
	t.Helper()
	_, err := db.Exec(db.Rebind(query), args...)
	require.NoError(t, err)
}

func seedProgramDivision(t *testing.T, db *sqlx.DB, capacity int) {
	t.Helper()
	seed(t, db, `INSERT INTO programs (id, name, code) VALUES (?, ?, ?)`, "prog-cs", "Computer Science", "CS")
	seed(t, db, `INSERT INTO programs (id, name, code) VALUES (?, ?, ?)`, "prog-me", "Mechanical", "ME")
	seed(t, db, `INSERT INTO divisions (id, program_id, name, capacity) VALUES (?, ?, ?, ?)`, "div-a", "prog-cs", "A", capacity)
}
