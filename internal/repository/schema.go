package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// bootstrapSchema is the development and test schema. Production databases are
// migrated by the owning ERP; the DDL stays within the subset PostgreSQL and
// SQLite share.
var bootstrapSchema = []string{
	`CREATE TABLE IF NOT EXISTS departments (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS programs (
		id TEXT PRIMARY KEY,
		department_id TEXT,
		name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		duration_years INTEGER NOT NULL DEFAULT 3,
		degree_type TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS divisions (
		id TEXT PRIMARY KEY,
		program_id TEXT,
		name TEXT NOT NULL,
		capacity INTEGER NOT NULL DEFAULT 60,
		current_strength INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		admission_number TEXT UNIQUE,
		roll_number TEXT,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		date_of_birth DATE,
		gender TEXT,
		program_id TEXT,
		division_id TEXT,
		academic_year TEXT,
		admission_date DATE,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS student_fees (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		total_amount NUMERIC NOT NULL DEFAULT 0,
		discount_amount NUMERIC NOT NULL DEFAULT 0,
		final_amount NUMERIC NOT NULL DEFAULT 0,
		paid_amount NUMERIC NOT NULL DEFAULT 0,
		outstanding_amount NUMERIC NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		due_date DATE,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS fee_payments (
		id TEXT PRIMARY KEY,
		student_fee_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		receipt_number TEXT NOT NULL UNIQUE,
		amount NUMERIC NOT NULL,
		payment_mode TEXT NOT NULL,
		reference TEXT,
		recorded_by TEXT NOT NULL,
		paid_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS student_marks (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		marks_obtained NUMERIC,
		total_marks NUMERIC,
		percentage NUMERIC,
		grade TEXT,
		status TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		division_id TEXT,
		attendance_date DATE NOT NULL,
		status TEXT NOT NULL,
		check_in_time TEXT,
		remarks TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS sequence_counters (
		scope TEXT NOT NULL,
		counter_key TEXT NOT NULL,
		last_value BIGINT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (scope, counter_key)
	)`,
	`CREATE TABLE IF NOT EXISTS report_templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		category TEXT NOT NULL,
		configuration TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		is_public BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS report_exports (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		format TEXT NOT NULL,
		status TEXT NOT NULL,
		file_path TEXT,
		configuration TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		error_message TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_report_exports_status ON report_exports (status, updated_at)`,
	`CREATE TABLE IF NOT EXISTS labs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		capacity INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS lab_sessions (
		id TEXT PRIMARY KEY,
		lab_id TEXT,
		division_id TEXT,
		subject_name TEXT NOT NULL,
		batch_number INTEGER NOT NULL,
		max_students INTEGER NOT NULL,
		session_date DATE,
		start_time TEXT,
		end_time TEXT,
		instructor_id TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS lab_batches (
		id TEXT PRIMARY KEY,
		lab_session_id TEXT NOT NULL REFERENCES lab_sessions (id) ON DELETE CASCADE,
		student_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (lab_session_id, student_id)
	)`,
}

// Bootstrap creates every table the service reads or writes when missing.
func Bootstrap(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range bootstrapSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			head := strings.SplitN(strings.TrimSpace(stmt), "(", 2)[0]
			return fmt.Errorf("bootstrap %s: %w", strings.TrimSpace(head), err)
		}
	}
	return nil
}
