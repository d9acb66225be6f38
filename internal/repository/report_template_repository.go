package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rossmikee121/schoolrepr/internal/models"
)

const reportTemplateColumns = `id, name, description, category, configuration, owner_id, is_public, is_active, created_at, updated_at`

// ReportTemplateRepository persists saved report configurations.
type ReportTemplateRepository struct {
	db *sqlx.DB
}

// NewReportTemplateRepository constructs the repository.
func NewReportTemplateRepository(db *sqlx.DB) *ReportTemplateRepository {
	return &ReportTemplateRepository{db: db}
}

// Create inserts a template.
func (r *ReportTemplateRepository) Create(ctx context.Context, tpl *models.ReportTemplate) error {
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	tpl.CreatedAt, tpl.UpdatedAt = now, now

	const query = `INSERT INTO report_templates (id, name, description, category, configuration, owner_id, is_public, is_active, created_at, updated_at)
VALUES (:id, :name, :description, :category, :configuration, :owner_id, :is_public, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tpl); err != nil {
		return classify("create report template", err)
	}
	return nil
}

// GetByID returns a template by id or ErrNotFound.
func (r *ReportTemplateRepository) GetByID(ctx context.Context, id string) (*models.ReportTemplate, error) {
	query := r.db.Rebind(`SELECT ` + reportTemplateColumns + ` FROM report_templates WHERE id = ?`)
	var tpl models.ReportTemplate
	if err := r.db.GetContext(ctx, &tpl, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classify("get report template", err)
	}
	return &tpl, nil
}

// List returns active templates visible to the requester: public ones and
// their own. PublicOnly drops the owned private ones.
func (r *ReportTemplateRepository) List(ctx context.Context, filter models.ReportTemplateFilter) ([]models.ReportTemplate, error) {
	clauses := []string{"is_active = ?"}
	args := []interface{}{true}
	if filter.PublicOnly {
		clauses = append(clauses, "is_public = ?")
		args = append(args, true)
	} else {
		clauses = append(clauses, "(is_public = ? OR owner_id = ?)")
		args = append(args, true, filter.RequesterID)
	}
	if filter.Category != nil {
		clauses = append(clauses, "category = ?")
		args = append(args, *filter.Category)
	}

	query := r.db.Rebind(`SELECT ` + reportTemplateColumns + ` FROM report_templates WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY name ASC`)
	templates := make([]models.ReportTemplate, 0)
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, classify("list report templates", err)
	}
	return templates, nil
}

// Update applies the non-nil fields of params.
func (r *ReportTemplateRepository) Update(ctx context.Context, id string, params models.UpdateReportTemplateParams) error {
	set := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)

	if params.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *params.Name)
	}
	if params.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *params.Description)
	}
	if params.Category != nil {
		set = append(set, "category = ?")
		args = append(args, *params.Category)
	}
	if params.Configuration != nil {
		set = append(set, "configuration = ?")
		args = append(args, *params.Configuration)
	}
	if params.IsPublic != nil {
		set = append(set, "is_public = ?")
		args = append(args, *params.IsPublic)
	}
	if params.IsActive != nil {
		set = append(set, "is_active = ?")
		args = append(args, *params.IsActive)
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := r.db.Rebind(`UPDATE report_templates SET ` + strings.Join(set, ", ") + ` WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return classify("update report template", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a template.
func (r *ReportTemplateRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM report_templates WHERE id = ?`), id)
	if err != nil {
		return classify("delete report template", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
