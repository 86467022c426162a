package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const templateColumns = `id, tenant_id, name, schema_version, sections, is_default, created_at, updated_at`

// CreateTemplate inserts a non-default template. Defaults are only assigned
// through SetDefaultTemplate so that the one-default rule is enforced in one place.
func (s *PostgresStore) CreateTemplate(ctx context.Context, t *ReportTemplate) error {
	sections := t.Sections
	if sections == nil {
		sections = []byte("[]")
	}
	t.IsDefault = false
	return s.pool.QueryRow(ctx, `
		INSERT INTO report_templates (tenant_id, name, schema_version, sections, is_default)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id, created_at, updated_at`,
		t.TenantID, t.Name, t.SchemaVersion, sections,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (s *PostgresStore) GetTemplate(ctx context.Context, tenantID, id uuid.UUID) (*ReportTemplate, error) {
	t, err := scanTemplate(s.pool.QueryRow(ctx, `
		SELECT `+templateColumns+`
		FROM report_templates WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *PostgresStore) ListTemplates(ctx context.Context, tenantID uuid.UUID) ([]*ReportTemplate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+templateColumns+`
		FROM report_templates WHERE tenant_id = $1
		ORDER BY created_at ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ReportTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTemplate overwrites name and sections. The default flag is left untouched.
func (s *PostgresStore) UpdateTemplate(ctx context.Context, t *ReportTemplate) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE report_templates SET name = $3, schema_version = $4, sections = $5, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING updated_at`,
		t.TenantID, t.ID, t.Name, t.SchemaVersion, t.Sections,
	).Scan(&t.UpdatedAt)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	return err
}

func (s *PostgresStore) DeleteTemplate(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM report_templates WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDefaultTemplate demotes the tenant's current default and promotes id in a
// single transaction, so readers never observe two defaults.
func (s *PostgresStore) SetDefaultTemplate(ctx context.Context, tenantID, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `
		UPDATE report_templates SET is_default = FALSE, updated_at = now()
		WHERE tenant_id = $1 AND is_default AND id <> $2`, tenantID, id); err != nil {
		return fmt.Errorf("demote default: %w", err)
	}
	tag, err := tx.Exec(ctx, `
		UPDATE report_templates SET is_default = TRUE, updated_at = now()
		WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("promote default: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func scanTemplate(row pgx.Row) (*ReportTemplate, error) {
	t := &ReportTemplate{}
	err := row.Scan(&t.ID, &t.TenantID, &t.Name, &t.SchemaVersion, &t.Sections, &t.IsDefault,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}
