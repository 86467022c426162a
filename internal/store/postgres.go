package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- Catalog ---

func (s *PostgresStore) ListCategories(ctx context.Context, tenantID uuid.UUID) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, description, display_order
		FROM categories WHERE tenant_id IS NULL OR tenant_id = $1
		ORDER BY display_order ASC, name ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		var description sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &description, &c.Order); err != nil {
			return nil, err
		}
		c.Description = description.String
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListQuestions(ctx context.Context, tenantID uuid.UUID) ([]Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, category_id, text, polarity, display_order
		FROM questions WHERE tenant_id IS NULL OR tenant_id = $1
		ORDER BY display_order ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.TenantID, &q.CategoryID, &q.Text, &q.Polarity, &q.Order); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListScaleItems(ctx context.Context, tenantID uuid.UUID) ([]ScaleItem, error) {
	// A tenant-specific scale replaces the global one entirely.
	rows, err := s.pool.Query(ctx, `
		SELECT id, label, value, display_order FROM scale_items
		WHERE tenant_id = $1
		   OR (tenant_id IS NULL AND NOT EXISTS (SELECT 1 FROM scale_items WHERE tenant_id = $1))
		ORDER BY display_order ASC, value ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScaleItem
	for rows.Next() {
		var it ScaleItem
		if err := rows.Scan(&it.ID, &it.Label, &it.Value, &it.Order); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListActionPlans(ctx context.Context, tenantID uuid.UUID) ([]ActionPlan, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, category_id, title, description, is_global,
			score_min, score_max, show_in_report, created_at
		FROM action_plans WHERE is_global OR tenant_id = $1
		ORDER BY created_at ASC, seq ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActionPlan
	for rows.Next() {
		var p ActionPlan
		var description sql.NullString
		if err := rows.Scan(&p.ID, &p.TenantID, &p.CategoryID, &p.Title, &description, &p.IsGlobal,
			&p.ScoreMin, &p.ScoreMax, &p.ShowInReport, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Description = description.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetCompany(ctx context.Context, tenantID, companyID uuid.UUID) (*Company, error) {
	c := &Company{}
	var registrationID, address sql.NullString
	var rName, rRole, rRegistry, rEmail sql.NullString
	err := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, registration_id, address, departments,
			responsible_name, responsible_role, responsible_registry, responsible_email
		FROM companies WHERE tenant_id = $1 AND id = $2`, tenantID, companyID,
	).Scan(&c.ID, &c.TenantID, &c.Name, &registrationID, &address, &c.Departments,
		&rName, &rRole, &rRegistry, &rEmail)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.RegistrationID = registrationID.String
	c.Address = address.String
	if rName.Valid && rName.String != "" {
		c.Responsible = &Responsible{
			Name:     rName.String,
			Role:     rRole.String,
			Registry: rRegistry.String,
			Email:    rEmail.String,
		}
	}
	return c, nil
}
