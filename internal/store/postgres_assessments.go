package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const assessmentColumns = `id, tenant_id, company_id,
	department, role, age_range, gender, tenure,
	overall_score, submitted_at, created_at`

// CreateAssessment inserts the assessment and all of its responses in one
// transaction; either every row lands or none does.
func (s *PostgresStore) CreateAssessment(ctx context.Context, a *Assessment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	d := a.Demographics
	err = tx.QueryRow(ctx, `
		INSERT INTO assessments (tenant_id, company_id, department, role, age_range, gender, tenure,
			overall_score, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, now()))
		RETURNING id, submitted_at, created_at`,
		a.TenantID, a.CompanyID, d.Department, d.Role, d.AgeRange, d.Gender, d.Tenure,
		a.OverallScore, nullableTime(a.SubmittedAt),
	).Scan(&a.ID, &a.SubmittedAt, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}

	for i := range a.Responses {
		r := &a.Responses[i]
		r.AssessmentID = a.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO assessment_responses (assessment_id, question_id, answer_value, is_inverse,
				scale_max, scored_value)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at`,
			r.AssessmentID, r.QuestionID, r.AnswerValue, r.IsInverse, r.ScaleMax, r.ScoredValue,
		).Scan(&r.ID, &r.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert response %s: %w", r.QuestionID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAssessment(ctx context.Context, tenantID, id uuid.UUID) (*Assessment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+assessmentColumns+`
		FROM assessments WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	a, err := scanAssessment(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachResponses(ctx, []*Assessment{a}); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *PostgresStore) ListAssessments(ctx context.Context, filter AssessmentFilter) ([]*Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE tenant_id = $1`
	args := []interface{}{filter.TenantID}
	n := 1

	if filter.CompanyID != nil {
		n++
		query += fmt.Sprintf(" AND company_id = $%d", n)
		args = append(args, *filter.CompanyID)
	}
	if filter.From != nil {
		n++
		query += fmt.Sprintf(" AND submitted_at >= $%d", n)
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		n++
		query += fmt.Sprintf(" AND submitted_at <= $%d", n)
		args = append(args, *filter.To)
	}
	if filter.Department != "" {
		n++
		query += fmt.Sprintf(" AND department = $%d", n)
		args = append(args, filter.Department)
	}

	query += " ORDER BY submitted_at ASC, created_at ASC"

	if filter.Limit > 0 {
		n++
		query += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var out []*Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachResponses(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) RelabelAssessment(ctx context.Context, tenantID, id uuid.UUID, d Demographics) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE assessments SET department = $3, role = $4, age_range = $5, gender = $6, tenure = $7
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, d.Department, d.Role, d.AgeRange, d.Gender, d.Tenure)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) attachResponses(ctx context.Context, assessments []*Assessment) error {
	if len(assessments) == 0 {
		return nil
	}
	ids := make([]string, 0, len(assessments))
	byID := make(map[uuid.UUID]*Assessment, len(assessments))
	for _, a := range assessments {
		ids = append(ids, a.ID.String())
		byID[a.ID] = a
	}

	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.assessment_id, r.question_id, r.answer_value, r.is_inverse,
			r.scale_max, r.scored_value, r.created_at
		FROM assessment_responses r
		LEFT JOIN questions q ON q.id = r.question_id
		WHERE r.assessment_id = ANY($1::uuid[])
		ORDER BY r.assessment_id, q.display_order ASC, r.created_at ASC`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r Response
		if err := rows.Scan(&r.ID, &r.AssessmentID, &r.QuestionID, &r.AnswerValue, &r.IsInverse,
			&r.ScaleMax, &r.ScoredValue, &r.CreatedAt); err != nil {
			return err
		}
		if a, ok := byID[r.AssessmentID]; ok {
			a.Responses = append(a.Responses, r)
		}
	}
	return rows.Err()
}

func scanAssessment(row pgx.Row) (*Assessment, error) {
	a := &Assessment{}
	var department, role, ageRange, gender, tenure sql.NullString
	err := row.Scan(
		&a.ID, &a.TenantID, &a.CompanyID,
		&department, &role, &ageRange, &gender, &tenure,
		&a.OverallScore, &a.SubmittedAt, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Demographics = Demographics{
		Department: department.String,
		Role:       role.String,
		AgeRange:   ageRange.String,
		Gender:     gender.String,
		Tenure:     tenure.String,
	}
	return a, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
