package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"paygate/internal/domain"
	"paygate/pkg/platform/sentinel"
)

// ProjectStore implements storage.ProjectStore on PostgreSQL.
type ProjectStore struct {
	db *sql.DB
}

func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

func (s *ProjectStore) Save(ctx context.Context, project domain.Project) error {
	_, err := execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO projects (id, name, client_details, location, in_charge, budget, phase, current_work, next_work, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, client_details = EXCLUDED.client_details,
			location = EXCLUDED.location, in_charge = EXCLUDED.in_charge,
			phase = EXCLUDED.phase, current_work = EXCLUDED.current_work,
			next_work = EXCLUDED.next_work, status = EXCLUDED.status`,
		project.ID, project.Name, project.ClientDetails, project.Location, project.InCharge,
		project.Budget, project.Phase, project.CurrentWork, project.NextWork, project.Status,
	)
	if err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

func (s *ProjectStore) FindByID(ctx context.Context, id string) (domain.Project, error) {
	var p domain.Project
	err := execer(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, name, client_details, location, in_charge, budget, phase, current_work, next_work, status
		FROM projects WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.ClientDetails, &p.Location, &p.InCharge,
			&p.Budget, &p.Phase, &p.CurrentWork, &p.NextWork, &p.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("find project: %w", err)
	}
	return p, nil
}

func (s *ProjectStore) List(ctx context.Context) ([]domain.Project, error) {
	rows, err := execer(ctx, s.db).QueryContext(ctx, `
		SELECT id, name, client_details, location, in_charge, budget, phase, current_work, next_work, status
		FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.ClientDetails, &p.Location, &p.InCharge,
			&p.Budget, &p.Phase, &p.CurrentWork, &p.NextWork, &p.Status); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}
