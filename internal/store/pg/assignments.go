package pg

import (
	"context"
	"database/sql"
	"errors"

	"teamhub.app/internal/authz"
)

const assignmentColumns = `id, subject_id, role, organization_id, team_id, active, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (authz.Assignment, error) {
	var (
		a         authz.Assignment
		role      string
		org, team sql.NullString
	)
	if err := row.Scan(&a.ID, &a.SubjectID, &role, &org, &team, &a.Active, &a.CreatedAt); err != nil {
		return authz.Assignment{}, err
	}
	// Unknown roles pass through; the resolver ignores invalid assignments.
	a.Kind = authz.Kind(role)
	a.OrganizationID = org.String
	a.TeamID = team.String
	return a, nil
}

func (s *Store) LoadActiveAssignments(ctx context.Context, subjectID string) ([]authz.Assignment, error) {
	return s.queryAssignments(ctx, `
		select `+assignmentColumns+`
		from role_assignments
		where subject_id = $1 and active
		order by id
	`, subjectID)
}

func (s *Store) ListAssignments(ctx context.Context, subjectID string) ([]authz.Assignment, error) {
	return s.queryAssignments(ctx, `
		select `+assignmentColumns+`
		from role_assignments
		where subject_id = $1
		order by id
	`, subjectID)
}

func (s *Store) queryAssignments(ctx context.Context, query string, args ...any) ([]authz.Assignment, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []authz.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) TeamOrganization(ctx context.Context, teamID string) (string, error) {
	if s.db == nil {
		return "", errNoDB
	}
	var orgID string
	err := s.db.QueryRowContext(ctx, `select organization_id from teams where id = $1`, teamID).Scan(&orgID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", authz.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return orgID, nil
}

func (s *Store) CreateAssignment(ctx context.Context, a authz.Assignment) error {
	if s.db == nil {
		return errNoDB
	}
	_, err := s.db.ExecContext(ctx, `
		insert into role_assignments (id, subject_id, role, organization_id, team_id, active, created_at)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.SubjectID, string(a.Kind), nullIfEmpty(a.OrganizationID), nullIfEmpty(a.TeamID), a.Active, a.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return authz.ErrConflict
			case pgErrForeignKeyViolation:
				return authz.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (s *Store) GetAssignment(ctx context.Context, id string) (authz.Assignment, error) {
	if s.db == nil {
		return authz.Assignment{}, errNoDB
	}
	a, err := scanAssignment(s.db.QueryRowContext(ctx, `
		select `+assignmentColumns+`
		from role_assignments
		where id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return authz.Assignment{}, authz.ErrNotFound
	}
	return a, err
}

func (s *Store) DeleteAssignment(ctx context.Context, id string) error {
	if s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `delete from role_assignments where id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return authz.ErrNotFound
	}
	return nil
}

func (s *Store) SetAssignmentActive(ctx context.Context, id string, active bool) (authz.Assignment, error) {
	if s.db == nil {
		return authz.Assignment{}, errNoDB
	}
	a, err := scanAssignment(s.db.QueryRowContext(ctx, `
		update role_assignments
		set active = $2
		where id = $1
		returning `+assignmentColumns, id, active))
	if errors.Is(err, sql.ErrNoRows) {
		return authz.Assignment{}, authz.ErrNotFound
	}
	return a, err
}
