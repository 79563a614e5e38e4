package pg

import (
	"context"
	"database/sql"
	"errors"

	"teamhub.app/internal/tenancy"
)

func (s *Store) CreateOrganization(ctx context.Context, org tenancy.Organization) error {
	if s.db == nil {
		return errNoDB
	}
	_, err := s.db.ExecContext(ctx, `
		insert into organizations (id, name, created_at)
		values ($1, $2, $3)
	`, org.ID, org.Name, org.CreatedAt)
	if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
		return tenancy.ErrConflict
	}
	return err
}

func (s *Store) GetOrganization(ctx context.Context, id string) (tenancy.Organization, error) {
	if s.db == nil {
		return tenancy.Organization{}, errNoDB
	}
	var org tenancy.Organization
	err := s.db.QueryRowContext(ctx, `
		select id, name, created_at
		from organizations
		where id = $1
	`, id).Scan(&org.ID, &org.Name, &org.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return tenancy.Organization{}, tenancy.ErrNotFound
	}
	if err != nil {
		return tenancy.Organization{}, err
	}
	return org, nil
}

func (s *Store) CreateTeam(ctx context.Context, team tenancy.Team) error {
	if s.db == nil {
		return errNoDB
	}
	_, err := s.db.ExecContext(ctx, `
		insert into teams (id, organization_id, name, created_at)
		values ($1, $2, $3, $4)
	`, team.ID, team.OrganizationID, team.Name, team.CreatedAt)
	if pgErr, ok := maybePgError(err); ok {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return tenancy.ErrConflict
		case pgErrForeignKeyViolation:
			return tenancy.ErrNotFound
		}
	}
	return err
}

// DeleteTeam removes the team; its role assignments go with it by cascade.
func (s *Store) DeleteTeam(ctx context.Context, id string) error {
	if s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `delete from teams where id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return tenancy.ErrNotFound
	}
	return nil
}

func (s *Store) GetTeam(ctx context.Context, id string) (tenancy.Team, error) {
	if s.db == nil {
		return tenancy.Team{}, errNoDB
	}
	var team tenancy.Team
	err := s.db.QueryRowContext(ctx, `
		select id, organization_id, name, created_at
		from teams
		where id = $1
	`, id).Scan(&team.ID, &team.OrganizationID, &team.Name, &team.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return tenancy.Team{}, tenancy.ErrNotFound
	}
	if err != nil {
		return tenancy.Team{}, err
	}
	return team, nil
}

func (s *Store) ListTeams(ctx context.Context, organizationID string) ([]tenancy.Team, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, organization_id, name, created_at
		from teams
		where organization_id = $1
		order by name
	`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []tenancy.Team
	for rows.Next() {
		var team tenancy.Team
		if err := rows.Scan(&team.ID, &team.OrganizationID, &team.Name, &team.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, team)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
