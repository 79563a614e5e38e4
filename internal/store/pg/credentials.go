package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"teamhub.app/internal/secrets"
	"teamhub.app/internal/tenancy"
)

// Column names are interpolated into SQL, so every entry point checks them
// against the credential registry first.
func credentialColumn(field string) (string, error) {
	if !secrets.IsField(field) {
		return "", fmt.Errorf("%w: column %q", secrets.ErrUnknownCredential, field)
	}
	return field, nil
}

func (s *Store) ReadEncryptedField(ctx context.Context, tenantID, field string) (string, bool, error) {
	if s.db == nil {
		return "", false, errNoDB
	}
	col, err := credentialColumn(field)
	if err != nil {
		return "", false, err
	}
	var value sql.NullString
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf(`select %s from organization_credentials where organization_id = $1`, col),
		tenantID,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if !value.Valid || value.String == "" {
		return "", false, nil
	}
	return value.String, true, nil
}

func (s *Store) WriteEncryptedField(ctx context.Context, tenantID, field, value string) error {
	if s.db == nil {
		return errNoDB
	}
	col, err := credentialColumn(field)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		insert into organization_credentials (organization_id, %[1]s, updated_at)
		values ($1, $2, now())
		on conflict (organization_id) do update
		set %[1]s = excluded.%[1]s, updated_at = now()
	`, col), tenantID, value)
	if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
		return tenancy.ErrNotFound
	}
	return err
}

func (s *Store) ClearEncryptedField(ctx context.Context, tenantID, field string) error {
	if s.db == nil {
		return errNoDB
	}
	col, err := credentialColumn(field)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`update organization_credentials set %s = null, updated_at = now() where organization_id = $1`, col),
		tenantID,
	)
	return err
}

func (s *Store) ListEncryptedFields(ctx context.Context, tenantID string) (map[string]string, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	fields := secrets.Fields()
	values := make([]sql.NullString, len(fields))
	dest := make([]any, len(fields))
	for i := range values {
		dest[i] = &values[i]
	}
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`select %s from organization_credentials where organization_id = $1`, strings.Join(fields, ", ")),
		tenantID,
	).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(fields))
	for i, v := range values {
		if v.Valid && v.String != "" {
			out[fields[i]] = v.String
		}
	}
	return out, nil
}
