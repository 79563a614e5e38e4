package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CredentialStore is opaque column access for a tenant's encrypted credentials.
type CredentialStore interface {
	// ReadEncryptedField reports ok=false when the tenant has no value in field.
	ReadEncryptedField(ctx context.Context, tenantID, field string) (value string, ok bool, err error)
	WriteEncryptedField(ctx context.Context, tenantID, field, value string) error
	ClearEncryptedField(ctx context.Context, tenantID, field string) error
	// ListEncryptedFields returns every non-null field for the tenant.
	ListEncryptedFields(ctx context.Context, tenantID string) (map[string]string, error)
}

// Vault stores and retrieves tenant credentials encrypted with a Cipher.
type Vault struct {
	cipher  *Cipher
	store   CredentialStore
	observe func(op string, err error)
}

// VaultOption configures a Vault.
type VaultOption func(*Vault)

// WithOperationObserver registers a callback for every vault operation.
func WithOperationObserver(fn func(op string, err error)) VaultOption {
	return func(v *Vault) { v.observe = fn }
}

func NewVault(c *Cipher, store CredentialStore, opts ...VaultOption) (*Vault, error) {
	if c == nil {
		return nil, errors.New("secrets: cipher is required")
	}
	if store == nil {
		return nil, errors.New("secrets: credential store is required")
	}
	v := &Vault{cipher: c, store: store}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// GetCredential returns the decrypted credential. ok is false when nothing was
// ever stored; a stored value that cannot be decrypted is an error.
func (v *Vault) GetCredential(ctx context.Context, tenantID string, name CredentialName) (plaintext string, ok bool, err error) {
	defer func() { v.record("get", err) }()
	tenantID, field, err := v.field(tenantID, name)
	if err != nil {
		return "", false, err
	}
	raw, found, err := v.store.ReadEncryptedField(ctx, tenantID, field)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if !found || raw == "" {
		return "", false, nil
	}
	plaintext, err = v.cipher.Decrypt(raw)
	if err != nil {
		return "", false, err
	}
	return plaintext, true, nil
}

// HasCredential reports whether a non-empty value is stored. It never decrypts.
func (v *Vault) HasCredential(ctx context.Context, tenantID string, name CredentialName) (has bool, err error) {
	defer func() { v.record("has", err) }()
	tenantID, field, err := v.field(tenantID, name)
	if err != nil {
		return false, err
	}
	raw, found, err := v.store.ReadEncryptedField(ctx, tenantID, field)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return found && raw != "", nil
}

// PutCredential encrypts plaintext under a new IV and replaces any stored value.
func (v *Vault) PutCredential(ctx context.Context, tenantID string, name CredentialName, plaintext string) (err error) {
	defer func() { v.record("put", err) }()
	tenantID, field, err := v.field(tenantID, name)
	if err != nil {
		return err
	}
	if strings.TrimSpace(plaintext) == "" {
		return fmt.Errorf("%w: credential value is required", ErrInvalidInput)
	}
	sealed, err := v.cipher.Encrypt(plaintext)
	if err != nil {
		return err
	}
	if err := v.store.WriteEncryptedField(ctx, tenantID, field, sealed); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteCredential nulls the stored value.
func (v *Vault) DeleteCredential(ctx context.Context, tenantID string, name CredentialName) (err error) {
	defer func() { v.record("delete", err) }()
	tenantID, field, err := v.field(tenantID, name)
	if err != nil {
		return err
	}
	if err := v.store.ClearEncryptedField(ctx, tenantID, field); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// Configured reports, for every registered credential, whether a value is stored.
func (v *Vault) Configured(ctx context.Context, tenantID string) (status map[CredentialName]bool, err error) {
	defer func() { v.record("list", err) }()
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant id is required", ErrInvalidInput)
	}
	stored, err := v.store.ListEncryptedFields(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	status = make(map[CredentialName]bool, len(registry))
	for _, name := range sortedNames {
		status[name] = stored[registry[name]] != ""
	}
	return status, nil
}

// field resolves the column for name and returns the trimmed tenant id that
// every store call must use.
func (v *Vault) field(tenantID string, name CredentialName) (tenant, field string, err error) {
	tenant = strings.TrimSpace(tenantID)
	if tenant == "" {
		return "", "", fmt.Errorf("%w: tenant id is required", ErrInvalidInput)
	}
	field, ok := name.Field()
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownCredential, name)
	}
	return tenant, field, nil
}

func (v *Vault) record(op string, err error) {
	if v.observe != nil {
		v.observe(op, err)
	}
}
