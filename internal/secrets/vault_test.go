package secrets

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

type fakeCredentialStore struct {
	values map[string]map[string]string
	err    error
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{values: map[string]map[string]string{}}
}

func (f *fakeCredentialStore) ReadEncryptedField(_ context.Context, tenantID, field string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.values[tenantID][field]
	return v, ok, nil
}

func (f *fakeCredentialStore) WriteEncryptedField(_ context.Context, tenantID, field, value string) error {
	if f.err != nil {
		return f.err
	}
	if f.values[tenantID] == nil {
		f.values[tenantID] = map[string]string{}
	}
	f.values[tenantID][field] = value
	return nil
}

func (f *fakeCredentialStore) ClearEncryptedField(_ context.Context, tenantID, field string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.values[tenantID], field)
	return nil
}

func (f *fakeCredentialStore) ListEncryptedFields(_ context.Context, tenantID string) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]string{}
	for k, v := range f.values[tenantID] {
		out[k] = v
	}
	return out, nil
}

func newTestVault(t *testing.T, store CredentialStore, opts ...VaultOption) *Vault {
	t.Helper()
	v, err := NewVault(newTestCipher(t), store, opts...)
	if err != nil {
		t.Fatalf("NewVault: %v", err)
	}
	return v
}

func TestVaultGetCredentialLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newFakeCredentialStore()
	v := newTestVault(t, store)

	got, ok, err := v.GetCredential(ctx, "tenant-t", OpenAIAPIKey)
	if err != nil || ok || got != "" {
		t.Fatalf("expected no credential, got %q, %v, %v", got, ok, err)
	}

	if err := v.PutCredential(ctx, "tenant-t", OpenAIAPIKey, "sk-test123"); err != nil {
		t.Fatalf("PutCredential: %v", err)
	}
	stored := store.values["tenant-t"]["openai_api_key_encrypted"]
	if stored == "" || stored == "sk-test123" {
		t.Fatalf("expected ciphertext at rest, got %q", stored)
	}

	got, ok, err = v.GetCredential(ctx, "tenant-t", OpenAIAPIKey)
	if err != nil || !ok || got != "sk-test123" {
		t.Fatalf("GetCredential = %q, %v, %v", got, ok, err)
	}

	if err := v.PutCredential(ctx, "tenant-t", OpenAIAPIKey, "sk-test123"); err != nil {
		t.Fatalf("PutCredential: %v", err)
	}
	if store.values["tenant-t"]["openai_api_key_encrypted"] == stored {
		t.Fatalf("expected replacement to use a new IV")
	}

	if err := v.DeleteCredential(ctx, "tenant-t", OpenAIAPIKey); err != nil {
		t.Fatalf("DeleteCredential: %v", err)
	}
	if _, ok, err := v.GetCredential(ctx, "tenant-t", OpenAIAPIKey); ok || err != nil {
		t.Fatalf("expected credential removed, ok=%v err=%v", ok, err)
	}
}

func TestVaultHasCredentialNeverDecrypts(t *testing.T) {
	ctx := context.Background()
	store := newFakeCredentialStore()
	v := newTestVault(t, store)

	has, err := v.HasCredential(ctx, "tenant-t", StripeSecretKey)
	if err != nil || has {
		t.Fatalf("expected no credential, got %v, %v", has, err)
	}

	if err := v.PutCredential(ctx, "tenant-t", StripeSecretKey, "sk_live_1"); err != nil {
		t.Fatalf("PutCredential: %v", err)
	}
	has, err = v.HasCredential(ctx, "tenant-t", StripeSecretKey)
	if err != nil || !has {
		t.Fatalf("expected credential present, got %v, %v", has, err)
	}

	store.values["tenant-t"]["stripe_secret_key_encrypted"] = "garbage-without-separator"
	has, err = v.HasCredential(ctx, "tenant-t", StripeSecretKey)
	if err != nil || !has {
		t.Fatalf("corrupted value must still count as present, got %v, %v", has, err)
	}
	if _, _, err := v.GetCredential(ctx, "tenant-t", StripeSecretKey); !errors.Is(err, ErrMalformedCredential) {
		t.Fatalf("expected ErrMalformedCredential from GetCredential, got %v", err)
	}

	store.values["tenant-t"]["stripe_secret_key_encrypted"] = ""
	if has, _ := v.HasCredential(ctx, "tenant-t", StripeSecretKey); has {
		t.Fatalf("empty value must not count as present")
	}
}

func TestVaultCorruptedValueSurfacesDecryptionFailure(t *testing.T) {
	ctx := context.Background()
	store := newFakeCredentialStore()
	v := newTestVault(t, store)
	if err := v.PutCredential(ctx, "tenant-t", TwilioAuthToken, "twilio-token"); err != nil {
		t.Fatalf("PutCredential: %v", err)
	}
	sealed := store.values["tenant-t"]["twilio_auth_token_encrypted"]
	parts := strings.Split(sealed, ":")
	iv, _ := hex.DecodeString(parts[0])
	iv[len(iv)-1] ^= 0xff
	store.values["tenant-t"]["twilio_auth_token_encrypted"] = hex.EncodeToString(iv) + ":" + parts[1]

	_, ok, err := v.GetCredential(ctx, "tenant-t", TwilioAuthToken)
	if !errors.Is(err, ErrDecryptionFailure) || ok {
		t.Fatalf("expected ErrDecryptionFailure, got ok=%v err=%v", ok, err)
	}
	if has, err := v.HasCredential(ctx, "tenant-t", TwilioAuthToken); err != nil || !has {
		t.Fatalf("HasCredential must not decrypt: %v, %v", has, err)
	}
}

func TestVaultValidatesInput(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, newFakeCredentialStore())

	if err := v.PutCredential(ctx, "", OpenAIAPIKey, "x"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty tenant, got %v", err)
	}
	if err := v.PutCredential(ctx, "tenant-t", OpenAIAPIKey, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty value, got %v", err)
	}
	if _, _, err := v.GetCredential(ctx, "tenant-t", CredentialName("aws_key")); !errors.Is(err, ErrUnknownCredential) {
		t.Fatalf("expected ErrUnknownCredential, got %v", err)
	}
}

func TestVaultStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := newFakeCredentialStore()
	store.err = errors.New("db down")
	var ops []string
	v := newTestVault(t, store, WithOperationObserver(func(op string, err error) {
		if err != nil {
			ops = append(ops, op)
		}
	}))

	if _, _, err := v.GetCredential(ctx, "tenant-t", OpenAIAPIKey); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if _, err := v.HasCredential(ctx, "tenant-t", OpenAIAPIKey); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if len(ops) != 2 || ops[0] != "get" || ops[1] != "has" {
		t.Fatalf("unexpected observed failures: %v", ops)
	}
}

func TestVaultConfigured(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, newFakeCredentialStore())
	if err := v.PutCredential(ctx, "tenant-t", SlackWebhookURL, "https://hooks.slack.test/x"); err != nil {
		t.Fatalf("PutCredential: %v", err)
	}
	status, err := v.Configured(ctx, "tenant-t")
	if err != nil {
		t.Fatalf("Configured: %v", err)
	}
	if len(status) != len(Names()) {
		t.Fatalf("expected entry per credential, got %d", len(status))
	}
	if !status[SlackWebhookURL] || status[OpenAIAPIKey] {
		t.Fatalf("unexpected status: %v", status)
	}
}

func TestVaultTrimsTenantBeforeStoreAccess(t *testing.T) {
	ctx := context.Background()
	store := newFakeCredentialStore()
	v := newTestVault(t, store)

	if err := v.PutCredential(ctx, " org-1 ", OpenAIAPIKey, "sk-padded"); err != nil {
		t.Fatalf("PutCredential: %v", err)
	}
	if _, ok := store.values[" org-1 "]; ok {
		t.Fatalf("store saw an untrimmed tenant id")
	}
	got, ok, err := v.GetCredential(ctx, "org-1", OpenAIAPIKey)
	if err != nil || !ok || got != "sk-padded" {
		t.Fatalf("GetCredential: %q %v %v", got, ok, err)
	}
	if has, err := v.HasCredential(ctx, "org-1\t", OpenAIAPIKey); err != nil || !has {
		t.Fatalf("HasCredential: %v %v", has, err)
	}
	if err := v.DeleteCredential(ctx, " org-1", OpenAIAPIKey); err != nil {
		t.Fatalf("DeleteCredential: %v", err)
	}
	if has, _ := v.HasCredential(ctx, "org-1", OpenAIAPIKey); has {
		t.Fatalf("expected credential cleared through the padded id")
	}
}
