package secrets

import (
	"fmt"
	"sort"
	"strings"
)

// CredentialName identifies a third-party credential a tenant can store.
type CredentialName string

const (
	OpenAIAPIKey         CredentialName = "openai_api_key"
	StripeSecretKey      CredentialName = "stripe_secret_key"
	StripePublishableKey CredentialName = "stripe_publishable_key"
	GoogleClientID       CredentialName = "google_client_id"
	GoogleClientSecret   CredentialName = "google_client_secret"
	ZoomClientID         CredentialName = "zoom_client_id"
	ZoomClientSecret     CredentialName = "zoom_client_secret"
	TwilioAccountSID     CredentialName = "twilio_account_sid"
	TwilioAuthToken      CredentialName = "twilio_auth_token"
	SendGridAPIKey       CredentialName = "sendgrid_api_key"
	SlackWebhookURL      CredentialName = "slack_webhook_url"
	GHLClientID          CredentialName = "ghl_client_id"
	GHLClientSecret      CredentialName = "ghl_client_secret"
	GHLAPIKey            CredentialName = "ghl_api_key"
)

// registry maps each credential to its column in organization_credentials.
// Read-only after init.
var registry = map[CredentialName]string{
	OpenAIAPIKey:         "openai_api_key_encrypted",
	StripeSecretKey:      "stripe_secret_key_encrypted",
	StripePublishableKey: "stripe_publishable_key_encrypted",
	GoogleClientID:       "google_client_id_encrypted",
	GoogleClientSecret:   "google_client_secret_encrypted",
	ZoomClientID:         "zoom_client_id_encrypted",
	ZoomClientSecret:     "zoom_client_secret_encrypted",
	TwilioAccountSID:     "twilio_account_sid_encrypted",
	TwilioAuthToken:      "twilio_auth_token_encrypted",
	SendGridAPIKey:       "sendgrid_api_key_encrypted",
	SlackWebhookURL:      "slack_webhook_url_encrypted",
	GHLClientID:          "ghl_client_id_encrypted",
	GHLClientSecret:      "ghl_client_secret_encrypted",
	GHLAPIKey:            "ghl_api_key_encrypted",
}

var sortedNames = func() []CredentialName {
	names := make([]CredentialName, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}()

// ParseCredentialName validates a name received from a request.
func ParseCredentialName(raw string) (CredentialName, error) {
	name := CredentialName(strings.TrimSpace(strings.ToLower(raw)))
	if _, ok := registry[name]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCredential, raw)
	}
	return name, nil
}

// Field returns the storage column for name.
func (n CredentialName) Field() (string, bool) {
	f, ok := registry[n]
	return f, ok
}

// Names lists every registered credential in a stable order.
func Names() []CredentialName {
	out := make([]CredentialName, len(sortedNames))
	copy(out, sortedNames)
	return out
}

// Fields lists every registered storage column in the same order as Names.
func Fields() []string {
	out := make([]string, len(sortedNames))
	for i, n := range sortedNames {
		out[i] = registry[n]
	}
	return out
}

// IsField reports whether column belongs to the registry. Stores use it before
// interpolating a column name into SQL.
func IsField(column string) bool {
	for _, f := range registry {
		if f == column {
			return true
		}
	}
	return false
}
