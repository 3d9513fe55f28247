package secrets

import "github.com/lucidframe/conversa/pkg/models"

// SealModelKey envelopes apiKey and sets it as m.APIKeySecret, so the
// plaintext never reaches a settings-database row.
func (k *Keyring) SealModelKey(m *models.Model, apiKey string) error {
	envelope, err := k.Seal(apiKey)
	if err != nil {
		return err
	}
	m.APIKeySecret = envelope
	return nil
}

// OpenModelKey decrypts m.APIKeySecret back to the provider API key a
// caller hands to internal/llm when constructing a Provider for m.
func (k *Keyring) OpenModelKey(m *models.Model) (string, error) {
	return k.Open(m.APIKeySecret)
}
