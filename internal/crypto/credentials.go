package crypto

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// APICredentials is the on-disk format for derived CLOB API credentials.
// The file is written with mode 0600 and reused across runs so the derive
// flow only happens once per wallet.
type APICredentials struct {
	Key        string `json:"api_key"`
	Secret     string `json:"api_secret"`
	Passphrase string `json:"api_passphrase"`
	Address    string `json:"address"`
}

// Complete reports whether all credential fields are present.
func (c APICredentials) Complete() bool {
	return c.Key != "" && c.Secret != "" && c.Passphrase != ""
}

// HMAC returns an HMACAuth built from these credentials.
func (c APICredentials) HMAC() *HMACAuth {
	return &HMACAuth{Key: c.Key, Secret: c.Secret, Passphrase: c.Passphrase}
}

// LoadCredentials reads stored API credentials from path. A missing file is
// reported as os.ErrNotExist so callers can fall back to the derive flow.
func LoadCredentials(path string) (APICredentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return APICredentials{}, fmt.Errorf("crypto: reading credentials file: %w", err)
	}

	var creds APICredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return APICredentials{}, fmt.Errorf("crypto: parsing credentials file: %w", err)
	}
	if !creds.Complete() {
		return APICredentials{}, errors.New("crypto: credentials file is missing fields")
	}

	return creds, nil
}

// SaveCredentials writes API credentials to path with owner-only permissions.
func SaveCredentials(path string, creds APICredentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("crypto: encoding credentials: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("crypto: writing credentials file: %w", err)
	}
	return nil
}
