package ai

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups jobsift secrets in the OS keychain.
	KeyringService = "jobsift"

	// KeyringAccount is the keychain entry holding the embedding API key.
	KeyringAccount = "embedding-api-key"

	// APIKeyEnv is the environment variable consulted before the keychain.
	APIKeyEnv = "JOBSIFT_API_KEY"
)

// ErrEmptyAPIKey is returned when storing a blank key.
var ErrEmptyAPIKey = errors.New("api key is empty")

// ResolveAPIKey returns the first non-blank key from the explicit value,
// the JOBSIFT_API_KEY environment variable, and the OS keychain.
// Returns "" when none is set; local providers need no key.
func ResolveAPIKey(explicit string) string {
	if k := strings.TrimSpace(explicit); k != "" {
		return k
	}
	if k := strings.TrimSpace(os.Getenv(APIKeyEnv)); k != "" {
		return k
	}
	k, err := keyring.Get(KeyringService, KeyringAccount)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(k)
}

// StoreAPIKey saves the key in the OS keychain.
func StoreAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyAPIKey
	}
	return keyring.Set(KeyringService, KeyringAccount, key)
}

// DeleteAPIKey removes the stored key. Missing entries are not an error.
func DeleteAPIKey() error {
	err := keyring.Delete(KeyringService, KeyringAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
