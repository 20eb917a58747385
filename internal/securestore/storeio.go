package securestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// IsStorageConfigured reports whether a store has both a snapshot path and a
// passphrase, which is what encrypted persistence requires.
func IsStorageConfigured(path, secret string) bool {
	return strings.TrimSpace(path) != "" && strings.TrimSpace(secret) != ""
}

// ReadEncryptedJSON loads an encrypted snapshot into v. A missing file is
// surfaced as-is so callers can treat it as empty state.
func ReadEncryptedJSON(path, secret string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	plain, err := Decrypt(secret, raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(plain, v)
}

// WriteEncryptedJSON marshals v, seals it, and writes the snapshot under a
// 0700 directory with a 0600 file mode.
func WriteEncryptedJSON(path, secret string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	sealed, err := Encrypt(secret, payload)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, sealed, 0o600)
}
