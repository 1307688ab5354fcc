// Package auth holds the credential store, session store, and the
// per-request access gate that fronts every handler.
package auth

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Credentials is the single admin credential for the process. It is
// provisioned once at startup and never mutated afterwards.
type Credentials struct {
	Username string
	hash     string
}

// NewCredentials builds a credential record from an already-provisioned
// hash. Mostly useful for tests; production code goes through Provision.
func NewCredentials(username, hash string) *Credentials {
	return &Credentials{Username: username, hash: hash}
}

// Verify checks a plaintext password against the stored hash. It fails
// closed: no hash configured means no password is ever accepted.
func (c *Credentials) Verify(password string) bool {
	if c == nil || c.hash == "" {
		return false
	}
	ok, err := VerifyHash(password, c.hash)
	if err != nil {
		slog.Warn("password verification error", "username", c.Username, "err", err)
		return false
	}
	return ok
}

// Provision resolves the admin credential at startup. Exactly one branch
// of the priority chain executes:
//
//  1. explicit plaintext password → hash it
//  2. explicit hash → use it verbatim
//  3. non-empty password file → hash its contents
//  4. generate a random password, persist it owner-only, hash it
func Provision(username, password, passwordHash, passwordFile string) (*Credentials, error) {
	c := &Credentials{Username: username}

	switch {
	case password != "":
		hash, err := HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("hash configured password: %w", err)
		}
		c.hash = hash
		slog.Info("using configured password", "username", username)

	case passwordHash != "":
		c.hash = passwordHash
		slog.Info("using configured password hash", "username", username)

	default:
		if saved, ok := loadPasswordFile(passwordFile); ok {
			hash, err := HashPassword(saved)
			if err != nil {
				return nil, fmt.Errorf("hash saved password: %w", err)
			}
			c.hash = hash
			slog.Info("loaded saved password", "username", username, "file", passwordFile)
			break
		}

		generated, err := GeneratePassword(GeneratedPasswordLength)
		if err != nil {
			return nil, fmt.Errorf("generate password: %w", err)
		}
		hash, err := HashPassword(generated)
		if err != nil {
			return nil, fmt.Errorf("hash generated password: %w", err)
		}
		c.hash = hash

		if err := savePasswordFile(passwordFile, generated); err != nil {
			slog.Error("save generated password", "file", passwordFile, "err", err)
		}

		// Printed exactly once; without it the operator can never log in.
		slog.Warn("generated admin password",
			"username", username,
			"password", generated,
			"file", passwordFile,
		)
	}

	return c, nil
}

// loadPasswordFile reads a previously generated password. A missing or
// empty file reports false; a read error is logged and treated as absent.
func loadPasswordFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("read password file", "file", path, "err", err)
		}
		return "", false
	}
	password := strings.TrimSpace(string(data))
	return password, password != ""
}

// savePasswordFile persists the generated password readable by the owner
// only, creating parent directories as needed.
func savePasswordFile(path, password string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create password dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(password+"\n"), 0o600); err != nil {
		return fmt.Errorf("write password file: %w", err)
	}
	return nil
}
