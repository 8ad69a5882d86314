package auth

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Credentials is the on-disk shape of ~/.forge/credentials.toml: one
// entry per remote cache endpoint the caller has logged into.
type Credentials struct {
	Remotes map[string]RemoteCredential `toml:"remotes"`
}

// RemoteCredential is the token stored for a single remote cache
// endpoint. The token is kept in plaintext on disk (the file is written
// with 0600 permissions) since the server, not this file, verifies the
// token's bcrypt hash; there is nothing to hash on the client side.
type RemoteCredential struct {
	Token string `toml:"token"`
}

// LoadCredentials reads path, returning an empty Credentials if the file
// does not exist yet.
func LoadCredentials(path string) (*Credentials, error) {
	var creds Credentials
	if _, err := os.Stat(path); os.IsNotExist(err) {
		creds.Remotes = make(map[string]RemoteCredential)
		return &creds, nil
	}

	if _, err := toml.DecodeFile(path, &creds); err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if creds.Remotes == nil {
		creds.Remotes = make(map[string]RemoteCredential)
	}
	return &creds, nil
}

// Save writes creds to path with owner-only permissions.
func (c *Credentials) Save(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// SetRemote stores or replaces the token for endpoint.
func (c *Credentials) SetRemote(endpoint, token string) {
	if c.Remotes == nil {
		c.Remotes = make(map[string]RemoteCredential)
	}
	c.Remotes[endpoint] = RemoteCredential{Token: token}
}

// Remote returns the stored token for endpoint, or false if none exists.
func (c *Credentials) Remote(endpoint string) (string, bool) {
	cred, ok := c.Remotes[endpoint]
	return cred.Token, ok
}
