// Package auth owns the persisted bearer credentials and the login, register
// and logout flows that read and write them.
package auth

import (
	"context"
	"fmt"

	"github.com/joss/agentchat/internal/domain"
	"github.com/joss/agentchat/internal/store"
)

// Keys under which credentials are persisted.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUsername     = "username"
)

// CredentialStore persists Credentials in a KV. It satisfies api.TokenSource.
type CredentialStore struct {
	kv store.KV
}

// NewCredentialStore wraps kv.
func NewCredentialStore(kv store.KV) *CredentialStore {
	return &CredentialStore{kv: kv}
}

// Load returns the stored credentials. Missing keys are empty strings.
func (c *CredentialStore) Load(ctx context.Context) (domain.Credentials, error) {
	var creds domain.Credentials
	for key, dst := range map[string]*string{
		KeyAccessToken:  &creds.Access,
		KeyRefreshToken: &creds.Refresh,
		KeyUsername:     &creds.Username,
	} {
		v, err := store.GetOr(ctx, c.kv, key, "")
		if err != nil {
			return domain.Credentials{}, fmt.Errorf("load %s: %w", key, err)
		}
		*dst = v
	}
	return creds, nil
}

// Save writes all three keys.
func (c *CredentialStore) Save(ctx context.Context, creds domain.Credentials) error {
	for _, kv := range [][2]string{
		{KeyAccessToken, creds.Access},
		{KeyRefreshToken, creds.Refresh},
		{KeyUsername, creds.Username},
	} {
		if err := c.kv.Set(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("save %s: %w", kv[0], err)
		}
	}
	return nil
}

// Clear removes every stored key, not only the credential ones.
func (c *CredentialStore) Clear(ctx context.Context) error {
	return c.kv.Clear(ctx)
}

// AccessToken returns the stored access token, or "" when logged out.
func (c *CredentialStore) AccessToken(ctx context.Context) (string, error) {
	return store.GetOr(ctx, c.kv, KeyAccessToken, "")
}
