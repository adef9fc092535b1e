package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jun/babymemories/internal/adapter"
	"github.com/jun/babymemories/internal/crypto"
	"github.com/jun/babymemories/internal/model"
	"github.com/jun/babymemories/internal/store"
	"golang.org/x/oauth2"
)

// DefaultKey is the store key under which the provider token is cached.
const DefaultKey = "auth/provider-token"

// expirySkew keeps a cached token from being handed out just before it expires.
const expirySkew = time.Minute

// TokenCache keeps the provider access token between requests. The token is
// encrypted before it is written so a table dump does not expose it.
type TokenCache struct {
	tokens *store.Typed[model.CachedToken]
	enc    crypto.Encryptor
	key    string
	now    func() time.Time
}

// NewTokenCache creates a TokenCache over backend.
func NewTokenCache(backend store.Backend, enc crypto.Encryptor, key string) *TokenCache {
	if key == "" {
		key = DefaultKey
	}
	return &TokenCache{
		tokens: store.NewTyped[model.CachedToken](backend),
		enc:    enc,
		key:    key,
		now:    time.Now,
	}
}

// Get returns the cached token, or adapter.ErrNotFound when there is none or
// it is about to expire.
func (c *TokenCache) Get(ctx context.Context) (*oauth2.Token, error) {
	cached, _, err := c.tokens.Get(ctx, c.key)
	if err != nil {
		return nil, err
	}
	if cached.Expiry.IsZero() || c.now().Add(expirySkew).After(cached.Expiry) {
		return nil, adapter.ErrNotFound
	}

	accessToken, err := c.enc.Decrypt(ctx, cached.EncryptedAccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   cached.TokenType,
		Expiry:      cached.Expiry,
	}, nil
}

// Save encrypts and stores token, replacing any previous one. Tokens without
// an expiry are not cached.
func (c *TokenCache) Save(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("no access token to cache")
	}
	if token.Expiry.IsZero() {
		return nil
	}

	encrypted, err := c.enc.Encrypt(ctx, token.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	next := model.CachedToken{
		EncryptedAccessToken: encrypted,
		TokenType:            token.TokenType,
		Expiry:               token.Expiry,
	}
	_, err = c.tokens.Update(ctx, c.key,
		func() model.CachedToken { return model.CachedToken{} },
		func(cur *model.CachedToken) error {
			*cur = next
			return nil
		})
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}
