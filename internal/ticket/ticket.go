// Package ticket issues and verifies short-lived signed tickets for photo
// content URLs, so that image links handed to the browser never carry the
// provider's bearer token.
package ticket

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const audience = "photo-content"

// DefaultTTL matches the lifetime of the provider's temporary links.
const DefaultTTL = time.Hour

// ErrInvalid is returned for missing, malformed, expired or mismatched tickets.
var ErrInvalid = errors.New("invalid content ticket")

// Signer issues tickets bound to one file id.
type Signer struct {
	secret  []byte
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

// NewSigner creates a Signer. baseURL is the public origin of this service
// and may be empty for same-origin relative URLs.
func NewSigner(secret string, ttl time.Duration, baseURL string) *Signer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Signer{
		secret:  []byte(secret),
		ttl:     ttl,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		now:     time.Now,
	}
}

// Issue returns a signed ticket for fileID.
func (s *Signer) Issue(fileID string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fileID,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}
	return signed, nil
}

// SignedURL returns the proxy content URL for fileID.
func (s *Signer) SignedURL(fileID string) (string, error) {
	t, err := s.Issue(fileID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/api/photos/%s/content?ticket=%s",
		s.baseURL, url.PathEscape(fileID), url.QueryEscape(t)), nil
}

// Verify checks that ticket is valid, unexpired and issued for fileID.
func (s *Signer) Verify(ticket, fileID string) error {
	if ticket == "" {
		return ErrInvalid
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(ticket, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if claims.Subject != fileID {
		return fmt.Errorf("%w: issued for a different file", ErrInvalid)
	}
	return nil
}
