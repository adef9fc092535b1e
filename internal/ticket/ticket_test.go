package ticket

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSigner_IssueAndVerify(t *testing.T) {
	s := NewSigner("test-secret", time.Minute, "")

	tk, err := s.Issue("file-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := s.Verify(tk, "file-1"); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestSigner_VerifyRejects(t *testing.T) {
	s := NewSigner("test-secret", time.Minute, "")
	good, _ := s.Issue("file-1")

	other := NewSigner("other-secret", time.Minute, "")
	forged, _ := other.Issue("file-1")

	expiredSigner := NewSigner("test-secret", time.Minute, "")
	expiredSigner.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := expiredSigner.Issue("file-1")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "file-1"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name   string
		ticket string
		fileID string
	}{
		{"empty ticket", "", "file-1"},
		{"garbage", "not-a-jwt", "file-1"},
		{"wrong file", good, "file-2"},
		{"wrong secret", forged, "file-1"},
		{"expired", expired, "file-1"},
		{"alg none", unsigned, "file-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Verify(tt.ticket, tt.fileID)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestSigner_SignedURL(t *testing.T) {
	s := NewSigner("test-secret", 0, "https://baby.example.com/")

	raw, err := s.SignedURL("abc/123")
	if err != nil {
		t.Fatalf("SignedURL failed: %v", err)
	}
	if !strings.HasPrefix(raw, "https://baby.example.com/api/photos/abc%2F123/content?ticket=") {
		t.Errorf("Unexpected URL: %s", raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("URL does not parse: %v", err)
	}
	if err := s.Verify(u.Query().Get("ticket"), "abc/123"); err != nil {
		t.Errorf("Ticket from URL failed to verify: %v", err)
	}
	if strings.Contains(raw, "access_token") {
		t.Errorf("Proxy URL must not carry a bearer token: %s", raw)
	}
}
