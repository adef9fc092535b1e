package adapter

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrPreconditionFailed is returned when a version mismatch occurs.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrAuth matches both missing credentials and rejected credentials.
	ErrAuth = errors.New("authentication failed")
)

// ConfigError reports missing provider credentials. It is raised before any
// network call is made.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing provider credentials: %v", e.Missing)
}

func (e *ConfigError) Is(target error) bool { return target == ErrAuth }

// AuthError reports a token exchange the provider rejected.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("token exchange rejected: status %d: %s", e.Status, e.Body)
}

func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// NotFoundError reports that no folder with the album name exists.
type NotFoundError struct {
	Folder string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("folder %q not found", e.Folder)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// UpstreamError reports any other non-success provider response.
type UpstreamError struct {
	Op     string
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: provider returned status %d: %s", e.Op, e.Status, e.Body)
}

// NetworkError reports a transport-level failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
