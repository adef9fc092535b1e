package googledrive

import (
	"context"
	"fmt"

	"github.com/jun/babymemories/internal/adapter"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// CredentialsOption builds a read-only Drive client option from a service
// account key. An empty key is a configuration error.
func CredentialsOption(ctx context.Context, credentialsJSON []byte) (option.ClientOption, error) {
	if len(credentialsJSON) == 0 {
		return nil, &adapter.ConfigError{Missing: []string{"GOOGLE_CREDENTIALS_JSON"}}
	}
	conf, err := google.JWTConfigFromJSON(credentialsJSON, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}
	return option.WithHTTPClient(conf.Client(ctx)), nil
}

// NewSourceFromCredentials creates a Source authenticated as the service
// account in credentialsJSON.
func NewSourceFromCredentials(ctx context.Context, credentialsJSON []byte, signer adapter.URLSigner) (*Source, error) {
	opt, err := CredentialsOption(ctx, credentialsJSON)
	if err != nil {
		return nil, err
	}
	return NewSource(ctx, signer, opt)
}
