package gcp

import (
	"os"
	"strings"

	"google.golang.org/api/option"
)

// ClientOptions resolves service account credentials for the storage client.
// Credentials may hold inline JSON or a key file path; when empty the inline
// GOOGLE_APPLICATION_CREDENTIALS_JSON variable is tried, then application
// default credentials apply.
func (cfg StorageConfig) ClientOptions() []option.ClientOption {
	opts := []option.ClientOption{option.WithScopes(storageScopeReadWrite)}
	creds := strings.TrimSpace(cfg.Credentials)
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	}
	switch {
	case creds == "":
		return opts
	case strings.HasPrefix(creds, "{"):
		return append(opts, option.WithCredentialsJSON([]byte(creds)))
	default:
		return append(opts, option.WithCredentialsFile(creds))
	}
}
