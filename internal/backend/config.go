package backend

import (
	"errors"
	"fmt"
	"time"

	"spendtrack/internal/config"
	"spendtrack/internal/sheets/google"
)

// Config holds what the factory needs to build a reader.
type Config struct {
	Type          Type
	DataDirectory string

	Credentials   google.Credentials
	PublicBaseURL string
	Timeout       time.Duration

	// Now seeds the memory backend's demo data; defaults to time.Now.
	Now func() time.Time
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	t := Type(appConfig.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:          t,
		DataDirectory: appConfig.DataDir,
		Credentials: google.Credentials{
			ServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
			ServiceAccountFile: appConfig.GoogleServiceAccountFile,
			OAuthClientJSON:    appConfig.GoogleOAuthClientJSON,
			OAuthClientFile:    appConfig.GoogleOAuthClientFile,
			OAuthTokenFile:     appConfig.GoogleOAuthTokenFile,
		},
		PublicBaseURL: appConfig.DriveDownloadBaseURL,
		Timeout:       appConfig.DriveTimeout,
	}, nil
}

// Validate validates the backend configuration.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == LocalBackend && c.DataDirectory == "" {
		return errors.New("data directory is required for local backend")
	}
	return nil
}
