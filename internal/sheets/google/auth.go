package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Scopes requested for Drive and Sheets access; both read-only.
var Scopes = []string{drive.DriveReadonlyScope, gsheet.SpreadsheetsReadonlyScope}

// ErrNoCredentials means no API credentials are configured. The reader
// then works through public share links only.
var ErrNoCredentials = errors.New("no Google API credentials configured")

// Credentials lists the supported ways to authenticate, in the order
// they are tried.
type Credentials struct {
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientJSON    string
	OAuthClientFile    string
	OAuthTokenFile     string
}

// clientOptions turns Credentials into API client options. It returns
// ErrNoCredentials when nothing is configured.
func clientOptions(ctx context.Context, c Credentials) ([]goption.ClientOption, string, error) {
	switch {
	case strings.TrimSpace(c.ServiceAccountJSON) != "":
		return []goption.ClientOption{goption.WithCredentialsJSON([]byte(c.ServiceAccountJSON)), goption.WithScopes(Scopes...)}, "service_account_json", nil
	case strings.TrimSpace(c.ServiceAccountFile) != "":
		b, err := os.ReadFile(c.ServiceAccountFile)
		if err != nil {
			return nil, "", fmt.Errorf("read service account file: %w", err)
		}
		return []goption.ClientOption{goption.WithCredentialsJSON(b), goption.WithScopes(Scopes...)}, "service_account_file", nil
	case strings.TrimSpace(c.OAuthTokenFile) != "":
		ts, err := tokenSource(ctx, c)
		if err != nil {
			return nil, "", err
		}
		return []goption.ClientOption{goption.WithTokenSource(ts)}, "oauth_token", nil
	default:
		return nil, "", ErrNoCredentials
	}
}

// tokenSource builds a refreshing token source from an authorized-user
// token file and its OAuth client definition.
func tokenSource(ctx context.Context, c Credentials) (oauth2.TokenSource, error) {
	tokBytes, err := os.ReadFile(c.OAuthTokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("token file %s missing (run oauth-init): %w", c.OAuthTokenFile, ErrNoCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokBytes, &tok); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}

	clientJSON := []byte(c.OAuthClientJSON)
	if len(clientJSON) == 0 && c.OAuthClientFile != "" {
		if clientJSON, err = os.ReadFile(c.OAuthClientFile); err != nil {
			return nil, fmt.Errorf("read oauth client file: %w", err)
		}
	}
	if len(clientJSON) == 0 {
		// Without the client the token cannot be refreshed, but it may
		// still be valid.
		return oauth2.StaticTokenSource(&tok), nil
	}
	cfg, err := goauth.ConfigFromJSON(clientJSON, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("oauth client config: %w", err)
	}
	return cfg.TokenSource(ctx, &tok), nil
}
