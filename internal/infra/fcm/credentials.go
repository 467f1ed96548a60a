// internal/infra/fcm/credentials.go
package fcm

import (
	"encoding/json"
	"fmt"
	"os"
)

const defaultTokenURI = "https://oauth2.googleapis.com/token"

var ErrInvalidServiceAccount = fmt.Errorf("invalid service account credentials")

// ServiceAccount is the subset of a Google service-account key file the exchange needs.
type ServiceAccount struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

// ParseServiceAccount decodes a key file body and checks the fields the exchange relies on.
func ParseServiceAccount(raw []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidServiceAccount, err)
	}
	switch {
	case sa.ProjectID == "":
		return nil, fmt.Errorf("%w: project_id is empty", ErrInvalidServiceAccount)
	case sa.ClientEmail == "":
		return nil, fmt.Errorf("%w: client_email is empty", ErrInvalidServiceAccount)
	case sa.PrivateKey == "":
		return nil, fmt.Errorf("%w: private_key is empty", ErrInvalidServiceAccount)
	}
	if sa.TokenURI == "" {
		sa.TokenURI = defaultTokenURI
	}
	return &sa, nil
}

// LoadServiceAccount reads credentials from inline JSON, falling back to a file path.
func LoadServiceAccount(inlineJSON, path string) (*ServiceAccount, error) {
	if inlineJSON != "" {
		return ParseServiceAccount([]byte(inlineJSON))
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account file: %w", err)
	}
	return ParseServiceAccount(raw)
}
