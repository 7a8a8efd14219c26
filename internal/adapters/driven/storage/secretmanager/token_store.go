// Package secretmanager provides a Google Secret Manager backed token
// store for stateless deployments such as Cloud Run.
//
// All users share one secret holding a single JSON blob. The default
// user's record is stored bare at the top level of the blob, while
// every other user is nested under its user id key. The asymmetry is a
// deliberate legacy compatibility rule: external consumers depend on
// the bare-blob shape for single-user deployments, so it must not be
// "fixed" silently.
package secretmanager

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	secretmanager "google.golang.org/api/secretmanager/v1"

	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
	"github.com/custodia-labs/gsuite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gsuite-cli/internal/logger"
)

// Ensure TokenStore implements the interface.
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore stores token records as versions of a single Secret
// Manager secret. Each save adds a full-blob version, so a concurrent
// read observes either the old or the new version, never a mix.
type TokenStore struct {
	svc        *secretmanager.Service
	projectID  string
	secretName string
	autoCreate bool
}

// NewTokenStore creates a Secret Manager token store for the given
// project and secret name. When autoCreate is set, the secret is
// created on first save. Extra client options are passed through to
// the underlying service (tests use them to point at a fake).
func NewTokenStore(ctx context.Context, projectID, secretName string, autoCreate bool, opts ...option.ClientOption) (*TokenStore, error) {
	if projectID == "" {
		return nil, &domain.ConfigurationError{Message: "secretmanager storage requires a GCP project id"}
	}

	svc, err := secretmanager.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating secretmanager client: %w", err)
	}

	return &TokenStore{
		svc:        svc,
		projectID:  projectID,
		secretName: secretName,
		autoCreate: autoCreate,
	}, nil
}

func (s *TokenStore) secretPath() string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.projectID, s.secretName)
}

func (s *TokenStore) latestVersionPath() string {
	return s.secretPath() + "/versions/latest"
}

// isNotFound reports whether err is a Secret Manager 404.
func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

// accessBlob fetches the latest secret version payload.
// Returns nil bytes (no error) when the secret or version is absent.
func (s *TokenStore) accessBlob(ctx context.Context) ([]byte, error) {
	resp, err := s.svc.Projects.Secrets.Versions.Access(s.latestVersionPath()).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, &domain.StorageError{Op: "get", Cause: err}
	}

	data, err := base64.StdEncoding.DecodeString(resp.Payload.Data)
	if err != nil {
		return nil, &domain.StorageError{Op: "get", Cause: err}
	}
	return data, nil
}

// addBlobVersion writes data as a new secret version.
func (s *TokenStore) addBlobVersion(ctx context.Context, op string, data []byte) error {
	req := &secretmanager.AddSecretVersionRequest{
		Payload: &secretmanager.SecretPayload{
			Data: base64.StdEncoding.EncodeToString(data),
		},
	}
	if _, err := s.svc.Projects.Secrets.AddVersion(s.secretPath(), req).Context(ctx).Do(); err != nil {
		return &domain.StorageError{Op: op, Cause: err}
	}
	return nil
}

// ensureSecretExists creates the secret when autoCreate is enabled.
func (s *TokenStore) ensureSecretExists(ctx context.Context) error {
	if !s.autoCreate {
		return nil
	}

	_, err := s.svc.Projects.Secrets.Get(s.secretPath()).Context(ctx).Do()
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return &domain.StorageError{Op: "save", Cause: err}
	}

	logger.Info("creating secret %s", s.secretName)
	secret := &secretmanager.Secret{
		Replication: &secretmanager.Replication{
			Automatic: &secretmanager.Automatic{},
		},
	}
	_, err = s.svc.Projects.Secrets.Create("projects/"+s.projectID, secret).
		SecretId(s.secretName).Context(ctx).Do()
	if err != nil {
		return &domain.StorageError{Op: "save", Cause: err}
	}
	return nil
}

// Get retrieves the record for a user from the shared blob.
func (s *TokenStore) Get(ctx context.Context, userID string) (*domain.TokenRecord, error) {
	data, err := s.accessBlob(ctx)
	if err != nil || data == nil {
		return nil, err
	}

	var blob map[string]json.RawMessage
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, &domain.StorageError{Op: "get", Cause: err}
	}

	if raw, ok := blob[userID]; ok {
		var record domain.TokenRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, &domain.StorageError{Op: "get", Cause: err}
		}
		return &record, nil
	}

	// Legacy single-user blobs store the default record bare.
	if userID == domain.DefaultUserID {
		if _, ok := blob["token"]; ok {
			var record domain.TokenRecord
			if err := json.Unmarshal(data, &record); err != nil {
				return nil, &domain.StorageError{Op: "get", Cause: err}
			}
			return &record, nil
		}
	}

	return nil, nil
}

// Save writes the record into the shared blob as a new secret version.
func (s *TokenStore) Save(ctx context.Context, record *domain.TokenRecord, userID string) error {
	if err := s.ensureSecretExists(ctx); err != nil {
		return err
	}

	existing := map[string]json.RawMessage{}
	data, err := s.accessBlob(ctx)
	if err != nil {
		return &domain.StorageError{Op: "save", Cause: err}
	}
	if data != nil {
		if err := json.Unmarshal(data, &existing); err != nil {
			return &domain.StorageError{Op: "save", Cause: err}
		}
	}

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return &domain.StorageError{Op: "save", Cause: err}
	}

	var payload []byte
	if userID == domain.DefaultUserID && len(existing) == 0 {
		// First write for a single-user deployment stays bare.
		payload = recordJSON
	} else {
		existing[userID] = recordJSON
		payload, err = json.Marshal(existing)
		if err != nil {
			return &domain.StorageError{Op: "save", Cause: err}
		}
	}

	if err := s.addBlobVersion(ctx, "save", payload); err != nil {
		return err
	}
	logger.Debug("token saved to secret %s", s.secretName)
	return nil
}

// Delete removes the record for a user. Deleting the default user of a
// bare blob deletes the whole secret.
func (s *TokenStore) Delete(ctx context.Context, userID string) (bool, error) {
	data, err := s.accessBlob(ctx)
	if err != nil || data == nil {
		return false, err
	}

	var blob map[string]json.RawMessage
	if err := json.Unmarshal(data, &blob); err != nil {
		return false, &domain.StorageError{Op: "delete", Cause: err}
	}

	if _, ok := blob[userID]; ok {
		delete(blob, userID)
		payload, err := json.Marshal(blob)
		if err != nil {
			return false, &domain.StorageError{Op: "delete", Cause: err}
		}
		if err := s.addBlobVersion(ctx, "delete", payload); err != nil {
			return false, err
		}
		return true, nil
	}

	if userID == domain.DefaultUserID {
		if _, err := s.svc.Projects.Secrets.Delete(s.secretPath()).Context(ctx).Do(); err != nil {
			if isNotFound(err) {
				return false, nil
			}
			return false, &domain.StorageError{Op: "delete", Cause: err}
		}
		return true, nil
	}

	return false, nil
}

// Exists reports whether a record is stored for the user.
func (s *TokenStore) Exists(ctx context.Context, userID string) (bool, error) {
	record, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return record != nil, nil
}
