package repo

import (
	"context"
	"errors"

	"github.com/storelens-ai/storelens/domains/entitlements/be/service"
	"github.com/storelens-ai/storelens/platform/go/persistence"
)

// PostgresCredentialSource reads offline credentials from the sessions table
// maintained by the OAuth install flow.
type PostgresCredentialSource struct {
	store *persistence.SessionStore
}

// NewPostgresCredentialSource constructs a credential source backed by SessionStore.
func NewPostgresCredentialSource(store *persistence.SessionStore) *PostgresCredentialSource {
	if store == nil {
		panic("session store is required")
	}
	return &PostgresCredentialSource{store: store}
}

func (s *PostgresCredentialSource) LatestOffline(ctx context.Context, shopDomain string) (service.Credential, error) {
	rec, err := s.store.LatestOffline(ctx, shopDomain)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return service.Credential{}, service.ErrNoCredential
		}
		return service.Credential{}, err
	}

	cred := service.Credential{ExpiresAt: rec.ExpiresAt}
	if rec.AccessToken != nil {
		cred.AccessToken = *rec.AccessToken
	}
	return cred, nil
}

// Ensure interface compliance.
var _ service.CredentialSource = (*PostgresCredentialSource)(nil)
