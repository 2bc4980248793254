package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

const publicationsCollection = "vault_publications"

// firestorePublicationRepository implements the PublicationRepository
// interface using Firestore. Only membership existence is needed by the
// access core; publication CRUD is handled elsewhere.
type firestorePublicationRepository struct {
	client *firestore.Client
}

// NewFirestorePublicationRepository creates a new instance of
// firestorePublicationRepository.
func NewFirestorePublicationRepository(client *firestore.Client) PublicationRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for PublicationRepository.")
	}
	return &firestorePublicationRepository{client: client}
}

// ExistsByVault reports whether any publication membership row references the
// vault. The membership collection carries looser read visibility than the
// vault record, so a hit here proves the vault exists even when the direct
// read came back empty.
func (r *firestorePublicationRepository) ExistsByVault(ctx context.Context, vaultID string) (bool, error) {
	if vaultID == "" {
		return false, errors.New("vaultID cannot be empty for ExistsByVault operation")
	}

	iter := r.client.Collection(publicationsCollection).
		Where("vaultId", "==", vaultID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		if isOpaqueReadError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to probe publications for vault '%s': %w", vaultID, err)
	}
	return true, nil
}
