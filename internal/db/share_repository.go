package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"refvault-backend-go/internal/models"
)

const sharesCollection = "vault_shares"

// firestoreShareRepository implements the ShareRepository interface using
// Firestore.
type firestoreShareRepository struct {
	client *firestore.Client
}

// NewFirestoreShareRepository creates a new instance of
// firestoreShareRepository.
func NewFirestoreShareRepository(client *firestore.Client) ShareRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for ShareRepository.")
	}
	return &firestoreShareRepository{client: client}
}

// Create adds a new share document with an auto-generated ID.
func (r *firestoreShareRepository) Create(ctx context.Context, share *models.Share) (string, error) {
	docRef := r.client.Collection(sharesCollection).NewDoc()
	share.ID = docRef.ID

	_, err := docRef.Create(ctx, share)
	if err != nil {
		return "", fmt.Errorf("failed to create share: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a share document by its ID.
func (r *firestoreShareRepository) GetByID(ctx context.Context, shareID string) (*models.Share, error) {
	if shareID == "" {
		return nil, errors.New("shareID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(sharesCollection).Doc(shareID).Get(ctx)
	if err != nil {
		if isOpaqueReadError(err) {
			return nil, fmt.Errorf("share '%s': %w", shareID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get share '%s': %w", shareID, err)
	}

	var share models.Share
	if err := docSnap.DataTo(&share); err != nil {
		return nil, fmt.Errorf("failed to decode share data for ID '%s': %w", shareID, err)
	}
	share.ID = docSnap.Ref.ID
	return &share, nil
}

// Update overwrites an existing share document.
func (r *firestoreShareRepository) Update(ctx context.Context, share *models.Share) error {
	if share.ID == "" {
		return errors.New("share ID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(sharesCollection).Doc(share.ID).Set(ctx, share, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update share '%s': %w", share.ID, err)
	}
	return nil
}

// Delete removes a share document.
func (r *firestoreShareRepository) Delete(ctx context.Context, shareID string) error {
	if shareID == "" {
		return errors.New("shareID cannot be empty for Delete operation")
	}
	_, err := r.client.Collection(sharesCollection).Doc(shareID).Delete(ctx)
	if err != nil {
		if isOpaqueReadError(err) {
			return fmt.Errorf("share '%s' not found for deletion: %w", shareID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete share '%s': %w", shareID, err)
	}
	return nil
}

// ListByVault retrieves all shares on a vault, newest first.
func (r *firestoreShareRepository) ListByVault(ctx context.Context, vaultID string) ([]*models.Share, error) {
	if vaultID == "" {
		return nil, errors.New("vaultID cannot be empty for ListByVault operation")
	}

	iter := r.client.Collection(sharesCollection).
		Where("vaultId", "==", vaultID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var shares []*models.Share
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate shares for vault '%s': %w", vaultID, err)
		}

		var share models.Share
		if err := doc.DataTo(&share); err != nil {
			log.Printf("Error decoding share data (ID: %s) for vault '%s': %v. Skipping.", doc.Ref.ID, vaultID, err)
			continue
		}
		share.ID = doc.Ref.ID
		shares = append(shares, &share)
	}
	return shares, nil
}

// FindByVaultAndUser returns the newest share for (vault, user). Duplicates
// are not prevented by the store, so newest-wins here.
func (r *firestoreShareRepository) FindByVaultAndUser(ctx context.Context, vaultID, userID string) (*models.Share, error) {
	return r.findOne(ctx, vaultID, "userId", userID)
}

// FindByVaultAndEmail returns the newest share for (vault, email).
func (r *firestoreShareRepository) FindByVaultAndEmail(ctx context.Context, vaultID, email string) (*models.Share, error) {
	return r.findOne(ctx, vaultID, "email", email)
}

func (r *firestoreShareRepository) findOne(ctx context.Context, vaultID, field, value string) (*models.Share, error) {
	if vaultID == "" || value == "" {
		return nil, fmt.Errorf("vaultID and %s cannot be empty for share lookup", field)
	}

	iter := r.client.Collection(sharesCollection).
		Where("vaultId", "==", vaultID).
		Where(field, "==", value).
		OrderBy("createdAt", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, ErrNotFound
	}
	if err != nil {
		if isOpaqueReadError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up share for vault '%s': %w", vaultID, err)
	}

	var share models.Share
	if err := doc.DataTo(&share); err != nil {
		return nil, fmt.Errorf("failed to decode share data for ID '%s': %w", doc.Ref.ID, err)
	}
	share.ID = doc.Ref.ID
	return &share, nil
}
