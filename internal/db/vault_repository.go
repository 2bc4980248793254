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

const vaultsCollection = "vaults"

// firestoreVaultRepository implements the VaultRepository interface using
// Firestore.
type firestoreVaultRepository struct {
	client *firestore.Client
}

// NewFirestoreVaultRepository creates a new instance of
// firestoreVaultRepository.
func NewFirestoreVaultRepository(client *firestore.Client) VaultRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for VaultRepository.")
	}
	return &firestoreVaultRepository{client: client}
}

// Create adds a new vault document with an auto-generated ID. It sets
// vault.ID with the new document ID before creation. CreatedAt and UpdatedAt
// are handled by serverTimestamp tags.
func (r *firestoreVaultRepository) Create(ctx context.Context, vault *models.Vault) (string, error) {
	docRef := r.client.Collection(vaultsCollection).NewDoc()
	vault.ID = docRef.ID

	_, err := docRef.Create(ctx, vault)
	if err != nil {
		return "", fmt.Errorf("failed to create vault: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a vault document by its ID. A vault the caller may not
// read and a vault that does not exist both come back as ErrNotFound; the
// two cases are indistinguishable at this layer.
func (r *firestoreVaultRepository) GetByID(ctx context.Context, vaultID string) (*models.Vault, error) {
	if vaultID == "" {
		return nil, errors.New("vaultID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(vaultsCollection).Doc(vaultID).Get(ctx)
	if err != nil {
		if isOpaqueReadError(err) {
			return nil, fmt.Errorf("vault '%s': %w", vaultID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get vault '%s': %w", vaultID, err)
	}

	var vault models.Vault
	if err := docSnap.DataTo(&vault); err != nil {
		return nil, fmt.Errorf("failed to decode vault data for ID '%s': %w", vaultID, err)
	}
	vault.ID = docSnap.Ref.ID

	return &vault, nil
}

// GetByOwnerID retrieves all vaults owned by a specific user, newest first.
func (r *firestoreVaultRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*models.Vault, error) {
	if ownerID == "" {
		return nil, errors.New("ownerID cannot be empty for GetByOwnerID operation")
	}

	iter := r.client.Collection(vaultsCollection).
		Where("ownerId", "==", ownerID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var vaults []*models.Vault
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate vaults for owner '%s': %w", ownerID, err)
		}

		var vault models.Vault
		if err := doc.DataTo(&vault); err != nil {
			log.Printf("Error decoding vault data (ID: %s) for owner '%s': %v. Skipping.", doc.Ref.ID, ownerID, err)
			continue
		}
		vault.ID = doc.Ref.ID
		vaults = append(vaults, &vault)
	}

	return vaults, nil
}

// Update modifies an existing vault document. Set with MergeAll allows
// partial updates; UpdatedAt is handled by serverTimestamp.
func (r *firestoreVaultRepository) Update(ctx context.Context, vault *models.Vault) error {
	if vault.ID == "" {
		return errors.New("vault ID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(vaultsCollection).Doc(vault.ID).Set(ctx, vault, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update vault '%s': %w", vault.ID, err)
	}
	return nil
}

// Delete removes a vault document. Dependent collections (shares, requests,
// publication links) are the service layer's responsibility.
func (r *firestoreVaultRepository) Delete(ctx context.Context, vaultID string) error {
	if vaultID == "" {
		return errors.New("vaultID cannot be empty for Delete operation")
	}
	_, err := r.client.Collection(vaultsCollection).Doc(vaultID).Delete(ctx)
	if err != nil {
		if isOpaqueReadError(err) {
			return fmt.Errorf("vault '%s' not found for deletion: %w", vaultID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete vault '%s': %w", vaultID, err)
	}
	return nil
}

// IncrementViewCount bumps the vault's view counter server-side.
func (r *firestoreVaultRepository) IncrementViewCount(ctx context.Context, vaultID string) error {
	return r.incrementCounter(ctx, vaultID, "viewCount")
}

// IncrementDownloadCount bumps the vault's download counter server-side.
func (r *firestoreVaultRepository) IncrementDownloadCount(ctx context.Context, vaultID string) error {
	return r.incrementCounter(ctx, vaultID, "downloadCount")
}

func (r *firestoreVaultRepository) incrementCounter(ctx context.Context, vaultID, field string) error {
	if vaultID == "" {
		return errors.New("vaultID cannot be empty for counter increment")
	}
	_, err := r.client.Collection(vaultsCollection).Doc(vaultID).Update(ctx, []firestore.Update{
		{Path: field, Value: firestore.Increment(1)},
	})
	if err != nil {
		if isOpaqueReadError(err) {
			return fmt.Errorf("vault '%s': %w", vaultID, ErrNotFound)
		}
		return fmt.Errorf("failed to increment %s for vault '%s': %w", field, vaultID, err)
	}
	return nil
}
