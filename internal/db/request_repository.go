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

const requestsCollection = "access_requests"

// firestoreRequestRepository implements the RequestRepository interface using
// Firestore.
type firestoreRequestRepository struct {
	client *firestore.Client
}

// NewFirestoreRequestRepository creates a new instance of
// firestoreRequestRepository.
func NewFirestoreRequestRepository(client *firestore.Client) RequestRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for RequestRepository.")
	}
	return &firestoreRequestRepository{client: client}
}

// Create adds a new access request document with an auto-generated ID.
func (r *firestoreRequestRepository) Create(ctx context.Context, req *models.AccessRequest) (string, error) {
	docRef := r.client.Collection(requestsCollection).NewDoc()
	req.ID = docRef.ID

	_, err := docRef.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create access request: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves an access request document by its ID.
func (r *firestoreRequestRepository) GetByID(ctx context.Context, requestID string) (*models.AccessRequest, error) {
	if requestID == "" {
		return nil, errors.New("requestID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(requestsCollection).Doc(requestID).Get(ctx)
	if err != nil {
		if isOpaqueReadError(err) {
			return nil, fmt.Errorf("access request '%s': %w", requestID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get access request '%s': %w", requestID, err)
	}

	var req models.AccessRequest
	if err := docSnap.DataTo(&req); err != nil {
		return nil, fmt.Errorf("failed to decode access request data for ID '%s': %w", requestID, err)
	}
	req.ID = docSnap.Ref.ID
	return &req, nil
}

// Update overwrites an existing access request document.
func (r *firestoreRequestRepository) Update(ctx context.Context, req *models.AccessRequest) error {
	if req.ID == "" {
		return errors.New("request ID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(requestsCollection).Doc(req.ID).Set(ctx, req, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update access request '%s': %w", req.ID, err)
	}
	return nil
}

// ListByVault retrieves access requests for a vault, optionally filtered to
// the given statuses, newest first.
func (r *firestoreRequestRepository) ListByVault(ctx context.Context, vaultID string, statuses []string) ([]*models.AccessRequest, error) {
	if vaultID == "" {
		return nil, errors.New("vaultID cannot be empty for ListByVault operation")
	}

	query := r.client.Collection(requestsCollection).Where("vaultId", "==", vaultID)
	if len(statuses) > 0 {
		query = query.Where("status", "in", statuses)
	}
	iter := query.OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var requests []*models.AccessRequest
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate access requests for vault '%s': %w", vaultID, err)
		}

		var req models.AccessRequest
		if err := doc.DataTo(&req); err != nil {
			log.Printf("Error decoding access request data (ID: %s) for vault '%s': %v. Skipping.", doc.Ref.ID, vaultID, err)
			continue
		}
		req.ID = doc.Ref.ID
		requests = append(requests, &req)
	}
	return requests, nil
}

// FindActiveByVaultAndUser returns the newest pending or approved request for
// (vault, user), or ErrNotFound. Rejected requests are terminal and ignored.
func (r *firestoreRequestRepository) FindActiveByVaultAndUser(ctx context.Context, vaultID, userID string) (*models.AccessRequest, error) {
	if vaultID == "" || userID == "" {
		return nil, errors.New("vaultID and userID cannot be empty for request lookup")
	}

	iter := r.client.Collection(requestsCollection).
		Where("vaultId", "==", vaultID).
		Where("userId", "==", userID).
		Where("status", "in", []string{models.RequestPending, models.RequestApproved}).
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
		return nil, fmt.Errorf("failed to look up access request for vault '%s': %w", vaultID, err)
	}

	var req models.AccessRequest
	if err := doc.DataTo(&req); err != nil {
		return nil, fmt.Errorf("failed to decode access request data for ID '%s': %w", doc.Ref.ID, err)
	}
	req.ID = doc.Ref.ID
	return &req, nil
}

// ExistsByVault reports whether any access request references the vault.
func (r *firestoreRequestRepository) ExistsByVault(ctx context.Context, vaultID string) (bool, error) {
	if vaultID == "" {
		return false, errors.New("vaultID cannot be empty for ExistsByVault operation")
	}

	iter := r.client.Collection(requestsCollection).
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
		return false, fmt.Errorf("failed to probe access requests for vault '%s': %w", vaultID, err)
	}
	return true, nil
}

// DeleteByVaultAndUser removes all requests for (vault, user). Used when a
// share is revoked so the two registries do not disagree about the grantee.
func (r *firestoreRequestRepository) DeleteByVaultAndUser(ctx context.Context, vaultID, userID string) error {
	if vaultID == "" || userID == "" {
		return errors.New("vaultID and userID cannot be empty for DeleteByVaultAndUser operation")
	}

	iter := r.client.Collection(requestsCollection).
		Where("vaultId", "==", vaultID).
		Where("userId", "==", userID).
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to iterate access requests for deletion (vault '%s'): %w", vaultID, err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("failed to delete access request '%s': %w", doc.Ref.ID, err)
		}
	}
	return nil
}
