package db

import (
	"context"
	"errors"
	"log"

	"cloud.google.com/go/firestore"
)

// firestoreChangeFeed implements the ChangeFeed interface on top of Firestore
// snapshot listeners. Each subscription runs its own listener goroutine;
// Unsubscribe cancels it.
type firestoreChangeFeed struct {
	client *firestore.Client
}

// NewFirestoreChangeFeed creates a new instance of firestoreChangeFeed.
func NewFirestoreChangeFeed(client *firestore.Client) ChangeFeed {
	if client == nil {
		log.Fatal("Firestore client is not initialized for ChangeFeed.")
	}
	return &firestoreChangeFeed{client: client}
}

// feedHandle cancels the listener goroutine backing one subscription.
type feedHandle struct {
	cancel context.CancelFunc
}

func (h *feedHandle) Unsubscribe() {
	h.cancel()
}

// SubscribeVault watches the vault document itself.
func (f *firestoreChangeFeed) SubscribeVault(ctx context.Context, vaultID string, onEvent func(ChangeEvent)) (FeedHandle, error) {
	if vaultID == "" {
		return nil, errors.New("vaultID cannot be empty for SubscribeVault")
	}

	subCtx, cancel := context.WithCancel(ctx)
	docRef := f.client.Collection(vaultsCollection).Doc(vaultID)

	go func() {
		it := docRef.Snapshots(subCtx)
		defer it.Stop()

		first := true
		for {
			snap, err := it.Next()
			if err != nil {
				if subCtx.Err() == nil {
					log.Printf("ChangeFeed: vault listener for '%s' stopped: %v", vaultID, err)
				}
				return
			}
			// The listener replays current state on attach; only subsequent
			// deliveries are mutations.
			if first {
				first = false
				continue
			}
			kind := ChangeModified
			if !snap.Exists() {
				kind = ChangeRemoved
			}
			onEvent(ChangeEvent{Collection: vaultsCollection, DocID: vaultID, Kind: kind})
		}
	}()

	return &feedHandle{cancel: cancel}, nil
}

// SubscribeShares watches all shares scoped to the vault.
func (f *firestoreChangeFeed) SubscribeShares(ctx context.Context, vaultID string, onEvent func(ChangeEvent)) (FeedHandle, error) {
	return f.subscribeQuery(ctx, sharesCollection, vaultID, onEvent)
}

// SubscribeRequests watches all access requests scoped to the vault.
func (f *firestoreChangeFeed) SubscribeRequests(ctx context.Context, vaultID string, onEvent func(ChangeEvent)) (FeedHandle, error) {
	return f.subscribeQuery(ctx, requestsCollection, vaultID, onEvent)
}

func (f *firestoreChangeFeed) subscribeQuery(ctx context.Context, collection, vaultID string, onEvent func(ChangeEvent)) (FeedHandle, error) {
	if vaultID == "" {
		return nil, errors.New("vaultID cannot be empty for change feed subscription")
	}

	subCtx, cancel := context.WithCancel(ctx)
	query := f.client.Collection(collection).Where("vaultId", "==", vaultID)

	go func() {
		it := query.Snapshots(subCtx)
		defer it.Stop()

		first := true
		for {
			qs, err := it.Next()
			if err != nil {
				if subCtx.Err() == nil {
					log.Printf("ChangeFeed: %s listener for vault '%s' stopped: %v", collection, vaultID, err)
				}
				return
			}
			// The first query snapshot replays every existing document as an
			// "added" change; skip it so attaching is not itself an event.
			if first {
				first = false
				continue
			}
			for _, change := range qs.Changes {
				kind := ChangeModified
				switch change.Kind {
				case firestore.DocumentAdded:
					kind = ChangeAdded
				case firestore.DocumentRemoved:
					kind = ChangeRemoved
				}
				onEvent(ChangeEvent{Collection: collection, DocID: change.Doc.Ref.ID, Kind: kind})
			}
		}
	}()

	return &feedHandle{cancel: cancel}, nil
}
