package models

import "time"

// Visibility tiers for a vault.
const (
	VisibilityPublic    = "public"    // anyone may view, including anonymous callers
	VisibilityProtected = "protected" // discoverable, access must be requested
	VisibilityPrivate   = "private"   // invite-only
)

// Vault represents a named collection of publications.
type Vault struct {
	ID            string    `json:"id" firestore:"-"`            // Document ID, auto-generated
	OwnerID       string    `json:"ownerId" firestore:"ownerId"` // Firebase Auth UID of the owner
	Name          string    `json:"name" firestore:"name"`
	Description   string    `json:"description,omitempty" firestore:"description,omitempty"`
	Color         string    `json:"color,omitempty" firestore:"color,omitempty"`
	Visibility    string    `json:"visibility" firestore:"visibility"` // "public", "protected" or "private"
	ViewCount     int64     `json:"viewCount" firestore:"viewCount"`
	DownloadCount int64     `json:"downloadCount" firestore:"downloadCount"`
	CreatedAt     time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt     time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// IsValidVisibility reports whether v is one of the known visibility tiers.
func IsValidVisibility(v string) bool {
	return v == VisibilityPublic || v == VisibilityProtected || v == VisibilityPrivate
}

// VaultPublication links a publication into a vault. It lives in its own
// collection with looser read visibility than the vault record itself, which
// is what makes it usable as an existence oracle for hidden vaults.
type VaultPublication struct {
	ID            string    `json:"id" firestore:"-"`
	VaultID       string    `json:"vaultId" firestore:"vaultId"`
	PublicationID string    `json:"publicationId" firestore:"publicationId"`
	AddedBy       string    `json:"addedBy,omitempty" firestore:"addedBy,omitempty"`
	CreatedAt     time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}
