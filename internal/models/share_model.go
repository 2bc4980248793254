package models

import "time"

// Share roles.
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleOwner  = "owner" // derived only, never stored on a share
)

// Share is an explicit grant of a role on a vault to a specific grantee.
// The grantee is identified by UserID when the account is known, or by Email
// alone when the grant was issued before the grantee signed up.
type Share struct {
	ID        string    `json:"id" firestore:"-"`
	VaultID   string    `json:"vaultId" firestore:"vaultId"`
	UserID    string    `json:"userId,omitempty" firestore:"userId,omitempty"`
	Email     string    `json:"email,omitempty" firestore:"email,omitempty"`
	GrantedBy string    `json:"grantedBy" firestore:"grantedBy"`
	Role      string    `json:"role" firestore:"role"` // "viewer" or "editor"
	// DisplayName is denormalized from the grantee's profile at write time for
	// fast rendering. It is not re-synced when the profile changes.
	DisplayName string    `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}

// IsValidShareRole reports whether role can be stored on a share.
func IsValidShareRole(role string) bool {
	return role == RoleViewer || role == RoleEditor
}
