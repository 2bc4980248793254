package models

import "time"

// AccessRequest statuses.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// AccessRequest is an ask for access to a protected vault. One active
// (pending or approved) request per (vault, requester) is the intended
// invariant, but it is not enforced by a uniqueness constraint, so readers
// must tolerate duplicates.
type AccessRequest struct {
	ID      string `json:"id" firestore:"-"`
	VaultID string `json:"vaultId" firestore:"vaultId"`
	UserID  string `json:"userId" firestore:"userId"`
	// Name and Email are denormalized from the requester's profile at creation
	// time so the owner's approval UI can render without extra lookups.
	Name      string    `json:"name,omitempty" firestore:"name,omitempty"`
	Email     string    `json:"email,omitempty" firestore:"email,omitempty"`
	Note      string    `json:"note,omitempty" firestore:"note,omitempty"`
	Status    string    `json:"status" firestore:"status"` // "pending", "approved" or "rejected"
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// IsValidRequestStatus reports whether s is a known request status.
func IsValidRequestStatus(s string) bool {
	return s == RequestPending || s == RequestApproved || s == RequestRejected
}
