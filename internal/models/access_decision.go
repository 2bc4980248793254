package models

// AccessStatus is the resolver's verdict for a (vault, caller) pair.
type AccessStatus string

const (
	StatusLoading     AccessStatus = "loading"
	StatusGranted     AccessStatus = "granted"
	StatusDenied      AccessStatus = "denied"
	StatusPending     AccessStatus = "pending"
	StatusRequestable AccessStatus = "requestable"
)

// Caller identifies who is asking for access. The zero value is an anonymous
// caller.
type Caller struct {
	UserID      string `json:"userId,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// IsAnonymous reports whether the caller carries no identity.
func (c Caller) IsAnonymous() bool {
	return c.UserID == ""
}

// AccessDecision is the derived, non-persisted access verdict. Invariants:
// CanEdit implies CanView; IsOwner implies both; Status is StatusGranted
// exactly when CanView is true.
type AccessDecision struct {
	CanView bool         `json:"canView"`
	CanEdit bool         `json:"canEdit"`
	IsOwner bool         `json:"isOwner"`
	Role    string       `json:"role,omitempty"` // "owner", "editor", "viewer" or empty
	Status  AccessStatus `json:"status"`
}

// Resolution pairs an access decision with the vault record it was derived
// from. Vault may be a synthesized stub when the record exists but is hidden
// from the caller; Stub marks that case.
type Resolution struct {
	Decision AccessDecision `json:"decision"`
	Vault    *Vault         `json:"vault,omitempty"`
	Stub     bool           `json:"stub,omitempty"`
}
