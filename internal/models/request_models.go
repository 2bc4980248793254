package models

// CreateVaultRequest is the request body for creating a new vault.
type CreateVaultRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Visibility  string `json:"visibility" binding:"required"`
}

// UpdateVaultRequest is the request body for updating vault settings.
// Pointers distinguish empty values from fields not provided.
type UpdateVaultRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Visibility  *string `json:"visibility"`
}

// ShareVaultRequest is the request body for granting access to a vault.
// Exactly one of UserID or Email must be provided.
type ShareVaultRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role" binding:"required"` // "viewer" or "editor"
}

// UpdateShareRequest is the request body for changing a share's role.
type UpdateShareRequest struct {
	Role string `json:"role" binding:"required"`
}

// CreateAccessRequestRequest is the request body for requesting access to a
// protected vault.
type CreateAccessRequestRequest struct {
	Note string `json:"note"`
}

// SetRequestStatusRequest is the request body for approving or rejecting an
// access request.
type SetRequestStatusRequest struct {
	Status string `json:"status" binding:"required"` // "approved" or "rejected"
}
