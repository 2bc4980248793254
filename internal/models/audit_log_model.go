package models

import "time"

// AuditLog represents an audit trail event.
type AuditLog struct {
	ID         string                 `json:"id" firestore:"-"`
	Timestamp  time.Time              `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	UserID     string                 `json:"userId" firestore:"userId"`                             // Who performed the action
	Action     string                 `json:"action" firestore:"action"`                             // e.g. "VAULT_SHARE", "REQUEST_APPROVE"
	TargetType string                 `json:"targetType,omitempty" firestore:"targetType,omitempty"` // e.g. "VAULT", "SHARE", "ACCESS_REQUEST"
	TargetID   string                 `json:"targetId,omitempty" firestore:"targetId,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty"`
}
