package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"refvault-backend-go/internal/models"
)

func TestDecideAccess(t *testing.T) {
	tests := []struct {
		name  string
		input PolicyInput
		want  models.AccessDecision
	}{
		{
			name:  "owner on private vault",
			input: PolicyInput{IsOwner: true, Visibility: models.VisibilityPrivate},
			want: models.AccessDecision{
				CanView: true, CanEdit: true, IsOwner: true,
				Role: models.RoleOwner, Status: models.StatusGranted,
			},
		},
		{
			name: "owner outranks a viewer share on their own vault",
			input: PolicyInput{
				IsOwner:    true,
				ShareRole:  models.RoleViewer,
				Visibility: models.VisibilityPrivate,
			},
			want: models.AccessDecision{
				CanView: true, CanEdit: true, IsOwner: true,
				Role: models.RoleOwner, Status: models.StatusGranted,
			},
		},
		{
			name:  "anonymous on public vault",
			input: PolicyInput{Anonymous: true, Visibility: models.VisibilityPublic},
			want: models.AccessDecision{
				CanView: true, Role: models.RoleViewer, Status: models.StatusGranted,
			},
		},
		{
			name:  "anonymous on protected vault is denied, not requestable",
			input: PolicyInput{Anonymous: true, Visibility: models.VisibilityProtected},
			want:  models.AccessDecision{Status: models.StatusDenied},
		},
		{
			name:  "anonymous on private vault",
			input: PolicyInput{Anonymous: true, Visibility: models.VisibilityPrivate},
			want:  models.AccessDecision{Status: models.StatusDenied},
		},
		{
			name:  "viewer share on private vault",
			input: PolicyInput{ShareRole: models.RoleViewer, Visibility: models.VisibilityPrivate},
			want: models.AccessDecision{
				CanView: true, Role: models.RoleViewer, Status: models.StatusGranted,
			},
		},
		{
			name:  "editor share grants edit",
			input: PolicyInput{ShareRole: models.RoleEditor, Visibility: models.VisibilityPrivate},
			want: models.AccessDecision{
				CanView: true, CanEdit: true, Role: models.RoleEditor, Status: models.StatusGranted,
			},
		},
		{
			name: "share outranks a pending request",
			input: PolicyInput{
				ShareRole:     models.RoleViewer,
				RequestStatus: models.RequestPending,
				Visibility:    models.VisibilityPrivate,
			},
			want: models.AccessDecision{
				CanView: true, Role: models.RoleViewer, Status: models.StatusGranted,
			},
		},
		{
			name:  "pending request blocks",
			input: PolicyInput{RequestStatus: models.RequestPending, Visibility: models.VisibilityProtected},
			want:  models.AccessDecision{Status: models.StatusPending},
		},
		{
			name:  "approved request grants viewer even on a private vault",
			input: PolicyInput{RequestStatus: models.RequestApproved, Visibility: models.VisibilityPrivate},
			want: models.AccessDecision{
				CanView: true, Role: models.RoleViewer, Status: models.StatusGranted,
			},
		},
		{
			name:  "identified caller on public vault",
			input: PolicyInput{Visibility: models.VisibilityPublic},
			want: models.AccessDecision{
				CanView: true, Role: models.RoleViewer, Status: models.StatusGranted,
			},
		},
		{
			name:  "identified caller on protected vault may request",
			input: PolicyInput{Visibility: models.VisibilityProtected},
			want:  models.AccessDecision{Status: models.StatusRequestable},
		},
		{
			name:  "identified caller on private vault",
			input: PolicyInput{Visibility: models.VisibilityPrivate},
			want:  models.AccessDecision{Status: models.StatusDenied},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecideAccess(tt.input)
			assert.Equal(t, tt.want, got)

			// Structural invariants, independent of the expected value.
			if got.CanEdit {
				assert.True(t, got.CanView, "CanEdit implies CanView")
			}
			if got.IsOwner {
				assert.True(t, got.CanView && got.CanEdit, "IsOwner implies full access")
			}
			assert.Equal(t, got.CanView, got.Status == models.StatusGranted,
				"granted status must coincide with CanView")
		})
	}
}
