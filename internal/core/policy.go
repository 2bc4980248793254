package core

import "refvault-backend-go/internal/models"

// PolicyInput carries the four signals the visibility policy reconciles,
// already looked up by the resolver. Empty ShareRole / RequestStatus mean no
// share / no active request.
type PolicyInput struct {
	Anonymous     bool
	IsOwner       bool
	ShareRole     string
	RequestStatus string
	Visibility    string
}

// DecideAccess maps (ownership, share, request status, visibility tier) to an
// access decision. Pure function, no I/O; evaluated top to bottom, first
// match wins.
func DecideAccess(in PolicyInput) models.AccessDecision {
	// Owner supremacy: tier, shares and requests are irrelevant.
	if in.IsOwner {
		return models.AccessDecision{
			CanView: true,
			CanEdit: true,
			IsOwner: true,
			Role:    models.RoleOwner,
			Status:  models.StatusGranted,
		}
	}

	// Anonymous callers see public vaults and nothing else. Protected and
	// private are indistinguishable here: without an identity there is nobody
	// to attach a request to, so no requestable state is offered.
	if in.Anonymous {
		if in.Visibility == models.VisibilityPublic {
			return grantedAs(models.RoleViewer)
		}
		return denied()
	}

	// Explicit share beats the visibility tier.
	if in.ShareRole != "" {
		return grantedAs(in.ShareRole)
	}

	// Active request: pending blocks, approved grants viewer. The approved
	// branch covers the window between approval and share materialization.
	switch in.RequestStatus {
	case models.RequestPending:
		return models.AccessDecision{Status: models.StatusPending}
	case models.RequestApproved:
		return grantedAs(models.RoleViewer)
	}

	// Visibility fallback.
	switch in.Visibility {
	case models.VisibilityPublic:
		return grantedAs(models.RoleViewer)
	case models.VisibilityProtected:
		return models.AccessDecision{Status: models.StatusRequestable}
	default:
		return denied()
	}
}

func grantedAs(role string) models.AccessDecision {
	return models.AccessDecision{
		CanView: true,
		CanEdit: role == models.RoleEditor,
		Role:    role,
		Status:  models.StatusGranted,
	}
}

func denied() models.AccessDecision {
	return models.AccessDecision{Status: models.StatusDenied}
}
