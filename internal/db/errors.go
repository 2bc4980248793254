package db

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrNotFound is returned by read operations when no row is visible to the
// caller. The backing store enforces row-level policy on reads, so a document
// that exists but is hidden from the caller and a document that does not
// exist at all both surface as ErrNotFound. Callers that need to tell the two
// apart must consult subordinate collections (see core.ExistenceProbe).
var ErrNotFound = errors.New("record not found")

// isOpaqueReadError reports whether err is one of the status codes the store
// returns for an unreadable row. PermissionDenied is deliberately folded in
// with NotFound; write paths do not use this helper, policy failures on
// writes stay distinguishable.
func isOpaqueReadError(err error) bool {
	code := status.Code(err)
	return code == codes.NotFound || code == codes.PermissionDenied
}
