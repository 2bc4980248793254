package core

import (
	"context"

	"go.uber.org/zap"
)

// ProbeSource is one subordinate collection consulted by the existence probe.
// Exists must report whether any record scoped to the vault is visible.
type ProbeSource struct {
	Name   string
	Exists func(ctx context.Context, vaultID string) (bool, error)
}

// ExistenceProbe determines whether a vault identifier refers to a real
// resource when the direct read was opaque. It consults subordinate
// collections that carry more permissive read visibility than the vault
// record; a hit in any of them proves the vault exists.
type ExistenceProbe struct {
	sources []ProbeSource
	logger  *zap.Logger
}

// NewExistenceProbe creates a probe over the given sources, consulted in
// order.
func NewExistenceProbe(logger *zap.Logger, sources ...ProbeSource) *ExistenceProbe {
	return &ExistenceProbe{sources: sources, logger: logger}
}

// Exists reports whether any source has a record scoped to the vault. A
// source error counts as "no hit": the probe must never claim existence it
// cannot prove, and a failing source must not leak as a distinguishable
// error to the caller.
func (p *ExistenceProbe) Exists(ctx context.Context, vaultID string) bool {
	for _, src := range p.sources {
		hit, err := src.Exists(ctx, vaultID)
		if err != nil {
			p.logger.Warn("Existence probe source failed",
				zap.String("source", src.Name),
				zap.String("vault_id", vaultID),
				zap.Error(err),
			)
			continue
		}
		if hit {
			return true
		}
	}
	return false
}
