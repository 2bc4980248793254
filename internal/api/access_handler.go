package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"refvault-backend-go/internal/core"
	"refvault-backend-go/internal/db"
	"refvault-backend-go/internal/middleware"
	"refvault-backend-go/internal/models"
)

// AccessHandler handles the access resolution endpoints.
type AccessHandler struct {
	resolver core.AccessResolver
	feed     db.ChangeFeed
	logger   *zap.Logger
}

// NewAccessHandler creates a new AccessHandler.
func NewAccessHandler(resolver core.AccessResolver, feed db.ChangeFeed, logger *zap.Logger) *AccessHandler {
	return &AccessHandler{resolver: resolver, feed: feed, logger: logger}
}

// GetAccess handles GET /vaults/:vaultId/access. Anonymous callers are
// allowed; the decision body carries no detail beyond the decision itself.
func (h *AccessHandler) GetAccess(c *gin.Context) {
	h.resolveAndRespond(c)
}

// RefreshAccess handles POST /vaults/:vaultId/access/refresh. Identical to
// GetAccess, but POST so clients and proxies never serve it from cache; it
// exists for explicit "re-check now" actions.
func (h *AccessHandler) RefreshAccess(c *gin.Context) {
	h.resolveAndRespond(c)
}

func (h *AccessHandler) resolveAndRespond(c *gin.Context) {
	vaultID := c.Param("vaultId")
	if vaultID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Vault ID is required"})
		return
	}
	caller := middleware.CallerFromContext(c)

	res, err := h.resolver.Resolve(c.Request.Context(), vaultID, caller)
	if err != nil {
		if errors.Is(err, core.ErrVaultNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: core.ErrVaultNotFound.Error()})
			return
		}
		if errors.Is(err, core.ErrSuperseded) {
			// A newer resolution for this pair is in flight and will publish
			// its own decision shortly. Serve the last published one in the
			// meantime; only a pair that has never resolved gets no body.
			if last, ok := h.resolver.LastDecision(c.Request.Context(), vaultID, caller); ok {
				c.JSON(http.StatusOK, models.Resolution{Decision: *last})
				return
			}
			c.Status(http.StatusNoContent)
			return
		}
		mapCoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// WatchAccess handles GET /vaults/:vaultId/access/watch. It resolves once,
// then arms the change notifier and streams a fresh resolution as a
// server-sent event whenever the vault, its shares or its requests change.
// The subscriptions are torn down when the client disconnects.
func (h *AccessHandler) WatchAccess(c *gin.Context) {
	vaultID := c.Param("vaultId")
	if vaultID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Vault ID is required"})
		return
	}
	caller := middleware.CallerFromContext(c)
	ctx := c.Request.Context()

	initial, err := h.resolver.Resolve(ctx, vaultID, caller)
	if err != nil {
		if errors.Is(err, core.ErrVaultNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: core.ErrVaultNotFound.Error()})
			return
		}
		mapCoreErrorToStatus(c, err)
		return
	}

	updates := make(chan *models.Resolution, 1)
	notifier := core.NewNotifier(h.feed, h.logger, func(vid string) {
		// The recompute runs off the feed's delivery goroutine so a slow
		// resolve never stalls subsequent deliveries. Concurrent resolves for
		// the pair are safe: stale completions come back ErrSuperseded.
		go func() {
			res, err := h.resolver.Resolve(ctx, vid, caller)
			if err != nil {
				// Superseded resolutions and transport errors are dropped; the
				// next event produces a fresh decision.
				return
			}
			queueLatest(updates, res)
		}()
	})
	if err := notifier.Arm(ctx, vaultID); err != nil {
		h.logger.Warn("Failed to arm change notifier",
			zap.String("vault_id", vaultID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to watch vault access"})
		return
	}
	defer notifier.Disarm()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.SSEvent("decision", initial)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case res := <-updates:
			c.SSEvent("decision", res)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// queueLatest puts res on the 1-slot channel, evicting whatever is queued so
// the consumer always reads the newest resolution. Keeping an older one would
// leave the client on a stale decision until the next unrelated event.
func queueLatest(updates chan *models.Resolution, res *models.Resolution) {
	for {
		select {
		case updates <- res:
			return
		default:
		}
		select {
		case <-updates:
		default:
		}
	}
}
