package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/comercia/internal/idempotency"
	obscontext "github.com/smallbiznis/comercia/internal/observability/context"
	obslogger "github.com/smallbiznis/comercia/internal/observability/logger"
	"github.com/smallbiznis/comercia/internal/orgcontext"
	"go.uber.org/zap"
)

const (
	HeaderOrg            = "X-Org-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// OrgContext resolves the organization from the X-Org-ID header, falling
// back to the configured default for single-store deployments. Every
// downstream query filters by this id again; the middleware only decides
// which org the request claims to act for.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := snowflake.ID(s.cfg.DefaultOrgID)
		if raw := strings.TrimSpace(c.GetHeader(HeaderOrg)); raw != "" {
			parsed, err := snowflake.ParseString(raw)
			if err != nil {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			orgID = parsed
		}
		if orgID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), orgID)
		ctx = obscontext.WithOrgID(ctx, orgID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// IdempotencyGuard rejects a duplicate submission carrying the same
// Idempotency-Key while the first one is fresh. Requests without the header
// pass through untouched; so does everything when redis is not configured.
func (s *Server) IdempotencyGuard(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if key == "" || s.idemGuard == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		orgID, _ := orgcontext.OrgIDFromContext(ctx)
		token, ok, err := s.idemGuard.Claim(ctx, orgID.String(), scope+":"+key, idempotency.DefaultTTL)
		if err != nil {
			obslogger.FromContext(ctx).Warn("idempotency claim failed, allowing request", zap.Error(err))
		}
		if !ok {
			AbortWithError(c, ErrConflict)
			return
		}

		c.Next()

		// A failed request releases the claim so the client can retry with
		// the same key right away.
		if len(c.Errors) > 0 {
			if err := s.idemGuard.Release(ctx, orgID.String(), scope+":"+key, token); err != nil {
				obslogger.FromContext(ctx).Warn("idempotency release failed", zap.Error(err))
			}
		}
	}
}
