package access

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Gin context keys. CtxUserID is set by the auth middleware; the
// middleware below sets CtxResolution for downstream handlers.
const (
	CtxUserID     = "user_id"
	CtxResolution = "access_resolution"
)

// GetResolution returns the resolution stored by RequireCompany or
// RequireOwner. Zero value if neither ran.
func GetResolution(c *gin.Context) Resolution {
	v, ok := c.Get(CtxResolution)
	if !ok {
		return Resolution{Kind: KindUnauthenticated}
	}
	res, ok := v.(Resolution)
	if !ok {
		return Resolution{Kind: KindUnauthenticated}
	}
	return res
}

// RequireCompany authorizes the request for the company named by the
// given path parameter. 401 for no identity, 403 for no membership.
func RequireCompany(r *Resolver, param string) gin.HandlerFunc {
	return RequireCompanyFrom(r, func(c *gin.Context) string {
		return c.Param(param)
	})
}

// RequireCompanyFrom is RequireCompany with the company id supplied by
// a function, for routes where it comes from the API key rather than
// the path.
func RequireCompanyFrom(r *Resolver, from func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := r.Resolve(c.Request.Context(), c.GetString(CtxUserID), from(c))
		if !res.OK() {
			abortWith(c, res)
			return
		}
		c.Set(CtxResolution, res)
		c.Next()
	}
}

// RequireOwner authorizes platform-wide operations. Only the global
// owner role passes.
func RequireOwner(r *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := r.Resolve(c.Request.Context(), c.GetString(CtxUserID), "")
		if !res.Owner() {
			abortWith(c, res)
			return
		}
		c.Set(CtxResolution, res)
		c.Next()
	}
}

func abortWith(c *gin.Context, res Resolution) {
	if res.Kind == KindUnauthenticated {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthenticated",
			"message": "authentication required",
		})
		return
	}
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error":   "forbidden",
		"message": "not authorized for this company",
	})
}
