package entitlement

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CtxDecision is the gin context key the middleware stores its
// Decision under.
const CtxDecision = "entitlementDecision"

// Middleware enforces entitlement for company-scoped routes. companyID
// extracts the target company from the request; requests for
// non-entitled companies get 402 Payment Required.
func Middleware(gate *Gate, companyID func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := companyID(c)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_input",
				"message": "company id required",
			})
			return
		}

		decision := gate.Evaluate(c.Request.Context(), id)
		if !decision.Allowed {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error":   "payment_required",
				"message": "An active subscription or trial is required.",
				"reason":  decision.Reason,
			})
			return
		}

		c.Set(CtxDecision, decision)
		c.Next()
	}
}

// GetDecision returns the Decision stored by Middleware. The bool is
// false if the middleware did not run.
func GetDecision(c *gin.Context) (Decision, bool) {
	v, ok := c.Get(CtxDecision)
	if !ok {
		return Decision{}, false
	}
	d, ok := v.(Decision)
	return d, ok
}
