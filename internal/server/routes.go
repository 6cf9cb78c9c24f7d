package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pitchdesk/pitchdesk/internal/access"
	"github.com/pitchdesk/pitchdesk/internal/admin"
	"github.com/pitchdesk/pitchdesk/internal/apikey"
	"github.com/pitchdesk/pitchdesk/internal/billing"
	"github.com/pitchdesk/pitchdesk/internal/booking"
	"github.com/pitchdesk/pitchdesk/internal/chat"
	"github.com/pitchdesk/pitchdesk/internal/company"
	"github.com/pitchdesk/pitchdesk/internal/conversation"
	"github.com/pitchdesk/pitchdesk/internal/knowledge"
	"github.com/pitchdesk/pitchdesk/internal/lead"
	"github.com/pitchdesk/pitchdesk/internal/logging"
	"github.com/pitchdesk/pitchdesk/internal/membership"
	"github.com/pitchdesk/pitchdesk/internal/metrics"
	"github.com/pitchdesk/pitchdesk/internal/webhooks"
)

func (s *Server) setupRoutes() {
	// Health and metrics
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())
	s.router.GET("/api", s.infoHandler)

	companyHandler := company.NewHandler(s.companies, s.keys, s.members, s.subs)
	keyHandler := apikey.NewHandler(s.keys)
	chatHandler := chat.NewHandler(s.chatSvc, s.convs)
	convHandler := conversation.NewHandler(s.convs)
	knowledgeHandler := knowledge.NewHandler(s.chunks, s.subStore, s.plans)
	leadHandler := lead.NewHandler(s.leads)
	memberHandler := membership.NewHandler(s.members, s.subStore, s.plans)
	webhookHandler := webhooks.NewHandler(s.webhookStore, s.dispatcher)
	bookingHandler := booking.NewHandler(s.companies, s.gate, booking.NewMemoryScheduler())
	adminHandler := admin.NewHandler(s.companies, s.subs, s.hub, s.dispatcher)

	v1 := s.router.Group("/v1")

	// Public: signup, pricing, invite redemption.
	v1.POST("/companies", companyHandler.Register)
	v1.GET("/plans", s.listPlansHandler)
	v1.POST("/invites/accept", memberHandler.AcceptInvite)

	// Public widget surface, authenticated by the widget key.
	// Each tenant can pin the origins its widget may be embedded on.
	widget := v1.Group("/widget")
	widget.Use(apikey.WidgetAuth(s.keys), s.widgetOriginMiddleware())
	{
		widget.GET("/config", s.widgetConfigHandler)
		widget.POST("/chat", chatHandler.SendMessage)
		widget.GET("/conversations/:id/messages", chatHandler.ListMessages)
	}

	// Public scheduling surface, resolved by the company booking key.
	bookingGroup := v1.Group("/booking/:key")
	{
		bookingGroup.GET("/capabilities", bookingHandler.Capabilities)
		bookingGroup.GET("/slots", bookingHandler.ListSlots)
		bookingGroup.POST("/hold", bookingHandler.HoldSlot)
		bookingGroup.POST("/book", bookingHandler.BookSlot)
	}

	// Stripe sends subscription lifecycle events here.
	if s.billing != nil {
		billingWebhook := billing.NewHandler(s.billing)
		s.router.POST("/webhooks/stripe", billingWebhook.Webhook)
	}

	// Dashboard: everything below requires a secret key.
	dash := v1.Group("")
	dash.Use(apikey.Middleware(s.keys), apikey.RequireAuth())
	{
		dash.GET("/company", companyHandler.GetCompany(apikey.AuthCompanyID))
		dash.PATCH("/company",
			access.RequireCompanyFrom(s.resolver, apikey.AuthCompanyID),
			companyHandler.UpdateSettings(apikey.AuthCompanyID))
		dash.POST("/company/trial",
			access.RequireCompanyFrom(s.resolver, apikey.AuthCompanyID),
			companyHandler.StartTrial(apikey.AuthCompanyID))

		dash.GET("/entitlement", s.entitlementHandler)

		dash.GET("/keys", keyHandler.ListKeys)
		dash.POST("/keys", keyHandler.CreateKey)
		dash.DELETE("/keys/:keyId", keyHandler.RevokeKey)
		dash.POST("/keys/:keyId/rotate", keyHandler.RotateKey)

		dash.POST("/knowledge", knowledgeHandler.CreateChunk)
		dash.GET("/knowledge", knowledgeHandler.ListChunks)
		dash.GET("/knowledge/:id", knowledgeHandler.GetChunk)
		dash.PATCH("/knowledge/:id", knowledgeHandler.UpdateChunk)
		dash.DELETE("/knowledge/:id", knowledgeHandler.DeleteChunk)

		dash.GET("/conversations", convHandler.ListConversations)
		dash.GET("/conversations/:id", convHandler.GetConversation)
		dash.GET("/conversations/:id/messages", convHandler.ListMessages)

		dash.GET("/leads", leadHandler.ListLeads)
		dash.GET("/leads/:id", leadHandler.GetLead)
		dash.PATCH("/leads/:id", leadHandler.UpdateLead)

		dash.GET("/members", memberHandler.ListMembers)
		dash.POST("/members/invites", memberHandler.CreateInvite)
		dash.DELETE("/members/:userId", memberHandler.RemoveMember)

		dash.POST("/webhooks", webhookHandler.CreateEndpoint)
		dash.GET("/webhooks", webhookHandler.ListEndpoints)
		dash.DELETE("/webhooks/:id", webhookHandler.DeleteEndpoint)
		dash.POST("/webhooks/:id/test", webhookHandler.TestEndpoint)

		if s.billing != nil {
			billingHandler := billing.NewHandler(s.billing)
			dash.POST("/billing/checkout", billingHandler.CreateCheckout)
			dash.POST("/billing/portal", billingHandler.CreatePortal)
		}

		// Live dashboard feed
		dash.GET("/stream", func(c *gin.Context) {
			s.hub.HandleWebSocket(c.Writer, c.Request, apikey.AuthCompanyID(c))
		})
	}

	// Admin surface for the platform owner; the sweep also accepts the
	// scheduler's shared secret.
	adminGroup := v1.Group("/admin")
	adminGroup.Use(apikey.Middleware(s.keys))
	owner := access.RequireOwner(s.resolver)
	{
		adminGroup.GET("/companies", owner, adminHandler.ListCompanies)
		adminGroup.POST("/companies/:id/suspend", owner, adminHandler.SuspendCompany)
		adminGroup.POST("/companies/:id/reinstate", owner, adminHandler.ReinstateCompany)
		adminGroup.POST("/sweep", admin.SweepAuth(s.resolver, s.cfg.SweepSecret), adminHandler.RunSweep)
		adminGroup.GET("/realtime", owner, adminHandler.RealtimeStats)
	}
}

// -----------------------------------------------------------------------------
// Inline handlers
// -----------------------------------------------------------------------------

func (s *Server) infoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "PitchDesk",
		"description": "Embeddable sales-chat widget backend",
		"version":     "0.1.0",
	})
}

func (s *Server) healthHandler(c *gin.Context) {
	healthy, statuses := s.checks.CheckAll(c.Request.Context())

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"version":   "0.1.0",
		"checks":    statuses,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// listPlansHandler returns the public pricing catalogue.
func (s *Server) listPlansHandler(c *gin.Context) {
	plans, err := s.plans.List(c.Request.Context())
	if err != nil {
		logging.L(c.Request.Context()).Error("plan list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "dependency_failure",
			"message": "Plan catalogue is unavailable.",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

// widgetConfigHandler returns what the embedded widget needs to render
// itself: branding, greeting, and the booking key when scheduling is
// available.
func (s *Server) widgetConfigHandler(c *gin.Context) {
	companyID := apikey.WidgetCompanyID(c)

	comp, err := s.companies.Get(c.Request.Context(), companyID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Company not found.",
		})
		return
	}

	caps := s.gate.BookingCapabilities(c.Request.Context(), companyID)
	resp := gin.H{
		"companyName": comp.Name,
		"brandColor":  comp.Settings.BrandColor,
		"greeting":    comp.Settings.WidgetGreeting,
		"language":    comp.Settings.Funnel.Language,
	}
	if caps.CanBook {
		resp["bookingKey"] = comp.Settings.PublicBookingKey
	}
	c.JSON(http.StatusOK, resp)
}

// entitlementHandler reports the caller's current entitlement decision.
func (s *Server) entitlementHandler(c *gin.Context) {
	decision := s.gate.Evaluate(c.Request.Context(), apikey.AuthCompanyID(c))
	c.JSON(http.StatusOK, decision)
}

// widgetOriginMiddleware rejects widget calls from origins the tenant
// has not allow-listed. An empty allow-list admits every origin.
func (s *Server) widgetOriginMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		comp, err := s.companies.Get(c.Request.Context(), apikey.WidgetCompanyID(c))
		if err != nil || len(comp.Settings.AllowedOrigins) == 0 {
			c.Next()
			return
		}
		for _, allowed := range comp.Settings.AllowedOrigins {
			if allowed == origin {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "This origin is not allowed to embed the widget.",
		})
	}
}
