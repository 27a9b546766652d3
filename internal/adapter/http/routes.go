package http

import (
	"rentadvance-backend/internal/adapter/middleware"
	"rentadvance-backend/pkg/jwt"

	"github.com/labstack/echo/v4"
)

type Routes struct {
	Health      *Handler
	Advances    *AdvanceHandler
	Admin       *AdminHandler
	Suggestions *SuggestionHandler
	// Realtime upgrades dashboard connections; nil disables /ws.
	Realtime echo.HandlerFunc
	// Idempotency guards mutating PM and admin routes; nil disables it.
	Idempotency echo.MiddlewareFunc
	JWTSecret   string
}

func (r Routes) Register(e *echo.Echo) {
	var guard []echo.MiddlewareFunc
	if r.Idempotency != nil {
		guard = append(guard, r.Idempotency)
	}

	e.GET("/health", r.Health.Health)

	if r.Suggestions != nil {
		e.POST("/advance-suggestions", r.Suggestions.Suggest, guard...)
		e.GET("/advance-suggestions/:suggestion_id", r.Suggestions.Get)
	}

	a := r.Advances
	e.POST("/advance-requests", a.CreateAdvanceRequest, guard...)
	e.POST("/advances/bulk", a.CreateBulkAdvances, guard...)
	e.GET("/advances/:advance_id", a.GetAdvance)
	e.POST("/advances/:advance_id/send", a.SendAdvance, guard...)
	e.GET("/property-managers/:pm_id/advances", a.ListByPropertyManager)
	e.GET("/properties/:property_id/advance-history", a.PropertyHistory)

	// owner links carry their own credential
	e.GET("/owner/advance-requests/:token", a.GetByToken)
	e.POST("/owner/advance-requests/:token/verification", a.RecordVerification)
	e.POST("/owner/advance-requests/:token/respond", a.Respond)

	admin := e.Group("/admin", append([]echo.MiddlewareFunc{middleware.RequireRole(r.JWTSecret, jwt.RoleAdmin)}, guard...)...)
	admin.GET("/advance-requests", r.Admin.ListRequests)
	admin.POST("/advances/:advance_id/approve", r.Admin.Approve)
	admin.POST("/advances/:advance_id/reject", r.Admin.Reject)
	admin.POST("/advances/:advance_id/utilization", r.Admin.Utilization)
	admin.POST("/advances/expire", r.Admin.Expire)

	if r.Realtime != nil {
		e.GET("/ws", r.Realtime)
	}
}
