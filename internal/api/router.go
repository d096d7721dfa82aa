// Package api is the JSON request layer. It authenticates callers, decodes
// requests and maps service errors to HTTP statuses; every rule lives in
// the service package.
package api

import (
	"log/slog"
	"time"

	"github.com/Spok95/labsched/internal/auth"
	"github.com/Spok95/labsched/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Materials *service.Materials
	Bookings  *service.Bookings
	Lifecycle *service.Lifecycle
	Undo      *service.Undo
	Kits      *service.Kits
	Users     *service.Users
	Labs      *service.Labs
}

type Options struct {
	CORSOrigins []string
	Location    *time.Location // timestamps in exports
}

type handler struct {
	svc    Services
	tokens *auth.Tokens
	log    *slog.Logger
	loc    *time.Location
}

func NewRouter(svc Services, tokens *auth.Tokens, log *slog.Logger, opts Options) *gin.Engine {
	h := &handler{svc: svc, tokens: tokens, log: log, loc: opts.Location}
	if h.loc == nil {
		h.loc = time.UTC
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(log))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  opts.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader},
			ExposeHeaders: []string{"Content-Length", "Content-Disposition", requestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	api := r.Group("/api")
	api.POST("/login", h.login)

	p := api.Group("", h.authenticate)
	p.POST("/password/reset", h.resetPassword)

	p.GET("/labs", h.listLabs)
	p.POST("/labs", h.createLab)

	p.GET("/materials", h.listMaterials)
	p.POST("/materials", h.createMaterial)
	p.POST("/materials/:id/adjust", h.adjustMaterial)
	p.DELETE("/materials/:id", h.deleteMaterial)
	p.GET("/materials/:id/history", h.materialHistory)

	p.POST("/stock/undo", h.undo)
	p.GET("/stock/export.xlsx", h.exportStock)
	p.GET("/stock/log.xlsx", h.exportLog)

	p.GET("/kits", h.listKits)
	p.POST("/kits", h.createKit)
	p.PUT("/kits/:id", h.updateKit)
	p.DELETE("/kits/:id", h.deleteKit)

	p.GET("/bookings", h.listAllBookings)
	p.POST("/bookings", h.createBooking)
	p.GET("/bookings/mine", h.listOwnBookings)
	p.GET("/bookings/pending", h.listPendingBookings)
	p.GET("/bookings/history", h.listBookingHistory)
	p.GET("/bookings/:id", h.getBooking)
	p.PUT("/bookings/:id/status", h.setBookingStatus)
	p.PUT("/bookings/:id/cancel", h.cancelBooking)
	p.PUT("/bookings/:id/complete", h.completeBooking)

	p.GET("/users", h.listUsers)
	p.POST("/users", h.createUser)
	p.DELETE("/users/:id", h.deleteUser)

	return r
}
