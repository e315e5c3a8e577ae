package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the API. staticDir, when non-empty, serves locally stored
// attachments under staticPrefix.
func NewRouter(handler *Handler, authMiddleware gin.HandlerFunc, env, staticPrefix, staticDir string) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Type", "Content-Disposition"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", handler.healthz)

	if staticDir != "" && staticPrefix != "" {
		files := router.Group(staticPrefix)
		files.Use(authMiddleware)
		files.Static("/", staticDir)
	}

	protected := router.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/complaints", handler.createComplaint)
		protected.GET("/complaints", handler.listComplaints)
		protected.GET("/complaints/export", handler.exportComplaints)
		protected.GET("/complaints/:id", handler.getComplaint)
		protected.POST("/complaints/:id/forward", handler.forwardComplaint)
		protected.POST("/complaints/:id/remarks", handler.updateComplaintStatus)
		protected.POST("/complaints/:id/cancel", handler.cancelComplaint)

		protected.PUT("/remarks/:id", handler.editRemark)
		protected.DELETE("/remarks/:id", handler.deleteRemark)

		protected.GET("/notifications", handler.listNotifications)
		protected.POST("/notifications/read-all", handler.markAllNotificationsRead)
		protected.POST("/notifications/:id/read", handler.markNotificationRead)
	}

	return router
}
