// Package api wires the HTTP surface: routes, handlers and middleware.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/YTKia/stationnement/internal/api/handler"
	"github.com/YTKia/stationnement/internal/api/middleware"
)

// SetupRouter builds the gin engine with all routes registered.
func SetupRouter(
	authH *handler.AuthHandler,
	recognitionH *handler.RecognitionHandler,
	recordH *handler.RecordHandler,
	reportH *handler.ReportHandler,
	authMw *middleware.AuthMiddleware,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authH.Register)
		authRoutes.POST("/login", authH.Login)
	}

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		v1.POST("/entries", recognitionH.RecordEntries)
		v1.POST("/exits", recognitionH.RecordExits)

		recordRoutes := v1.Group("/records")
		{
			recordRoutes.GET("", recordH.List)
			recordRoutes.GET("/:id", recordH.Get)
			recordRoutes.PUT("/:id", recordH.Update)
			recordRoutes.DELETE("/:id", recordH.Delete)
		}

		reportRoutes := v1.Group("/reports")
		{
			reportRoutes.GET("/daily", reportH.Daily)
			reportRoutes.GET("/monthly", reportH.Monthly)
		}
	}

	return r
}
