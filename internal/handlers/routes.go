package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the health and school endpoints on router.
func RegisterRoutes(router gin.IRouter, health *HealthHandler, schools *SchoolHandler) {
	router.GET("/health", health.Health)
	router.GET("/health/ready", health.Ready)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/info", health.Info)
		v1.GET("/states", schools.States)

		s := v1.Group("/schools")
		{
			s.GET("", schools.List)
			s.GET("/search", schools.Search)
			s.GET("/slug/:slug", schools.GetBySlug)
			s.GET("/:id", schools.Get)
		}
	}
}
