package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sitepulse/sitepulse/pkg/response"
)

// Health returns a simple status payload useful for readiness checks. The
// database connection is pinged so a wedged store flips the check.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		response.Success(c, code, gin.H{"status": status})
	}
}
