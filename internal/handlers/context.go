package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// clientAddress derives the client IP recorded with events and subscriptions.
// The first X-Forwarded-For entry wins when a proxy is in front, then
// X-Real-IP, then a sentinel for direct connections without either header.
func clientAddress(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); realIP != "" {
		return realIP
	}
	return "0.0.0.0"
}
