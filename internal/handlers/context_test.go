package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func testContext(headers map[string]string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	return c
}

func TestClientAddress(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"no headers", nil, "0.0.0.0"},
		{"forwarded single", map[string]string{"X-Forwarded-For": "203.0.113.9"}, "203.0.113.9"},
		{"forwarded chain takes first", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1, 10.0.0.2"}, "203.0.113.9"},
		{"forwarded with spaces", map[string]string{"X-Forwarded-For": "  203.0.113.9 , 10.0.0.1"}, "203.0.113.9"},
		{"real ip fallback", map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
		{"forwarded wins over real ip", map[string]string{
			"X-Forwarded-For": "203.0.113.9",
			"X-Real-IP":       "198.51.100.7",
		}, "203.0.113.9"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, clientAddress(testContext(tc.headers)))
		})
	}
}

func TestParseIntQuery(t *testing.T) {
	c := testContext(nil)
	c.Request = httptest.NewRequest("GET", "/?days=14&junk=abc", nil)

	require.Equal(t, 14, parseIntQuery(c, "days", 7))
	require.Equal(t, 7, parseIntQuery(c, "missing", 7))
	require.Equal(t, 7, parseIntQuery(c, "junk", 7))
}
