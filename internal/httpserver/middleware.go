package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"techzone-storefront/internal/domain"
)

const (
	deviceCookie = "device_id"
	deviceHeader = "X-Device-ID"

	deviceKey   = "deviceID"
	customerKey = "customer"
	tokenKey    = "token"

	deviceCookieMaxAge = 365 * 24 * 60 * 60
)

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if id, ok := c.Get(deviceKey); ok {
			fields = append(fields, zap.Any("device_id", id))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Info("request", fields...)
		default:
			logger.Debug("request", fields...)
		}
	}
}

// deviceMiddleware resolves the device id from the header or cookie and
// issues a new one when neither carries a valid id.
func deviceMiddleware(devices deviceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(deviceHeader)
		if raw == "" {
			raw, _ = c.Cookie(deviceCookie)
		}
		id, err := devices.Parse(raw)
		if err != nil {
			id = devices.Issue()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(deviceCookie, id, deviceCookieMaxAge, "/", "", false, true)
		}
		c.Header(deviceHeader, id)
		c.Set(deviceKey, id)
		c.Next()
	}
}

// sessionMiddleware attaches the customer of a bearer token. Requests without
// a token pass through anonymously; a bad token is rejected.
func sessionMiddleware(customers customerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		customer, err := customers.LookupByToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(customerKey, customer)
		c.Set(tokenKey, token)
		c.Next()
	}
}

func requireCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentCustomer(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func currentCustomer(c *gin.Context) *domain.Customer {
	v, ok := c.Get(customerKey)
	if !ok {
		return nil
	}
	customer, _ := v.(*domain.Customer)
	return customer
}

func currentDevice(c *gin.Context) string {
	return c.GetString(deviceKey)
}

func currentToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}
