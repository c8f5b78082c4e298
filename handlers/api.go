package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bar-order-api/middleware"
	"bar-order-api/service"

	"github.com/gin-gonic/gin"
)

// API bundles the services the HTTP handlers call into
type API struct {
	Products *service.ProductService
	Orders   *service.OrderService
	Auth     *service.AuthService
	QR       *service.QRService
}

// writeError maps the service error taxonomy onto HTTP responses. Anything
// unexpected is logged and answered with a generic 500.
func writeError(c *gin.Context, err error) {
	var (
		verr      *service.ValidationError
		notFound  *service.NotFoundError
		protected *service.ProtectedReferenceError
		authErr   *service.AuthenticationError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  verr.Message,
			"fields": gin.H{verr.Field: verr.Message},
		})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": capitalize(notFound.Resource) + " not found"})
	case errors.As(err, &protected):
		c.JSON(http.StatusConflict, gin.H{"error": protected.Error()})
	case errors.As(err, &authErr):
		c.JSON(http.StatusUnauthorized, gin.H{"error": authErr.Reason})
	default:
		c.Error(err)
		log := middleware.Logger(c)
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// bindJSON decodes the body; malformed JSON or wrong types are a 400
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return false
	}
	return true
}

// pathID parses the :id segment; ids that cannot exist are a 404
func pathID(c *gin.Context, resource string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": capitalize(resource) + " not found"})
		return 0, false
	}
	return uint(id), true
}

// absoluteURL turns a server-relative path into a full URL for this request
func absoluteURL(c *gin.Context, path string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host + path
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
