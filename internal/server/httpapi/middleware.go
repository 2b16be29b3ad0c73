package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/common"
	"github.com/dmitrijs2005/issuedesk/internal/logging"
	"github.com/dmitrijs2005/issuedesk/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	principalKey    = "principal"
	requestIDHeader = "X-Request-ID"
	bypassHeader    = "x-admin-bypass"
	bypassQuery     = "admin_bypass"
)

func (s *HTTPServer) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func (s *HTTPServer) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error(c.Request.Context(), "panic while serving request", "panic", r, "path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			}
		}()
		c.Next()
	}
}

func (s *HTTPServer) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

func (s *HTTPServer) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

const (
	corsAllowMethods = "GET, POST, PATCH, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization"
)

func (s *HTTPServer) originAllowed(origin string) bool {
	for _, o := range s.corsOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// cors answers preflight requests itself; they never reach the routes or
// the auth middleware.
func (s *HTTPServer) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		c.Writer.Header().Add("Vary", "Origin")
		if s.originAllowed(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", corsAllowMethods)
			c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func bypassRequested(c *gin.Context) (string, bool) {
	if strings.EqualFold(c.GetHeader(bypassHeader), "true") {
		return "header", true
	}
	if c.Query(bypassQuery) == "true" {
		return "query", true
	}
	return "", false
}

// authenticate attaches the request principal or answers 401.
func (s *HTTPServer) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if s.users.BypassEnabled() {
			if trigger, ok := bypassRequested(c); ok {
				c.Set(principalKey, s.users.BypassPrincipal(ctx, trigger))
				c.Next()
				return
			}
		}

		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, no token"})
			return
		}

		p, err := s.users.Authenticate(ctx, token)
		switch {
		case err == nil:
		case errors.Is(err, common.ErrorUnauthenticated):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, token failed"})
			return
		case errors.Is(err, common.ErrorNotFound):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, user not found"})
			return
		default:
			s.logger.Error(ctx, "authentication failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

func (s *HTTPServer) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.RequireAdmin(principal(c)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

// principal returns the identity set by authenticate. Routes outside the
// authenticated group get the zero Principal.
func principal(c *gin.Context) auth.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return auth.Principal{}
	}
	p, _ := v.(auth.Principal)
	return p
}

func (s *HTTPServer) notFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api") {
		c.JSON(http.StatusNotFound, gin.H{"error": "API route not found"})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}
