package handler

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildInfo is reported by /health and /version
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// RouterConfig holds everything the router wires together
type RouterConfig struct {
	Log            *zap.Logger
	AllowedOrigins []string
	TrustedProxies []string
	RateLimiter    *IPRateLimiter
	Suggest        *SuggestHandler
	Build          BuildInfo
}

// NewRouter builds the gin engine with middleware and all routes.
// Forwarding headers are honored only from TrustedProxies; nil trusts none.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(cfg.Log))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", RequestIDHeader}
	corsConfig.ExposeHeaders = []string{RequestIDHeader}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "estate-suggest",
			"version":    cfg.Build.Version,
			"build_time": cfg.Build.BuildTime,
			"git_commit": cfg.Build.GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    cfg.Build.Version,
			"build_time": cfg.Build.BuildTime,
			"git_commit": cfg.Build.GitCommit,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	suggestChain := []gin.HandlerFunc{}
	if cfg.RateLimiter != nil {
		suggestChain = append(suggestChain, cfg.RateLimiter.RateLimit())
	}
	suggestChain = append(suggestChain, cfg.Suggest.Suggest)

	// Path used by the web storefront
	router.POST("/api/ai-suggestion", suggestChain...)

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/suggestions", suggestChain...)
	}

	return router, nil
}
