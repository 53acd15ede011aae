package router

import (
	"net/http"
	"time"

	"fitts-go/internal/config"
	"fitts-go/internal/handlers"
	"fitts-go/internal/repository"
	"fitts-go/internal/services"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":      "Too many requests. Try again later.",
		"retryAfter": time.Until(info.ResetTime).Round(time.Second).String(),
	})
}

// Setup builds the HTTP API around a session manager and store.
func Setup(log *zap.Logger, conf *config.Config, manager *services.Manager, store *repository.Store) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	cookieStore := cookie.NewStore([]byte(conf.Server.SessionSecret))
	cookieStore.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400,
	})
	router.Use(sessions.Sessions("fittssession", cookieStore))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: "default-src 'self'",
	})
	router.Use(func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			c.Abort()
			return
		}
	})

	sessionHandler := handlers.NewSessionHandler(log, manager, store)
	liveHandler := handlers.NewLiveHandler(log, manager)
	resultsHandler := handlers.NewResultsHandler(log, store)

	limit := conf.Server.CreateLimit
	if limit == 0 {
		limit = 10
	}
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: limit,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "liveSessions": manager.Len()})
	})

	api := router.Group("/api")
	{
		sessionRoutes := api.Group("/sessions")
		{
			sessionRoutes.POST("", limiter, sessionHandler.Create)
			sessionRoutes.GET("/current", sessionHandler.Current)
			sessionRoutes.GET("/:id", sessionHandler.Get)
			sessionRoutes.POST("/:id/events", sessionHandler.Event)
			sessionRoutes.GET("/:id/live", liveHandler.Serve)
		}

		resultRoutes := api.Group("/results")
		resultRoutes.Use(AdminRequired(log))
		{
			resultRoutes.GET("/:participant", resultsHandler.ShowResults)
			resultRoutes.GET("/:participant/chart", resultsHandler.Chart)
			resultRoutes.GET("/:participant/export.xlsx", resultsHandler.ExportXLSX)
			resultRoutes.GET("/:participant/export.csv", resultsHandler.ExportCSV)
		}
	}

	router.GET("/metrics", AdminRequired(log), gin.WrapH(promhttp.Handler()))

	return router
}
