package handlers

import (
	"time"

	"tripwise/auth"
	"tripwise/config"
	"tripwise/metrics"
	"tripwise/store"
	"tripwise/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const sessionCookieName = "token"

// API holds what the handlers need: the document store and the user service
type API struct {
	Store   *store.GormStore
	Users   *auth.Service
	Limiter *auth.LoginLimiter
}

// NewRouter wires all middleware and end-points
func NewRouter(db *gorm.DB, api *API) *gin.Engine {
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{})
	if config.DEBUG_MODE {
		router.Use(utils.ErrorLogMiddleware)
	}
	router.Use(metrics.Middleware)
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           30 * 24 * time.Hour,
	}))

	cookieStore := gormsessions.NewStore(db, true, []byte(config.SESSION_KEY))
	cookieStore.Options(sessions.Options{Path: "/", MaxAge: config.SESSION_MAX_AGE, HttpOnly: true})
	router.Use(sessions.Sessions(sessionCookieName, cookieStore))
	if !config.DEBUG_MODE {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/doc/watch", "/metrics"})))
	}
	router.Use(utils.NoCache())

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Custom Auth Router
	authRouter := &auth.Router{Base: router, Service: api.Users}
	// User handlers
	router.POST("/user/signup", api.Limiter.Handler(), api.UserSignup)
	router.POST("/user/login", api.Limiter.Handler(), api.UserLogin)
	router.POST("/user/logout", api.UserLogout)
	authRouter.GET("/user/status", api.UserStatus)
	// Document handlers
	authRouter.GET("/doc", api.DocGet)
	authRouter.POST("/doc/set", api.DocSet)
	authRouter.POST("/doc/update", api.DocUpdate)
	authRouter.POST("/doc/delete", api.DocDelete)
	authRouter.POST("/doc/batch", api.DocBatch)
	authRouter.GET("/doc/watch", api.DocWatch)
	return router
}
