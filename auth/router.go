package auth

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"tripwise/models"

	"github.com/gin-gonic/gin"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// User is authenticated
type HandlerFunc func(c *gin.Context, user *models.User)

// Router is a wrapper class that adds auth checks + User pre-loading
type Router struct {
	Base    gin.IRoutes
	Service *Service
}

func (cr *Router) baseExec(c *gin.Context, handler HandlerFunc) {
	session := LoadSession(c)
	id := session.UserID()
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access denied"})
		return
	}
	user, err := cr.Service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access denied"})
		return
	}
	handler(c, &user)
}

func (cr *Router) POST(path string, handler HandlerFunc) {
	cr.Base.POST(path, func(c *gin.Context) {
		cr.baseExec(c, handler)
	})
}

func (cr *Router) GET(path string, handler HandlerFunc) {
	cr.Base.GET(path, func(c *gin.Context) {
		cr.baseExec(c, handler)
	})
}

// LoginLimiter throttles sign in/up attempts per client IP
type LoginLimiter struct {
	perMinute int
	clients   cmap.ConcurrentMap[string, *clientLimiter]
}

type clientLimiter struct {
	limiter *rate.Limiter
	seen    atomic.Int64 // unix nano of the last attempt
}

// NewLoginLimiter returns nil (no limiting) when perMinute is not positive
func NewLoginLimiter(perMinute int) *LoginLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &LoginLimiter{perMinute: perMinute, clients: cmap.New[*clientLimiter]()}
}

func (l *LoginLimiter) Allow(ip string) bool {
	if l == nil {
		return true
	}
	client := l.clients.Upsert(ip, nil, func(exist bool, valueInMap, newValue *clientLimiter) *clientLimiter {
		if exist {
			return valueInMap
		}
		return &clientLimiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)}
	})
	now := time.Now()
	client.seen.Store(now.UnixNano())
	return client.limiter.AllowN(now, 1)
}

// Clients is the number of IPs currently tracked
func (l *LoginLimiter) Clients() int {
	if l == nil {
		return 0
	}
	return l.clients.Count()
}

// Sweep forgets clients idle for at least idle whose budget has refilled,
// dropping them changes nothing for their next attempt
func (l *LoginLimiter) Sweep(idle time.Duration) int {
	return l.sweep(time.Now(), idle)
}

func (l *LoginLimiter) sweep(now time.Time, idle time.Duration) (removed int) {
	if l == nil {
		return 0
	}
	for item := range l.clients.IterBuffered() {
		gone := l.clients.RemoveCb(item.Key, func(_ string, v *clientLimiter, exists bool) bool {
			return exists && v == item.Val &&
				now.Sub(time.Unix(0, v.seen.Load())) >= idle &&
				v.limiter.TokensAt(now) >= float64(v.limiter.Burst())
		})
		if gone {
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done
func (l *LoginLimiter) Run(ctx context.Context, interval time.Duration) {
	if l == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := l.Sweep(interval); removed > 0 {
				log.Debug().Int("removed", removed).Int("left", l.Clients()).Msg("login limiter sweep")
			}
		}
	}
}

// Handler rejects the request with 429 once the client is over its budget
func (l *LoginLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": MessageTooManyRequests})
			return
		}
		c.Next()
	}
}
