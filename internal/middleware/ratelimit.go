package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"tapquest/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	clientIdleTTL = 10 * time.Minute
	sweepInterval = time.Minute
)

type tapClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// TapRateLimiter shapes the high-frequency tap stream: bursts above the
// configured per-client rate are rejected with 429 rather than queued.
type TapRateLimiter struct {
	mu        sync.Mutex
	clients   map[int64]*tapClient
	limit     rate.Limit
	burst     int
	lastSweep time.Time
}

func NewTapRateLimiter(perSecond float64, burst int) *TapRateLimiter {
	return &TapRateLimiter{
		clients:   make(map[int64]*tapClient),
		limit:     rate.Limit(perSecond),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

// limiterFor returns the client's bucket, creating it on first sight. Idle
// entries are swept on the way in, so the map is bounded by the set of
// recently active clients rather than every identity ever seen.
func (l *TapRateLimiter) limiterFor(telegramID int64) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) >= sweepInterval {
		for id, client := range l.clients {
			if now.Sub(client.lastSeen) > clientIdleTTL {
				delete(l.clients, id)
			}
		}
		l.lastSweep = now
	}

	client, ok := l.clients[telegramID]
	if !ok {
		client = &tapClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[telegramID] = client
	}
	client.lastSeen = now
	return client.limiter
}

func (l *TapRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
			return
		}

		if !l.limiterFor(id).Allow() {
			logger.Logger().Info("tap rate limit exceeded", zap.Int64("telegram_id", id))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many taps, slow down"})
			return
		}

		c.Next()
	}
}
