package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"PowerOfWords/internal/domain"
	"PowerOfWords/internal/ports"
)

// Store is the slice of persistence the API reads from.
type Store interface {
	ListSources(ctx context.Context) ([]domain.Source, error)
	SearchFeeds(ctx context.Context, filter domain.FeedFilter) ([]domain.Article, error)
	SentimentBreakdown(ctx context.Context, filter domain.FeedFilter, groupBy string) ([]domain.SentimentBucket, error)
}

// Server exposes the browsing, analytics, and realtime-analysis endpoints.
type Server struct {
	engine *gin.Engine
	http   *http.Server
	store  Store
	scorer ports.Scorer
	cache  *redis.Client
	logger *slog.Logger
}

// NewServer builds the gin router. The cache client may be nil; analytics
// responses then skip the read-through cache.
func NewServer(addr string, store Store, scorer ports.Scorer, cache *redis.Client, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		http:   &http.Server{Addr: addr, Handler: engine},
		store:  store,
		scorer: scorer,
		cache:  cache,
		logger: logger,
	}

	apiGroup := engine.Group("/api")
	apiGroup.GET("/sources", s.listSources)
	apiGroup.GET("/feeds", s.listFeeds)
	apiGroup.GET("/analytics/sentiment", s.sentimentAnalytics)
	apiGroup.POST("/analyze", s.analyzeText)

	return s
}

// Run blocks serving HTTP on the configured address until Shutdown is
// called or the listener fails.
func (s *Server) Run() error {
	return s.http.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests,
// bounded by ctx. Run returns http.ErrServerClosed afterwards.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() *gin.Engine {
	return s.engine
}
