// Package server exposes the creator search over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lox/creator-discovery/internal/discovery"
	"github.com/lox/creator-discovery/internal/extract"
	"github.com/lox/creator-discovery/internal/metrics"
	"github.com/lox/creator-discovery/internal/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Searcher runs the discovery pipeline
type Searcher interface {
	Search(ctx context.Context, req discovery.Request) (types.SearchResponse, error)
}

// ProfileResolver looks up a single profile
type ProfileResolver interface {
	Resolve(ctx context.Context, identifier string) types.Profile
}

// Scheduler starts a background deep analysis pass
type Scheduler interface {
	Schedule(ctx context.Context, resp types.SearchResponse) <-chan discovery.ScoreUpdate
}

type Options struct {
	AllowOrigins    []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	searcher Searcher
	resolver ProfileResolver
	deep     Scheduler
	store    *ResultStore
	logger   *log.Logger
	options  Options
}

// New creates a server. deep may be nil, in which case deep analysis
// requests are answered without a background pass.
func New(searcher Searcher, resolver ProfileResolver, deep Scheduler, store *ResultStore, logger *log.Logger, options Options) *Server {
	return &Server{
		searcher: searcher,
		resolver: resolver,
		deep:     deep,
		store:    store,
		logger:   logger,
		options:  options,
	}
}

type webSearchRequest struct {
	Query             string   `json:"query" binding:"required"`
	MaxResults        *int     `json:"max_results"`
	MinRelevanceScore *float64 `json:"min_relevance_score"`
}

// userCriteria are the structured follower, following, likes and verified filters
type userCriteria struct {
	MinFollowers *int64 `json:"min_followers"`
	MaxFollowers *int64 `json:"max_followers"`
	MinFollowing *int64 `json:"min_following"`
	MaxFollowing *int64 `json:"max_following"`
	MinLikes     *int64 `json:"min_likes"`
	MaxLikes     *int64 `json:"max_likes"`
	Verified     *bool  `json:"verified"`
}

func (c *userCriteria) filters() types.Filters {
	if c == nil {
		return types.Filters{}
	}
	return types.Filters{
		MinFollowers: c.MinFollowers,
		MaxFollowers: c.MaxFollowers,
		MinFollowing: c.MinFollowing,
		MaxFollowing: c.MaxFollowing,
		MinLikes:     c.MinLikes,
		MaxLikes:     c.MaxLikes,
		Verified:     c.Verified,
	}
}

type searchUsersRequest struct {
	Query        string        `json:"query" binding:"required"`
	Criteria     *userCriteria `json:"criteria"`
	Count        *int          `json:"count"`
	DeepAnalysis bool          `json:"deep_analysis"`
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  s.options.AllowOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "creator-discovery"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/web-enhanced-search", s.handleWebSearch)
	router.POST("/search-users", s.handleSearchUsers)
	router.GET("/searches/:id", s.handleGetSearch)
	router.GET("/user/:username", s.handleGetUser)
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  s.options.ReadTimeout,
		WriteTimeout: s.options.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleWebSearch(c *gin.Context) {
	var req webSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	maxResults := 5
	if req.MaxResults != nil {
		maxResults = *req.MaxResults
	}
	minRelevance := 0.5
	if req.MinRelevanceScore != nil {
		minRelevance = *req.MinRelevanceScore
	}

	resp, ok := s.search(c, discovery.Request{
		Query:        req.Query,
		MaxResults:   maxResults,
		MinRelevance: &minRelevance,
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSearchUsers(c *gin.Context) {
	var req searchUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	count := 20
	if req.Count != nil {
		count = *req.Count
	}

	resp, ok := s.search(c, discovery.Request{
		Query:      req.Query,
		MaxResults: count,
		Filters:    req.Criteria.filters(),
	})
	if !ok {
		return
	}

	if req.DeepAnalysis && s.deep != nil {
		updates := s.deep.Schedule(c.Request.Context(), resp)
		go func() {
			applied := s.store.Consume(updates)
			s.logger.Debug("Deep analysis updates applied", "request_id", resp.RequestID, "applied", applied)
		}()
	}
	c.JSON(http.StatusOK, resp)
}

// search runs the pipeline and stores the response, writing the error
// response itself when it fails
func (s *Server) search(c *gin.Context, req discovery.Request) (types.SearchResponse, bool) {
	resp, err := s.searcher.Search(c.Request.Context(), req)
	switch {
	case errors.Is(err, discovery.ErrEmptyQuery), errors.Is(err, discovery.ErrInvalidMaxResults):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return resp, false
	case err != nil:
		s.logger.Error("Search failed", "query", req.Query, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return resp, false
	}

	resp.RequestID = uuid.NewString()
	s.store.Put(resp)
	return resp, true
}

func (s *Server) handleGetSearch(c *gin.Context) {
	resp, ok := s.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "search not found or expired"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetUser(c *gin.Context) {
	username := strings.ToLower(strings.TrimPrefix(c.Param("username"), "@"))
	if !extract.Valid(username) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username"})
		return
	}

	profile := s.resolver.Resolve(c.Request.Context(), username)
	if profile.Degraded || profile.Identifier != username {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("user @%s not found", username)})
		return
	}
	c.JSON(http.StatusOK, profile)
}
