// Package server exposes card scanning over an authenticated HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"cardscan/pkg/config"
	"cardscan/pkg/contact"
	"cardscan/process"
)

const devSecret = "dev-insecure-secret-change"

// Server holds what the handlers need.
type Server struct {
	DB     *gorm.DB
	Store  *process.Store
	Text   process.TextExtractor
	Fields contact.Extractor
	Config config.Config

	secret []byte
}

// New builds a Server. An empty JWT secret falls back to a development
// default and logs a warning.
func New(cfg config.Config, db *gorm.DB, text process.TextExtractor) *Server {
	secret := cfg.JWTSecret
	if secret == "" {
		log.Warn().Msg("JWT_SECRET not set, using development secret")
		secret = devSecret
	}
	s := &Server{DB: db, Text: text, Fields: contact.Default, Config: cfg, secret: []byte(secret)}
	if db != nil {
		s.Store = process.NewStore(db)
	}
	return s
}

// Handler returns the gin engine with every route mounted.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.MaxMultipartMemory = s.Config.MaxUploadBytes
	s.setupRoutes(r)
	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.Config.ListenAddr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.Config.ListenAddr).Msg("api listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("shutting down api")
	return srv.Shutdown(shutdownCtx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().Str("method", c.Request.Method).Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).Dur("duration", time.Since(start)).Msg("request")
	}
}
