package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/finbench/internal/config"
	"github.com/stellarlinkco/finbench/internal/leaderboard"
	"github.com/stellarlinkco/finbench/internal/store"
)

// Server exposes the read surface over stored runs and the
// leaderboard.
type Server struct {
	router  *gin.Engine
	store   store.Store
	lbStore *leaderboard.Store
	config  *config.Config
}

func NewServer(cfg *config.Config, st store.Store, lbStore *leaderboard.Store) (*Server, error) {
	r := gin.New()
	s := &Server{
		router:  r,
		store:   st,
		lbStore: lbStore,
		config:  cfg,
	}
	s.registerMiddleware()
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}
