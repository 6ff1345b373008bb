package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	Engine *gin.Engine
	log    *logger.Logger
}

func NewServer(cfg RouterConfig) *Server {
	return &Server{Engine: NewRouter(cfg), log: cfg.Log}
}

// Run serves until ctx is cancelled, then drains in-flight requests. A
// listener failure cancels the group so the shutdown member returns too.
func (s *Server) Run(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("HTTP server listening", "addr", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
