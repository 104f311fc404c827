package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"topics_go/internal/config"
	"topics_go/internal/watcher"
	"topics_go/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Server связывает хранилище, HTTP-роутер и необязательный наблюдатель за файлами
type Server struct {
	cfg    *config.Config
	store  storage.Store
	logger *zap.Logger
	router *gin.Engine
}

// New открывает хранилище и собирает роутер. cfg должен пройти Validate.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	store, err := storage.Open(ctx, cfg.StorageOptions(), logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	router := NewRouter(store, RouterOptions{
		CORSOrigins: cfg.Server.CORSOrigins,
		AuthToken:   cfg.Server.AuthToken,
	}, logger)

	return &Server{cfg: cfg, store: store, logger: logger, router: router}, nil
}

// Handler возвращает HTTP-обработчик сервера
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe слушает адрес из конфигурации до отмены контекста
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve обслуживает запросы на ln. При отмене контекста сервер
// дожидается активных запросов не дольше ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	var dw *watcher.DataWatcher
	if s.cfg.Storage.Watch {
		js, ok := s.store.(*storage.JSONStore)
		if !ok {
			_ = ln.Close()
			return fmt.Errorf("storage watch requires the json driver")
		}
		var err error
		if dw, err = watcher.New(js.Dir(), js.Paths(), js, s.logger); err != nil {
			_ = ln.Close()
			return err
		}
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("[SERVER] dev backend running", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := s.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.logger.Info("[SERVER] shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if dw != nil {
		g.Go(func() error { return dw.Run(gctx) })
	}

	return g.Wait()
}

// Close освобождает хранилище
func (s *Server) Close() error { return s.store.Close() }
