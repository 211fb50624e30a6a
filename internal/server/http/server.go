package internalhttp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/hackmate/hackathon-helper/internal/app"
	"github.com/hackmate/hackathon-helper/internal/settings"
	"github.com/hackmate/hackathon-helper/internal/storage"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Host string
	Port int
}

type Server struct {
	srv  *http.Server
	addr string
}

func NewServer(config Config, application *app.App, settingsSvc *settings.Service, users storage.UserStorage) *Server {
	addr := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	h := &handlers{app: application, settings: settingsSvc, users: users}
	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: loggingMiddleware(h.routes())},
	}
}

func (s *Server) Start(_ context.Context) error {
	log.Printf("starting http server on %s", s.addr)
	err := s.srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
