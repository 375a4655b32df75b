package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/GitProjsStack/chess-arena/room"
	"github.com/GitProjsStack/chess-arena/util"
	"github.com/GitProjsStack/chess-arena/ws"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type Server struct {
	config      *util.Config
	wsManager   *ws.Manager
	coordinator *room.Coordinator
	router      *gin.Engine
	httpServer  *http.Server
	log         *zap.Logger
}

func NewServer(config *util.Config, coordinator *room.Coordinator, log *zap.Logger) *Server {
	if config.Env == util.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))

	server := &Server{
		config: config,
		wsManager: ws.NewManager(coordinator, ws.Options{
			AllowedOrigins: config.AllowedOrigins,
			SendBuffer:     config.SendBuffer,
		}, log),
		coordinator: coordinator,
		router:      router,
		log:         log,
	}

	router.GET("/ws", server.wsManager.ServeWS)
	router.POST("/rooms", server.CreateRoom)
	router.GET("/rooms/:id", server.CheckRoom)
	router.GET("/healthz", server.Health)

	server.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%v", config.Port),
		Handler: server.Handler(),
	}

	return server
}

// Handler is the router wrapped with CORS handling.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(s.router)
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("server listening", zap.String("addr", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown closes every websocket client, then stops the http server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsManager.Close()

	return s.httpServer.Shutdown(ctx)
}
