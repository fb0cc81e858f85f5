package api

import (
	"net/http"
	"time"

	"github.com/Seungyub-Jeon/upbit-dashboard/internal/engine"
	"github.com/Seungyub-Jeon/upbit-dashboard/internal/events"
	"github.com/Seungyub-Jeon/upbit-dashboard/internal/monitor"
	"github.com/Seungyub-Jeon/upbit-dashboard/pkg/db"

	"github.com/gin-gonic/gin"
)

// Server wires the dashboard HTTP endpoints around the engine and bus.
type Server struct {
	Router  *gin.Engine
	Engine  *engine.Engine
	Bus     *events.Bus
	Journal *db.Journal
	Metrics *monitor.Metrics
	Meta    SystemMeta
}

// SystemMeta describes runtime status exposed to the UI.
type SystemMeta struct {
	Markets  []string
	Interval time.Duration
	Version  string
}

func NewServer(eng *engine.Engine, bus *events.Bus, journal *db.Journal, metrics *monitor.Metrics, meta SystemMeta) *Server {
	r := gin.New()

	// Middleware stack (order matters!)
	r.Use(gin.Recovery())        // Panic recovery (first)
	r.Use(RequestIDMiddleware()) // Request ID tracking
	r.Use(RequestLogger())       // Request logging (after ID is set)
	r.Use(CORSMiddleware())      // CORS (last before routes)

	s := &Server{
		Router:  r,
		Engine:  eng,
		Bus:     bus,
		Journal: journal,
		Metrics: metrics,
		Meta:    meta,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/ws", s.websocket)

	api := s.Router.Group("/api")
	{
		api.GET("/status", s.getStatus)
		api.GET("/positions", s.getPositions)
		api.GET("/markets/:market/prices", s.getPrices)
		api.GET("/trades", s.getTrades)

		api.POST("/trading/start", s.startTrading)
		api.POST("/trading/stop", s.stopTrading)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Start(addr string) error {
	return s.Router.Run(addr)
}
