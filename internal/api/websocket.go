package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Seungyub-Jeon/upbit-dashboard/internal/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsFrame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// websocket streams live engine events to the dashboard. A single bus
// channel carries every subscribed event; a write error or client
// disconnect tears the connection down.
func (s *Server) websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	defer conn.Close()

	if s.Bus == nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"bus not ready"}`))
		return
	}

	stream, unsub := s.Bus.SubscribeMany(100,
		events.EventPriceTick,
		events.EventStrategySignal,
		events.EventOrderPlaced,
		events.EventOrderRejected,
		events.EventPositionOpened,
		events.EventPositionClosed,
		events.EventEngineStatus,
	)
	defer unsub()

	for msg := range stream {
		if err := conn.WriteJSON(wsFrame{Event: string(msg.Event), Payload: msg.Payload}); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}
