package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ballmatro-service/internal/service/game"
	"ballmatro-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	TypeScore    = "score"
	TypeOptimize = "optimize"
	TypeResult   = "result"
	TypeError    = "error"
)

type OutgoingMessage struct {
	Type string      `json:"type"`
	Seq  int64       `json:"seq"`
	Data interface{} `json:"data"`
}

type scoreRequest struct {
	Available game.CardList `json:"available"`
	Played    game.CardList `json:"played"`
}

type Handler struct {
	gameSvc *game.Service
}

func NewHandler(gameSvc *game.Service) *Handler {
	return &Handler{gameSvc: gameSvc}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleScoreWS serves live scoring: every score or optimize request gets
// exactly one result or error reply, numbered in order.
func (h *Handler) HandleScoreWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.L().Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	logger.L().Info("New scoring connection", zap.String("remote", c.Request.RemoteAddr))

	newClient(conn, h.gameSvc).run(c.Request.Context())
}

type client struct {
	conn      *websocket.Conn
	gameSvc   *game.Service
	outbound  chan OutgoingMessage
	done      chan struct{}
	stopped   chan struct{}
	seq       int64
	pingEvery time.Duration
}

func newClient(conn *websocket.Conn, gameSvc *game.Service) *client {
	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	return &client{
		conn:      conn,
		gameSvc:   gameSvc,
		outbound:  make(chan OutgoingMessage, 16),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		pingEvery: 25 * time.Second,
	}
}

func (c *client) run(ctx context.Context) {
	go c.writePump()
	c.readPump(ctx)
}

func (c *client) readPump(ctx context.Context) {
	defer func() {
		close(c.done)
		c.conn.Close()
	}()

	for {
		mt, message, err := c.conn.ReadMessage()
		if err != nil {
			logger.L().Info("WS read error", zap.Error(err))
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		var incoming struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(message, &incoming); err != nil {
			c.reply(TypeError, gin.H{"message": "invalid payload"})
			continue
		}
		if incoming.Type == "" {
			continue
		}

		info, err := c.handle(ctx, incoming.Type, incoming.Data)
		if err != nil {
			c.reply(TypeError, gin.H{"message": err.Error()})
			continue
		}
		c.reply(TypeResult, info)
	}
}

func (c *client) handle(ctx context.Context, kind string, data json.RawMessage) (game.ScoreInfo, error) {
	var req scoreRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			return game.ScoreInfo{}, err
		}
	}

	switch kind {
	case TypeScore:
		return c.gameSvc.Score(ctx, req.Available, req.Played)
	case TypeOptimize:
		return c.gameSvc.Optimize(ctx, req.Available)
	default:
		return game.ScoreInfo{}, fmt.Errorf("unknown message type %q", kind)
	}
}

func (c *client) reply(kind string, data interface{}) {
	c.seq++
	select {
	case c.outbound <- OutgoingMessage{Type: kind, Seq: c.seq, Data: data}:
	case <-c.stopped:
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.pingEvery)
	defer func() {
		ticker.Stop()
		close(c.stopped)
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.outbound:
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.L().Info("WS write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
