package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dushixiang/solsnipe/internal/events"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// StreamMessage 推送给前端的事件帧
type StreamMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// StreamHandler 通过WebSocket向客户端推送事件总线上的事件
type StreamHandler struct {
	logger   *zap.Logger
	bus      *events.Bus
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewStreamHandler 创建事件推送处理器
func NewStreamHandler(logger *zap.Logger, bus *events.Bus) *StreamHandler {
	return &StreamHandler{
		logger: logger,
		bus:    bus,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// RegisterRoutes 注册路由
func (h *StreamHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/stream", h.Serve)
}

// Run 消费事件总线并广播给所有客户端，阻塞直到ctx取消
func (h *StreamHandler) Run(ctx context.Context) {
	ch, cancel := h.bus.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(StreamMessage{
				Type:      string(event.Kind()),
				Data:      event,
				Timestamp: time.Now().UnixMilli(),
			})
		}
	}
}

// Serve 升级连接并保持到客户端断开
func (h *StreamHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return err
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("stream client connected", zap.String("remote", conn.RemoteAddr().String()))

	h.send(conn, StreamMessage{
		Type:      "connected",
		Data:      map[string]interface{}{"message": "Live feed connected"},
		Timestamp: time.Now().UnixMilli(),
	})

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		_ = conn.Close()
		h.logger.Debug("stream client disconnected", zap.String("remote", conn.RemoteAddr().String()))
	}()

	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return nil
		}
		if msg.Type == "ping" {
			h.send(conn, StreamMessage{
				Type:      "pong",
				Timestamp: time.Now().UnixMilli(),
			})
		}
	}
}

// ClientCount 当前连接数
func (h *StreamHandler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *StreamHandler) send(conn *websocket.Conn, msg StreamMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Debug("stream write failed", zap.Error(err))
	}
}

func (h *StreamHandler) broadcast(msg StreamMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Debug("stream write failed, dropping client", zap.Error(err))
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}
}
