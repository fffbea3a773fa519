package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	DefaultPumpPortalURL = "wss://pumpportal.fun/api/data"

	maxReconnectAttempts = 5
	reconnectBaseDelay   = 5 * time.Second
)

// PumpPortalClient pumpportal 实时行情长连接客户端
// 断线后自动重连，最多尝试 maxReconnectAttempts 次，每次等待时间线性递增
type PumpPortalClient struct {
	url    string
	logger *zap.Logger

	mutex      sync.Mutex
	conn       *websocket.Conn
	tradeSubs  map[string]struct{}
	tokensSub  bool
	cancelFunc context.CancelFunc

	tokenCh chan TokenData
	tradeCh chan TradeData
}

func NewPumpPortalClient(url string, logger *zap.Logger) *PumpPortalClient {
	if url == "" {
		url = DefaultPumpPortalURL
	}
	return &PumpPortalClient{
		url:       url,
		logger:    logger,
		tradeSubs: make(map[string]struct{}),
		tokenCh:   make(chan TokenData, 256),
		tradeCh:   make(chan TradeData, 256),
	}
}

// Tokens 新代币事件通道
func (c *PumpPortalClient) Tokens() <-chan TokenData {
	return c.tokenCh
}

// Trades 成交事件通道
func (c *PumpPortalClient) Trades() <-chan TradeData {
	return c.tradeCh
}

// Start 建立连接并持续读取推送，直到 ctx 取消或重连次数耗尽
func (c *PumpPortalClient) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.mutex.Lock()
	c.cancelFunc = cancel
	c.mutex.Unlock()

	go c.run(ctx)
}

// Stop 关闭连接并停止重连
func (c *PumpPortalClient) Stop() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.cancelFunc != nil {
		c.cancelFunc()
		c.cancelFunc = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// SubscribeNewTokens 订阅新代币推送
func (c *PumpPortalClient) SubscribeNewTokens() error {
	c.mutex.Lock()
	c.tokensSub = true
	conn := c.conn
	c.mutex.Unlock()
	if conn == nil {
		return nil
	}
	return conn.WriteJSON(map[string]any{"method": "subscribeNewToken"})
}

// SubscribeTokenTrades 订阅指定代币的成交推送
func (c *PumpPortalClient) SubscribeTokenTrades(mints ...string) error {
	c.mutex.Lock()
	for _, mint := range mints {
		c.tradeSubs[mint] = struct{}{}
	}
	conn := c.conn
	c.mutex.Unlock()
	if conn == nil {
		return nil
	}
	return conn.WriteJSON(map[string]any{
		"method": "subscribeTokenTrade",
		"keys":   mints,
	})
}

// UnsubscribeTokenTrades 取消指定代币的成交订阅
func (c *PumpPortalClient) UnsubscribeTokenTrades(mints ...string) error {
	c.mutex.Lock()
	for _, mint := range mints {
		delete(c.tradeSubs, mint)
	}
	conn := c.conn
	c.mutex.Unlock()
	if conn == nil {
		return nil
	}
	return conn.WriteJSON(map[string]any{
		"method": "unsubscribeTokenTrade",
		"keys":   mints,
	})
}

func (c *PumpPortalClient) run(ctx context.Context) {
	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := c.connect(ctx); err != nil {
			attempts++
			if attempts > maxReconnectAttempts {
				c.logger.Error("pumpportal reconnect attempts exhausted, giving up",
					zap.Int("attempts", attempts-1))
				return
			}
			delay := reconnectBaseDelay * time.Duration(attempts)
			c.logger.Warn("pumpportal connect failed, retrying",
				zap.Error(err),
				zap.Int("attempt", attempts),
				zap.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}

		attempts = 0
		c.readLoop(ctx)
	}
}

func (c *PumpPortalClient) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	c.conn = conn
	tokensSub := c.tokensSub
	mints := make([]string, 0, len(c.tradeSubs))
	for mint := range c.tradeSubs {
		mints = append(mints, mint)
	}
	c.mutex.Unlock()

	c.logger.Info("pumpportal connected", zap.String("url", c.url))

	// 重连后恢复之前的订阅
	if tokensSub {
		if err := conn.WriteJSON(map[string]any{"method": "subscribeNewToken"}); err != nil {
			_ = conn.Close()
			return err
		}
	}
	if len(mints) > 0 {
		if err := conn.WriteJSON(map[string]any{"method": "subscribeTokenTrade", "keys": mints}); err != nil {
			_ = conn.Close()
			return err
		}
	}
	return nil
}

func (c *PumpPortalClient) readLoop(ctx context.Context) {
	c.mutex.Lock()
	conn := c.conn
	c.mutex.Unlock()
	if conn == nil {
		return
	}
	defer func() {
		c.mutex.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mutex.Unlock()
		_ = conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Warn("pumpportal connection lost", zap.Error(err))
			}
			return
		}
		c.dispatch(message)
	}
}

func (c *PumpPortalClient) dispatch(message []byte) {
	var probe struct {
		Mint   string `json:"mint"`
		TxType string `json:"txType"`
	}
	if err := json.Unmarshal(message, &probe); err != nil || probe.Mint == "" {
		return
	}

	switch probe.TxType {
	case "create":
		var token TokenData
		if err := json.Unmarshal(message, &token); err != nil {
			c.logger.Warn("pumpportal token payload malformed", zap.Error(err))
			return
		}
		select {
		case c.tokenCh <- token:
		default:
			c.logger.Warn("pumpportal token channel full, dropping", zap.String("mint", token.Mint))
		}
	case "buy", "sell":
		var trade TradeData
		if err := json.Unmarshal(message, &trade); err != nil {
			c.logger.Warn("pumpportal trade payload malformed", zap.Error(err))
			return
		}
		select {
		case c.tradeCh <- trade:
		default:
		}
	}
}
