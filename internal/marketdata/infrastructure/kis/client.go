package kis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	mddomain "github.com/stockr/trading/internal/marketdata/domain"
	"github.com/stockr/trading/pkg/logger"
	"github.com/stockr/trading/pkg/metrics"
)

// ConnState 连接状态
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

// ErrNotConnected 当前没有可用连接；send 已触发一次重连
var ErrNotConnected = errors.New("feed connection is not established")

// Config 网关连接配置
type Config struct {
	// WebSocket 地址
	URL string
	// 应用 key
	AppKey string
	// 应用 secret
	AppSecret string
	// 客户类型
	CustType string
	// 盘口订阅通道 ID
	OrderBookTRID string
	// 心跳间隔
	PingInterval time.Duration
	// 重连延迟
	ReconnectDelay time.Duration
}

// FrameHandler 解码后的行情回调，由读循环同步调用
type FrameHandler func(ctx context.Context, quote *mddomain.Quote, book *mddomain.OrderBook)

// Client 持有一条到交易所网关的长连接。
// 生命周期（连接、心跳、重连、关闭）全部由本对象管理，
// 外部只通过公开方法访问。
type Client struct {
	cfg     Config
	handler FrameHandler
	metrics *metrics.Metrics

	mu    sync.Mutex
	conn  *websocket.Conn
	state ConnState
	// 写串行化：订阅请求、心跳、PINGPONG 回传可能来自不同 goroutine，
	// 而 gorilla/websocket 同一连接只允许一个并发写入者
	writeMu sync.Mutex
	// 订阅中的股票代码，重连后用于恢复订阅
	subscriptions map[string]struct{}
	// 心跳停止信号，随连接创建/销毁
	pingStop chan struct{}

	// 重连进行中标志，避免并发重连风暴
	reconnecting atomic.Bool
	closed       atomic.Bool
}

// NewClient 创建网关客户端
func NewClient(cfg Config, handler FrameHandler, m *metrics.Metrics) *Client {
	return &Client{
		cfg:           cfg,
		handler:       handler,
		metrics:       m,
		state:         StateDisconnected,
		subscriptions: make(map[string]struct{}),
	}
}

// State 返回当前连接状态
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect 建立连接，启动读循环与心跳，并恢复既有订阅。
// 连接失败时安排一次延迟重连并返回错误。
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	ctx := context.Background()
	conn, _, err := websocket.DefaultDialer.Dial(c.cfg.URL, nil)
	if err != nil {
		logger.Error(ctx, "Failed to connect to exchange gateway", "url", c.cfg.URL, "error", err)
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		c.scheduleReconnect()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.state = StateConnected
	c.pingStop = make(chan struct{})
	pingStop := c.pingStop
	resub := make([]string, 0, len(c.subscriptions))
	for code := range c.subscriptions {
		resub = append(resub, code)
	}
	c.mu.Unlock()

	logger.Info(ctx, "Exchange gateway connected", "url", c.cfg.URL)

	go c.readLoop(conn)
	go c.pingLoop(conn, pingStop)

	// 恢复断线前的订阅
	for _, code := range resub {
		if err := c.sendSubscription(code, true); err != nil {
			logger.Error(ctx, "Failed to restore subscription", "stock_code", code, "error", err)
		}
	}

	return nil
}

// Close 关闭连接，不再重连
func (c *Client) Close() error {
	c.closed.Store(true)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopPingLocked()
	c.state = StateDisconnected
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// Send 发送原始帧。未连接时触发一次重连并返回 ErrNotConnected，
// 不做发送排队。
func (c *Client) Send(raw []byte) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected || conn == nil {
		logger.Warn(context.Background(), "Feed connection is not available, scheduling reconnect")
		c.scheduleReconnect()
		return ErrNotConnected
	}

	if err := c.writeFrame(conn, raw); err != nil {
		logger.Error(context.Background(), "Failed to send frame", "error", err)
		c.onConnectionLost(conn)
		return err
	}
	return nil
}

// writeFrame 串行化对单个连接的写入
func (c *Client) writeFrame(conn *websocket.Conn, raw []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, raw)
}

// Subscribe 订阅某股票的实时盘口，并记录跟踪 key
func (c *Client) Subscribe(stockCode string) error {
	if err := c.sendSubscription(stockCode, true); err != nil {
		return err
	}
	c.mu.Lock()
	c.subscriptions[stockCode] = struct{}{}
	c.mu.Unlock()
	return nil
}

// Unsubscribe 退订某股票并移除跟踪 key
func (c *Client) Unsubscribe(stockCode string) error {
	if err := c.sendSubscription(stockCode, false); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.subscriptions, stockCode)
	c.mu.Unlock()
	return nil
}

func (c *Client) sendSubscription(stockCode string, subscribe bool) error {
	var (
		raw []byte
		err error
	)
	if subscribe {
		raw, err = EncodeSubscribe(c.cfg, stockCode)
	} else {
		raw, err = EncodeUnsubscribe(c.cfg, stockCode)
	}
	if err != nil {
		return err
	}
	return c.Send(raw)
}

// readLoop 读取帧直到连接失效；每帧同步交给 handler，
// 异常帧只记录日志并丢弃，不中断循环
func (c *Client) readLoop(conn *websocket.Conn) {
	ctx := context.Background()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				logger.Error(ctx, "Feed connection read failed", "error", err)
				c.onConnectionLost(conn)
			}
			return
		}

		if IsControlFrame(raw) {
			c.handleControlFrame(ctx, raw)
			continue
		}

		quote, book, err := DecodeQuoteFrame(raw)
		if err != nil {
			c.metrics.MalformedFramesTotal.Inc()
			logger.Warn(ctx, "Dropping malformed frame", "error", err)
			continue
		}

		if c.handler != nil {
			c.handler(ctx, quote, book)
		}
	}
}

func (c *Client) handleControlFrame(ctx context.Context, raw []byte) {
	frame, err := DecodeControlFrame(raw)
	if err != nil {
		c.metrics.MalformedFramesTotal.Inc()
		logger.Warn(ctx, "Dropping malformed control frame", "error", err)
		return
	}

	switch frame.Header.TrID {
	case TRIDPingPong:
		// 网关心跳原样回传
		if err := c.Send(raw); err != nil {
			logger.Error(ctx, "Failed to answer gateway ping", "error", err)
		}
	default:
		if frame.Body != nil {
			logger.Info(ctx, "Gateway control frame",
				"tr_id", frame.Header.TrID,
				"tr_key", frame.Header.TrKey,
				"msg", frame.Body.Msg1,
			)
		}
	}
}

// pingLoop 按固定间隔发送心跳帧，连接断开时经 stop 信号退出
func (c *Client) pingLoop(conn *websocket.Conn, stop chan struct{}) {
	interval := c.cfg.PingInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			raw, err := EncodePing()
			if err != nil {
				continue
			}
			c.mu.Lock()
			current := c.conn
			c.mu.Unlock()
			if current != conn {
				return
			}
			if err := c.writeFrame(conn, raw); err != nil {
				logger.Error(context.Background(), "Failed to send ping", "error", err)
				c.onConnectionLost(conn)
				return
			}
		}
	}
}

// onConnectionLost 将指定连接标记为断开并安排重连。
// 带连接参数，避免旧连接的失败把新连接拆掉。
func (c *Client) onConnectionLost(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.stopPingLocked()
	c.state = StateDisconnected
	c.conn.Close()
	c.conn = nil
	c.mu.Unlock()

	c.scheduleReconnect()
}

func (c *Client) stopPingLocked() {
	if c.pingStop != nil {
		close(c.pingStop)
		c.pingStop = nil
	}
}

// scheduleReconnect 安排一次延迟重连；已在重连中或已关闭时为 no-op
func (c *Client) scheduleReconnect() {
	if c.closed.Load() {
		return
	}
	if !c.reconnecting.CompareAndSwap(false, true) {
		return
	}

	delay := c.cfg.ReconnectDelay
	if delay <= 0 {
		delay = 5 * time.Second
	}

	time.AfterFunc(delay, func() {
		// 先清标志再连接，连接失败时 Connect 内部会再安排下一次重连
		c.reconnecting.Store(false)
		if c.closed.Load() {
			return
		}
		logger.Info(context.Background(), "Attempting to reconnect to exchange gateway")
		if err := c.Connect(); err != nil {
			logger.Error(context.Background(), "Reconnection failed", "error", err)
		}
	})
}
