package kis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	mddomain "github.com/stockr/trading/internal/marketdata/domain"
	"github.com/stockr/trading/pkg/metrics"
)

// testGateway 模拟交易所网关：升级连接，收到的消息写入 inbound
type testGateway struct {
	server  *httptest.Server
	inbound chan []byte
	conns   chan *websocket.Conn
}

func newTestGateway(t *testing.T) *testGateway {
	t.Helper()

	gw := &testGateway{
		inbound: make(chan []byte, 256),
		conns:   make(chan *websocket.Conn, 4),
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	gw.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		gw.conns <- conn
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			gw.inbound <- msg
		}
	}))
	t.Cleanup(gw.server.Close)
	return gw
}

func (gw *testGateway) url() string {
	return "ws" + strings.TrimPrefix(gw.server.URL, "http")
}

func (gw *testGateway) waitConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-gw.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for gateway connection")
		return nil
	}
}

func (gw *testGateway) waitMessage(t *testing.T) []byte {
	t.Helper()
	select {
	case msg := <-gw.inbound:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for gateway message")
		return nil
	}
}

func TestClientSubscribeSendsFrame(t *testing.T) {
	gw := newTestGateway(t)

	client := NewClient(Config{
		URL:           gw.url(),
		AppKey:        "key",
		AppSecret:     "secret",
		CustType:      "P",
		OrderBookTRID: "H0STASP0",
	}, nil, metrics.New("test"))
	if err := client.Connect(); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer client.Close()
	gw.waitConn(t)

	if err := client.Subscribe("005930"); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	var req subscribeRequest
	if err := json.Unmarshal(gw.waitMessage(t), &req); err != nil {
		t.Fatalf("subscribe frame must be valid JSON: %v", err)
	}
	if req.Header.TrType != trTypeSubscribe {
		t.Errorf("expected tr_type %s, got %s", trTypeSubscribe, req.Header.TrType)
	}
	if req.Body.Input.TrKey != "005930" {
		t.Errorf("expected tr_key 005930, got %s", req.Body.Input.TrKey)
	}
}

func TestClientDropsMalformedFrames(t *testing.T) {
	gw := newTestGateway(t)

	m := metrics.New("test")
	quotes := make(chan *mddomain.Quote, 4)
	client := NewClient(Config{URL: gw.url(), OrderBookTRID: "H0STASP0"},
		func(ctx context.Context, quote *mddomain.Quote, book *mddomain.OrderBook) {
			quotes <- quote
		}, m)
	if err := client.Connect(); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer client.Close()
	conn := gw.waitConn(t)

	// 异常帧之后的合法帧仍须送达 handler
	if err := conn.WriteMessage(websocket.TextMessage, []byte("garbage frame")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, buildFrame(quoteFields())); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	select {
	case quote := <-quotes:
		if quote.StockCode != "005930" {
			t.Fatalf("expected stock code 005930, got %s", quote.StockCode)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for decoded quote")
	}

	// 读循环按序处理，合法帧送达时异常帧已计数
	if got := testutil.ToFloat64(m.MalformedFramesTotal); got != 1 {
		t.Fatalf("expected 1 malformed frame counted, got %v", got)
	}
}

func TestClientAnswersGatewayPing(t *testing.T) {
	gw := newTestGateway(t)

	client := NewClient(Config{URL: gw.url(), OrderBookTRID: "H0STASP0"}, nil, metrics.New("test"))
	if err := client.Connect(); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer client.Close()
	conn := gw.waitConn(t)

	ping := []byte(`{"header":{"tr_id":"PINGPONG"}}`)
	if err := conn.WriteMessage(websocket.TextMessage, ping); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	echo := gw.waitMessage(t)
	frame, err := DecodeControlFrame(echo)
	if err != nil {
		t.Fatalf("echo must be a control frame: %v", err)
	}
	if frame.Header.TrID != TRIDPingPong {
		t.Fatalf("expected PINGPONG echo, got %s", frame.Header.TrID)
	}
}

func TestClientEmitsKeepalivePing(t *testing.T) {
	gw := newTestGateway(t)

	client := NewClient(Config{
		URL:          gw.url(),
		PingInterval: 10 * time.Millisecond,
	}, nil, metrics.New("test"))
	if err := client.Connect(); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer client.Close()
	gw.waitConn(t)

	frame, err := DecodeControlFrame(gw.waitMessage(t))
	if err != nil {
		t.Fatalf("keepalive must be a control frame: %v", err)
	}
	if frame.Header.TrID != TRIDPingPong {
		t.Fatalf("expected PINGPONG keepalive, got %s", frame.Header.TrID)
	}
}

func TestClientSerializesConcurrentWrites(t *testing.T) {
	gw := newTestGateway(t)

	// 心跳、PINGPONG 回传与外部 Send 三路写同时进行
	client := NewClient(Config{
		URL:          gw.url(),
		PingInterval: time.Millisecond,
	}, nil, metrics.New("test"))
	if err := client.Connect(); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer client.Close()
	conn := gw.waitConn(t)

	var received atomic.Int64
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-gw.inbound:
				received.Add(1)
			case <-stop:
				return
			}
		}
	}()

	const writes = 50
	ping := []byte(`{"header":{"tr_id":"PINGPONG"}}`)
	frame := []byte(`{"header":{"tr_id":"H0STASP0"}}`)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			if err := conn.WriteMessage(websocket.TextMessage, ping); err != nil {
				t.Errorf("gateway write failed: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			if err := client.Send(frame); err != nil {
				t.Errorf("send failed: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	// 每个网关 ping 会被回传，加上 Send 的帧至少 2*writes 条
	deadline := time.After(2 * time.Second)
	for received.Load() < 2*writes {
		select {
		case <-deadline:
			t.Fatalf("expected at least %d frames, got %d", 2*writes, received.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestClientReconnectsAndRestoresSubscriptions(t *testing.T) {
	gw := newTestGateway(t)

	client := NewClient(Config{
		URL:            gw.url(),
		OrderBookTRID:  "H0STASP0",
		ReconnectDelay: 10 * time.Millisecond,
	}, nil, metrics.New("test"))
	if err := client.Connect(); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer client.Close()
	conn := gw.waitConn(t)

	if err := client.Subscribe("005930"); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	gw.waitMessage(t)

	// 网关侧断开，客户端须按配置延迟重连并恢复订阅
	conn.Close()
	gw.waitConn(t)

	var req subscribeRequest
	if err := json.Unmarshal(gw.waitMessage(t), &req); err != nil {
		t.Fatalf("restored subscribe frame must be valid JSON: %v", err)
	}
	if req.Header.TrType != trTypeSubscribe {
		t.Errorf("expected tr_type %s, got %s", trTypeSubscribe, req.Header.TrType)
	}
	if req.Body.Input.TrKey != "005930" {
		t.Errorf("expected restored tr_key 005930, got %s", req.Body.Input.TrKey)
	}
}

func TestClientReconnectIsSingleFlight(t *testing.T) {
	gw := newTestGateway(t)

	client := NewClient(Config{
		URL:            gw.url(),
		ReconnectDelay: 20 * time.Millisecond,
	}, nil, metrics.New("test"))
	if err := client.Connect(); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer client.Close()
	conn := gw.waitConn(t)

	conn.Close()

	// 断开窗口内连发多次，只允许一次重连
	frame := []byte(`{"header":{"tr_id":"H0STASP0"}}`)
	for i := 0; i < 5; i++ {
		client.Send(frame)
		time.Sleep(5 * time.Millisecond)
	}

	gw.waitConn(t)
	select {
	case <-gw.conns:
		t.Fatal("expected exactly one reconnect, got a second dial")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestSendWithoutConnection(t *testing.T) {
	client := NewClient(Config{URL: "ws://127.0.0.1:1"}, nil, metrics.New("test"))
	// 关闭后不再触发重连
	if err := client.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if err := client.Send([]byte("frame")); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}
