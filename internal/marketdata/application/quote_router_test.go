package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockr/trading/internal/marketdata/domain"
	"github.com/stockr/trading/pkg/metrics"
)

type fakeQuoteCache struct {
	latest  map[string]*domain.Quote
	targets map[string]struct{}
	setErr  error
	getErr  error
}

func newFakeQuoteCache() *fakeQuoteCache {
	return &fakeQuoteCache{
		latest:  make(map[string]*domain.Quote),
		targets: make(map[string]struct{}),
	}
}

func (c *fakeQuoteCache) SetLatest(ctx context.Context, quote *domain.Quote) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.latest[quote.StockCode] = quote
	return nil
}

func (c *fakeQuoteCache) GetLatest(ctx context.Context, stockCode string) (*domain.Quote, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.latest[stockCode], nil
}

func (c *fakeQuoteCache) AddTargetStock(ctx context.Context, stockCode string) error {
	c.targets[stockCode] = struct{}{}
	return nil
}

func (c *fakeQuoteCache) RemoveTargetStock(ctx context.Context, stockCode string) error {
	delete(c.targets, stockCode)
	return nil
}

func (c *fakeQuoteCache) TargetStocks(ctx context.Context) ([]string, error) {
	var out []string
	for code := range c.targets {
		out = append(out, code)
	}
	return out, nil
}

type fakePublisher struct {
	quotes []*domain.Quote
	books  []*domain.OrderBook
	err    error
}

func (p *fakePublisher) PublishQuote(ctx context.Context, quote *domain.Quote) error {
	if p.err != nil {
		return p.err
	}
	p.quotes = append(p.quotes, quote)
	return nil
}

func (p *fakePublisher) PublishOrderBook(ctx context.Context, book *domain.OrderBook) error {
	if p.err != nil {
		return p.err
	}
	p.books = append(p.books, book)
	return nil
}

type tickCall struct {
	stockCode string
	price     decimal.Decimal
}

type fakeEngine struct {
	ticks []tickCall
}

func (e *fakeEngine) OnTick(ctx context.Context, stockCode string, price decimal.Decimal) {
	e.ticks = append(e.ticks, tickCall{stockCode: stockCode, price: price})
}

func sampleQuote(code, price string) *domain.Quote {
	return &domain.Quote{
		StockCode: code,
		TickTime:  "093015",
		Price:     decimal.RequireFromString(price),
		Timestamp: time.Now(),
	}
}

func TestRouteFansOutToAllDownstreams(t *testing.T) {
	cache := newFakeQuoteCache()
	publisher := &fakePublisher{}
	engine := &fakeEngine{}
	router := NewQuoteRouter(cache, publisher, engine, metrics.New("test"))

	quote := sampleQuote("005930", "71000")
	book := &domain.OrderBook{StockCode: "005930"}

	router.Route(context.Background(), quote, book)

	if cache.latest["005930"] != quote {
		t.Fatal("quote must be cached")
	}
	if len(publisher.quotes) != 1 || len(publisher.books) != 1 {
		t.Fatalf("expected 1 quote and 1 book published, got %d/%d", len(publisher.quotes), len(publisher.books))
	}
	if len(engine.ticks) != 1 {
		t.Fatalf("expected 1 tick, got %d", len(engine.ticks))
	}
	tick := engine.ticks[0]
	if tick.stockCode != "005930" || !tick.price.Equal(decimal.NewFromInt(71000)) {
		t.Fatalf("unexpected tick: %+v", tick)
	}
}

func TestRouteCacheFailureDoesNotBlockMatching(t *testing.T) {
	cache := newFakeQuoteCache()
	cache.setErr = errors.New("redis down")
	publisher := &fakePublisher{}
	engine := &fakeEngine{}
	router := NewQuoteRouter(cache, publisher, engine, metrics.New("test"))

	router.Route(context.Background(), sampleQuote("005930", "71000"), nil)

	if len(publisher.quotes) != 1 {
		t.Fatalf("quote must still be published, got %d", len(publisher.quotes))
	}
	if len(engine.ticks) != 1 {
		t.Fatalf("tick must still reach the engine, got %d", len(engine.ticks))
	}
}

func TestRoutePublishFailureDoesNotBlockMatching(t *testing.T) {
	cache := newFakeQuoteCache()
	publisher := &fakePublisher{err: errors.New("kafka down")}
	engine := &fakeEngine{}
	router := NewQuoteRouter(cache, publisher, engine, metrics.New("test"))

	router.Route(context.Background(), sampleQuote("005930", "71000"), &domain.OrderBook{StockCode: "005930"})

	if len(engine.ticks) != 1 {
		t.Fatalf("tick must still reach the engine, got %d", len(engine.ticks))
	}
}

func TestRouteIgnoresNilQuote(t *testing.T) {
	cache := newFakeQuoteCache()
	publisher := &fakePublisher{}
	engine := &fakeEngine{}
	router := NewQuoteRouter(cache, publisher, engine, metrics.New("test"))

	router.Route(context.Background(), nil, nil)

	if len(engine.ticks) != 0 || len(publisher.quotes) != 0 {
		t.Fatal("nil quote must be a no-op")
	}
}

func TestLatestPrice(t *testing.T) {
	cache := newFakeQuoteCache()
	svc := NewQuoteQueryService(cache)
	ctx := context.Background()

	if _, ok, err := svc.LatestPrice(ctx, "005930"); err != nil || ok {
		t.Fatalf("expected no price, got ok=%v err=%v", ok, err)
	}

	cache.latest["005930"] = sampleQuote("005930", "71000")
	price, ok, err := svc.LatestPrice(ctx, "005930")
	if err != nil || !ok {
		t.Fatalf("expected price, got ok=%v err=%v", ok, err)
	}
	if want := decimal.NewFromInt(71000); !price.Equal(want) {
		t.Fatalf("expected price %s, got %s", want, price)
	}
}
