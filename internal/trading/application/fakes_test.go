package application

import (
	"context"

	"github.com/shopspring/decimal"
	accountdomain "github.com/stockr/trading/internal/account/domain"
	stockdomain "github.com/stockr/trading/internal/stock/domain"
	"github.com/stockr/trading/internal/trading/domain"
)

// 内存仓储：保存副本，未 Save 的修改不落地，贴近真实仓储的语义

type fakeTxManager struct {
	err error
}

func (m *fakeTxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.err != nil {
		return m.err
	}
	return fn(ctx)
}

type fakeOrderRepo struct {
	orders  map[uint]domain.LimitOrder
	nextID  uint
	saveErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uint]domain.LimitOrder)}
}

func (r *fakeOrderRepo) Save(ctx context.Context, order *domain.LimitOrder) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	if order.ID == 0 {
		r.nextID++
		order.ID = r.nextID
	}
	r.orders[order.ID] = *order
	return nil
}

func (r *fakeOrderRepo) Get(ctx context.Context, id uint) (*domain.LimitOrder, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

func (r *fakeOrderRepo) GetForUpdate(ctx context.Context, id uint) (*domain.LimitOrder, error) {
	return r.Get(ctx, id)
}

func (r *fakeOrderRepo) ListByStockAndStatus(ctx context.Context, stockID uint, status domain.OrderStatus) ([]*domain.LimitOrder, error) {
	var out []*domain.LimitOrder
	for id := uint(1); id <= r.nextID; id++ {
		order, ok := r.orders[id]
		if ok && order.StockID == stockID && order.Status == status {
			o := order
			out = append(out, &o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListByAccountAndStatus(ctx context.Context, accountID uint, status domain.OrderStatus) ([]*domain.LimitOrder, error) {
	var out []*domain.LimitOrder
	for id := uint(1); id <= r.nextID; id++ {
		order, ok := r.orders[id]
		if ok && order.AccountID == accountID && order.Status == status {
			o := order
			out = append(out, &o)
		}
	}
	return out, nil
}

type fakeAccountRepo struct {
	accounts map[uint]accountdomain.Account
	saveErr  error
	// 记录行锁获取顺序，与持仓仓储共享
	lockTrace *[]string
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uint]accountdomain.Account)}
}

func (r *fakeAccountRepo) Get(ctx context.Context, id uint) (*accountdomain.Account, error) {
	account, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	return &account, nil
}

func (r *fakeAccountRepo) GetForUpdate(ctx context.Context, id uint) (*accountdomain.Account, error) {
	if r.lockTrace != nil {
		*r.lockTrace = append(*r.lockTrace, "account")
	}
	return r.Get(ctx, id)
}

func (r *fakeAccountRepo) Save(ctx context.Context, account *accountdomain.Account) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.accounts[account.ID] = *account
	return nil
}

type holdingKey struct {
	accountID uint
	stockID   uint
}

type fakeHoldingRepo struct {
	holdings  map[holdingKey]stockdomain.StockHolding
	saveErr   error
	lockTrace *[]string
}

func newFakeHoldingRepo() *fakeHoldingRepo {
	return &fakeHoldingRepo{holdings: make(map[holdingKey]stockdomain.StockHolding)}
}

func (r *fakeHoldingRepo) GetByAccountAndStock(ctx context.Context, accountID, stockID uint) (*stockdomain.StockHolding, error) {
	holding, ok := r.holdings[holdingKey{accountID, stockID}]
	if !ok {
		return nil, nil
	}
	return &holding, nil
}

func (r *fakeHoldingRepo) GetByAccountAndStockForUpdate(ctx context.Context, accountID, stockID uint) (*stockdomain.StockHolding, error) {
	if r.lockTrace != nil {
		*r.lockTrace = append(*r.lockTrace, "holding")
	}
	return r.GetByAccountAndStock(ctx, accountID, stockID)
}

func (r *fakeHoldingRepo) ListByAccount(ctx context.Context, accountID uint) ([]*stockdomain.StockHolding, error) {
	var out []*stockdomain.StockHolding
	for key, holding := range r.holdings {
		if key.accountID == accountID {
			h := holding
			out = append(out, &h)
		}
	}
	return out, nil
}

func (r *fakeHoldingRepo) Save(ctx context.Context, holding *stockdomain.StockHolding) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.holdings[holdingKey{holding.AccountID, holding.StockID}] = *holding
	return nil
}

type fakeStockRepo struct {
	stocks map[string]stockdomain.Stock
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{stocks: make(map[string]stockdomain.Stock)}
}

func (r *fakeStockRepo) GetByTicker(ctx context.Context, ticker string) (*stockdomain.Stock, error) {
	stock, ok := r.stocks[ticker]
	if !ok {
		return nil, nil
	}
	return &stock, nil
}

func (r *fakeStockRepo) Get(ctx context.Context, id uint) (*stockdomain.Stock, error) {
	for _, stock := range r.stocks {
		if stock.ID == id {
			s := stock
			return &s, nil
		}
	}
	return nil, nil
}

func (r *fakeStockRepo) Save(ctx context.Context, stock *stockdomain.Stock) error {
	r.stocks[stock.Ticker] = *stock
	return nil
}

type fakeTradeLogRepo struct {
	logs    []domain.TradeLog
	saveErr error
}

func (r *fakeTradeLogRepo) Save(ctx context.Context, tradeLog *domain.TradeLog) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.logs = append(r.logs, *tradeLog)
	return nil
}

func (r *fakeTradeLogRepo) ListByAccount(ctx context.Context, accountID uint, limit int) ([]*domain.TradeLog, error) {
	var out []*domain.TradeLog
	for i := len(r.logs) - 1; i >= 0; i-- {
		if r.logs[i].AccountID != accountID {
			continue
		}
		l := r.logs[i]
		out = append(out, &l)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakePriceProvider struct {
	price decimal.Decimal
	ok    bool
	err   error
}

func (p *fakePriceProvider) LatestPrice(ctx context.Context, stockCode string) (decimal.Decimal, bool, error) {
	return p.price, p.ok, p.err
}

type execCall struct {
	orderID uint
	price   decimal.Decimal
}

type fakeExecutor struct {
	calls []execCall
	errs  map[uint]error
}

func (e *fakeExecutor) Execute(ctx context.Context, orderID uint, tickPrice decimal.Decimal) error {
	e.calls = append(e.calls, execCall{orderID: orderID, price: tickPrice})
	if err, ok := e.errs[orderID]; ok {
		return err
	}
	return nil
}
