package application

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	accdomain "github.com/wyfcoding/tradingvenue/internal/account/domain"
	mdapp "github.com/wyfcoding/tradingvenue/internal/marketdata/application"
	mddomain "github.com/wyfcoding/tradingvenue/internal/marketdata/domain"
	"github.com/wyfcoding/tradingvenue/internal/order/domain"
	posdomain "github.com/wyfcoding/tradingvenue/internal/position/domain"
	refdomain "github.com/wyfcoding/tradingvenue/internal/referencedata/domain"
	"github.com/shopspring/decimal"
)

// memStore 内存存储，实现全部仓储接口与事务语义：
// WithTx 持有全局互斥锁并在回调失败时恢复快照，
// 锁外的仓储调用各自短暂加锁，与真实数据库的快照读一致
type memStore struct {
	mu          sync.Mutex
	accounts    map[string]accdomain.TradingAccount
	orders      map[string]domain.Order
	positions   map[string]posdomain.Position
	instruments map[string]refdomain.Instrument
	ledger      []accdomain.LedgerEntry
	executions  []domain.Execution
}

type inTxKey struct{}

type memSnapshot struct {
	accounts    map[string]accdomain.TradingAccount
	orders      map[string]domain.Order
	positions   map[string]posdomain.Position
	instruments map[string]refdomain.Instrument
	ledger      []accdomain.LedgerEntry
	executions  []domain.Execution
}

func newMemStore() *memStore {
	return &memStore{
		accounts:    make(map[string]accdomain.TradingAccount),
		orders:      make(map[string]domain.Order),
		positions:   make(map[string]posdomain.Position),
		instruments: make(map[string]refdomain.Instrument),
	}
}

// enter 获取存储锁；已在事务内时锁由 WithTx 持有，直接通过
func (s *memStore) enter(ctx context.Context) func() {
	if ctx.Value(inTxKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		accounts:    maps.Clone(s.accounts),
		orders:      maps.Clone(s.orders),
		positions:   maps.Clone(s.positions),
		instruments: maps.Clone(s.instruments),
		ledger:      slices.Clone(s.ledger),
		executions:  slices.Clone(s.executions),
	}

	err := fn(context.WithValue(ctx, inTxKey{}, struct{}{}))
	if err != nil {
		s.accounts = snap.accounts
		s.orders = snap.orders
		s.positions = snap.positions
		s.instruments = snap.instruments
		s.ledger = snap.ledger
		s.executions = snap.executions
	}
	return err
}

func positionKey(accountID, symbol string) string {
	return accountID + "|" + symbol
}

// --- 账户仓储 ---

type memAccountRepo struct{ s *memStore }

func (r *memAccountRepo) Create(ctx context.Context, account *accdomain.TradingAccount) error {
	defer r.s.enter(ctx)()
	if _, ok := r.s.accounts[account.AccountID]; ok {
		return fmt.Errorf("duplicate account %s", account.AccountID)
	}
	r.s.accounts[account.AccountID] = *account
	return nil
}

func (r *memAccountRepo) Get(ctx context.Context, accountID string) (*accdomain.TradingAccount, error) {
	defer r.s.enter(ctx)()
	account, ok := r.s.accounts[accountID]
	if !ok {
		return nil, accdomain.ErrAccountNotFound
	}
	return &account, nil
}

func (r *memAccountRepo) GetForUpdate(ctx context.Context, accountID string) (*accdomain.TradingAccount, error) {
	return r.Get(ctx, accountID)
}

func (r *memAccountRepo) Save(ctx context.Context, account *accdomain.TradingAccount) error {
	defer r.s.enter(ctx)()
	r.s.accounts[account.AccountID] = *account
	return nil
}

// --- 资金流水仓储 ---

type memLedgerRepo struct{ s *memStore }

func (r *memLedgerRepo) Append(ctx context.Context, entry *accdomain.LedgerEntry) error {
	defer r.s.enter(ctx)()
	r.s.ledger = append(r.s.ledger, *entry)
	return nil
}

func (r *memLedgerRepo) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*accdomain.LedgerEntry, int64, error) {
	defer r.s.enter(ctx)()
	var entries []*accdomain.LedgerEntry
	for i := range r.s.ledger {
		if r.s.ledger[i].AccountID == accountID {
			entry := r.s.ledger[i]
			entries = append(entries, &entry)
		}
	}
	total := int64(len(entries))
	if offset > len(entries) {
		offset = len(entries)
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, total, nil
}

// --- 订单仓储 ---

type memOrderRepo struct{ s *memStore }

func (r *memOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	defer r.s.enter(ctx)()
	if _, ok := r.s.orders[order.OrderID]; ok {
		return fmt.Errorf("duplicate order %s", order.OrderID)
	}
	r.s.orders[order.OrderID] = *order
	return nil
}

func (r *memOrderRepo) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	defer r.s.enter(ctx)()
	order, ok := r.s.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &order, nil
}

func (r *memOrderRepo) GetForUpdate(ctx context.Context, orderID string) (*domain.Order, error) {
	return r.Get(ctx, orderID)
}

func (r *memOrderRepo) Save(ctx context.Context, order *domain.Order) error {
	defer r.s.enter(ctx)()
	r.s.orders[order.OrderID] = *order
	return nil
}

func (r *memOrderRepo) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Order, int64, error) {
	defer r.s.enter(ctx)()
	var orders []*domain.Order
	for _, id := range slices.Sorted(maps.Keys(r.s.orders)) {
		if r.s.orders[id].AccountID == accountID {
			order := r.s.orders[id]
			orders = append(orders, &order)
		}
	}
	return orders, int64(len(orders)), nil
}

func (r *memOrderRepo) ListRestingBySymbol(ctx context.Context, symbol string) ([]*domain.Order, error) {
	defer r.s.enter(ctx)()
	var orders []*domain.Order
	for _, id := range slices.Sorted(maps.Keys(r.s.orders)) {
		o := r.s.orders[id]
		if o.Symbol == symbol && o.Status == domain.OrderStatusAccepted {
			order := o
			orders = append(orders, &order)
		}
	}
	return orders, nil
}

// --- 成交仓储 ---

type memExecutionRepo struct{ s *memStore }

func (r *memExecutionRepo) Append(ctx context.Context, execution *domain.Execution) error {
	defer r.s.enter(ctx)()
	r.s.executions = append(r.s.executions, *execution)
	return nil
}

func (r *memExecutionRepo) ListByOrder(ctx context.Context, orderID string) ([]*domain.Execution, error) {
	defer r.s.enter(ctx)()
	var executions []*domain.Execution
	for i := range r.s.executions {
		if r.s.executions[i].OrderID == orderID {
			execution := r.s.executions[i]
			executions = append(executions, &execution)
		}
	}
	return executions, nil
}

// --- 持仓仓储 ---

type memPositionRepo struct{ s *memStore }

func (r *memPositionRepo) Get(ctx context.Context, accountID, symbol string) (*posdomain.Position, error) {
	defer r.s.enter(ctx)()
	position, ok := r.s.positions[positionKey(accountID, symbol)]
	if !ok {
		return nil, posdomain.ErrPositionNotFound
	}
	return &position, nil
}

func (r *memPositionRepo) GetForUpdate(ctx context.Context, accountID, symbol string) (*posdomain.Position, error) {
	defer r.s.enter(ctx)()
	position, ok := r.s.positions[positionKey(accountID, symbol)]
	if !ok {
		return nil, nil
	}
	return &position, nil
}

func (r *memPositionRepo) Save(ctx context.Context, position *posdomain.Position) error {
	defer r.s.enter(ctx)()
	r.s.positions[positionKey(position.AccountID, position.Symbol)] = *position
	return nil
}

func (r *memPositionRepo) ListByAccount(ctx context.Context, accountID string) ([]*posdomain.Position, error) {
	defer r.s.enter(ctx)()
	var positions []*posdomain.Position
	for _, key := range slices.Sorted(maps.Keys(r.s.positions)) {
		if r.s.positions[key].AccountID == accountID {
			position := r.s.positions[key]
			positions = append(positions, &position)
		}
	}
	return positions, nil
}

// --- 标的仓储 ---

type memInstrumentRepo struct{ s *memStore }

func (r *memInstrumentRepo) Save(ctx context.Context, instrument *refdomain.Instrument) error {
	defer r.s.enter(ctx)()
	r.s.instruments[instrument.Symbol] = *instrument
	return nil
}

func (r *memInstrumentRepo) GetBySymbol(ctx context.Context, symbol string) (*refdomain.Instrument, error) {
	defer r.s.enter(ctx)()
	instrument, ok := r.s.instruments[symbol]
	if !ok {
		return nil, refdomain.ErrInstrumentNotFound
	}
	return &instrument, nil
}

func (r *memInstrumentRepo) List(ctx context.Context, limit, offset int) ([]*refdomain.Instrument, int64, error) {
	defer r.s.enter(ctx)()
	var instruments []*refdomain.Instrument
	for _, symbol := range slices.Sorted(maps.Keys(r.s.instruments)) {
		instrument := r.s.instruments[symbol]
		instruments = append(instruments, &instrument)
	}
	return instruments, int64(len(instruments)), nil
}

// --- ID 生成与事件 ---

type fakeIDs struct{ n atomic.Int64 }

func (f *fakeIDs) next(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, f.n.Add(1))
}

func (f *fakeIDs) OrderID() string       { return f.next("ORD") }
func (f *fakeIDs) ExecutionID() string   { return f.next("EXE") }
func (f *fakeIDs) PositionID() string    { return f.next("POS") }
func (f *fakeIDs) LedgerEntryID() string { return f.next("LED") }

type fakeEvents struct {
	mu     sync.Mutex
	events []*OrderEvent
}

func (f *fakeEvents) PublishOrderEvent(ctx context.Context, event *OrderEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, 0, len(f.events))
	for _, e := range f.events {
		types = append(types, e.EventType)
	}
	return types
}

// --- 测试夹具 ---

type fixture struct {
	store  *memStore
	board  *mdapp.Board
	coord  *Coordinator
	events *fakeEvents
	ids    *fakeIDs
}

func newFixture(flatFee string) *fixture {
	store := newMemStore()
	board := mdapp.NewBoard(0)
	board.SetState(context.Background(), mddomain.FeedStateRunning)

	ids := &fakeIDs{}
	events := &fakeEvents{}
	f := &fixture{store: store, board: board, events: events, ids: ids}
	f.coord = f.newCoordinator(flatFee)
	board.OnTick(f.coord.OnQuote)
	return f
}

// newCoordinator 以不同费用构建共享同一存储的协调器
func (f *fixture) newCoordinator(flatFee string) *Coordinator {
	return NewCoordinator(
		&memOrderRepo{f.store}, &memExecutionRepo{f.store},
		&memAccountRepo{f.store}, &memLedgerRepo{f.store},
		&memPositionRepo{f.store}, &memInstrumentRepo{f.store},
		accdomain.NewCashSettlementService(f.ids),
		f.board, f.store, f.ids, f.events, nil,
		decimal.RequireFromString(flatFee), "XVEN",
	)
}

func (f *fixture) addAccount(accountID, balance string) {
	account := accdomain.NewTradingAccount(accountID, "INR")
	account.Balance = decimal.RequireFromString(balance)
	f.store.accounts[accountID] = *account
}

func (f *fixture) addInstrument(symbol, lotSize string, active bool) {
	status := refdomain.InstrumentStatusActive
	if !active {
		status = refdomain.InstrumentStatusInactive
	}
	f.store.instruments[symbol] = refdomain.Instrument{
		InstrumentID: symbol,
		Symbol:       symbol,
		LotSize:      decimal.RequireFromString(lotSize),
		TickSize:     decimal.RequireFromString("0.01"),
		Currency:     "INR",
		Status:       status,
	}
}

func (f *fixture) publish(symbol, price string) {
	p := decimal.RequireFromString(price)
	f.board.Publish(context.Background(),
		mddomain.NewQuote(symbol, p, p, p, time.Now().UnixMilli(), "test"))
}

func (f *fixture) account(accountID string) accdomain.TradingAccount {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.accounts[accountID]
}

func (f *fixture) order(orderID string) domain.Order {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.orders[orderID]
}

func (f *fixture) position(accountID, symbol string) (posdomain.Position, bool) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	position, ok := f.store.positions[positionKey(accountID, symbol)]
	return position, ok
}

func (f *fixture) ledgerEntries() []accdomain.LedgerEntry {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return slices.Clone(f.store.ledger)
}

func (f *fixture) executionRecords() []domain.Execution {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return slices.Clone(f.store.executions)
}
