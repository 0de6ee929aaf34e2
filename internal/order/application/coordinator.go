// Package application 订单服务的应用层：订单生命周期协调器与查询用例
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	accdomain "github.com/wyfcoding/tradingvenue/internal/account/domain"
	mddomain "github.com/wyfcoding/tradingvenue/internal/marketdata/domain"
	"github.com/wyfcoding/tradingvenue/internal/order/domain"
	posdomain "github.com/wyfcoding/tradingvenue/internal/position/domain"
	refdomain "github.com/wyfcoding/tradingvenue/internal/referencedata/domain"
	"github.com/wyfcoding/tradingvenue/pkg/logger"
)

// errFillSkipped 成交尝试放弃：订单在加锁后已不处于 ACCEPTED
var errFillSkipped = errors.New("fill attempt skipped")

// errInsufficientPosition 锁内持仓复核失败：可卖数量在校验与结算之间被并发卖单消耗
var errInsufficientPosition = errors.New("insufficient position")

// TxManager 事务管理接口，事务句柄经 context 传递给仓储
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// IDAllocator 业务 ID 分配接口
type IDAllocator interface {
	OrderID() string
	ExecutionID() string
	PositionID() string
}

// QuoteSource 行情查询接口，读取必须无等待且不阻塞
type QuoteSource interface {
	Latest(symbol string) (*mddomain.Quote, bool)
}

// EventPublisher 订单事件发布接口
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event *OrderEvent) error
}

// MetricsRecorder 订单指标回调
type MetricsRecorder interface {
	RecordOrderSubmitted()
	RecordOrderFilled(duration time.Duration)
	RecordOrderRejected()
	RecordOrderCancelled()
	RecordExecution()
	RecordSettlementConflict()
	AddRestingOrders(delta float64)
}

// 订单事件类型
const (
	EventTypeOrderAccepted  = "ORDER_ACCEPTED"
	EventTypeOrderRejected  = "ORDER_REJECTED"
	EventTypeOrderFilled    = "ORDER_FILLED"
	EventTypeOrderCancelled = "ORDER_CANCELLED"
)

// OrderEvent 订单状态变更事件
type OrderEvent struct {
	EventType    string `json:"event_type"`
	OrderID      string `json:"order_id"`
	AccountID    string `json:"account_id"`
	Symbol       string `json:"symbol"`
	Side         string `json:"side"`
	Status       string `json:"status"`
	RejectReason string `json:"reject_reason,omitempty"`
	FilledQty    string `json:"filled_qty,omitempty"`
	FillPrice    string `json:"fill_price,omitempty"`
	OccurredAt   int64  `json:"occurred_at"`
}

// SubmitOrderCommand 下单命令
type SubmitOrderCommand struct {
	AccountID   string
	Symbol      string
	Side        string
	OrderType   string
	Quantity    string
	LimitPrice  string
	TimeInForce string
	Margin      bool
	ShortSell   bool
	Intraday    bool
	ComplexFee  bool
}

// Coordinator 订单生命周期协调器
// 串联校验、定价、成交记录、持仓与资金结算，
// 单笔成交的 {成交记录、持仓、流水、余额、订单状态} 在一个事务内原子提交；
// 事务内先锁订单行再锁账户行，所有路径保持一致加锁顺序；
// 报价读取发生在加锁之前，锁内不做任何外部 I/O
type Coordinator struct {
	orderRepo      domain.OrderRepository
	executionRepo  domain.ExecutionRepository
	accountRepo    accdomain.AccountRepository
	ledgerRepo     accdomain.LedgerRepository
	positionRepo   posdomain.PositionRepository
	instrumentRepo refdomain.InstrumentRepository
	validator      *domain.OrderValidator
	pricing        *domain.PricingService
	settlement     *accdomain.CashSettlementService
	quotes         QuoteSource
	txManager      TxManager
	ids            IDAllocator
	events         EventPublisher
	metrics        MetricsRecorder
	flatFee        decimal.Decimal
	venue          string
}

// NewCoordinator 创建订单生命周期协调器，events 与 metrics 可为 nil
func NewCoordinator(
	orderRepo domain.OrderRepository,
	executionRepo domain.ExecutionRepository,
	accountRepo accdomain.AccountRepository,
	ledgerRepo accdomain.LedgerRepository,
	positionRepo posdomain.PositionRepository,
	instrumentRepo refdomain.InstrumentRepository,
	settlement *accdomain.CashSettlementService,
	quotes QuoteSource,
	txManager TxManager,
	ids IDAllocator,
	events EventPublisher,
	metrics MetricsRecorder,
	flatFee decimal.Decimal,
	venue string,
) *Coordinator {
	return &Coordinator{
		orderRepo:      orderRepo,
		executionRepo:  executionRepo,
		accountRepo:    accountRepo,
		ledgerRepo:     ledgerRepo,
		positionRepo:   positionRepo,
		instrumentRepo: instrumentRepo,
		validator:      domain.NewOrderValidator(),
		pricing:        domain.NewPricingService(),
		settlement:     settlement,
		quotes:         quotes,
		txManager:      txManager,
		ids:            ids,
		events:         events,
		metrics:        metrics,
		flatFee:        flatFee,
		venue:          venue,
	}
}

// SubmitOrder 提交订单
// 校验基于无锁快照，拒绝即终态且不触碰其他实体；
// 通过后订单转为 ACCEPTED 并立即尝试成交，不可成交则挂单等待后续报价
func (c *Coordinator) SubmitOrder(ctx context.Context, cmd SubmitOrderCommand) (*OrderDTO, error) {
	order, err := c.buildOrder(cmd)
	if err != nil {
		return nil, err
	}

	vc, err := c.collectSnapshots(ctx, order)
	if err != nil {
		return nil, err
	}

	if reason := c.validator.Validate(order, vc); reason != "" {
		if err := order.Reject(reason); err != nil {
			return nil, err
		}
		if err := c.orderRepo.Create(ctx, order); err != nil {
			return nil, fmt.Errorf("failed to persist rejected order: %w", err)
		}
		if c.metrics != nil {
			c.metrics.RecordOrderRejected()
		}
		c.publishEvent(ctx, order, EventTypeOrderRejected)
		logger.Info(ctx, "Order rejected", "order_id", order.OrderID, "reason", reason)
		return toOrderDTO(order), nil
	}

	if err := order.Accept(); err != nil {
		return nil, err
	}
	if err := c.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}
	if c.metrics != nil {
		c.metrics.RecordOrderSubmitted()
	}
	c.publishEvent(ctx, order, EventTypeOrderAccepted)

	filled, err := c.attemptFill(ctx, order)
	if err != nil {
		// 成交失败不向调用方暴露：订单保持 ACCEPTED，等待下一个报价重试
		logger.Error(ctx, "Fill attempt failed, order remains accepted",
			"order_id", order.OrderID, "error", err)
	}
	if !filled && order.Status == domain.OrderStatusAccepted && c.metrics != nil {
		c.metrics.AddRestingOrders(1)
	}

	return toOrderDTO(order), nil
}

// CancelOrder 撤销订单
// 与成交共用同一把账户锁并在锁内复核状态；
// 订单已处于终态时撤销是空操作，返回当前状态
func (c *Coordinator) CancelOrder(ctx context.Context, orderID string) (*OrderDTO, error) {
	var result *domain.Order
	cancelled := false

	err := c.txManager.WithTx(ctx, func(txCtx context.Context) error {
		order, err := c.orderRepo.GetForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		result = order

		if order.Status != domain.OrderStatusAccepted {
			logger.Info(txCtx, "Cancel ignored, order not in cancellable state",
				"order_id", orderID, "status", order.Status)
			return nil
		}

		if _, err := c.accountRepo.GetForUpdate(txCtx, order.AccountID); err != nil {
			return err
		}
		if err := order.Cancel(); err != nil {
			return err
		}
		if err := c.orderRepo.Save(txCtx, order); err != nil {
			return err
		}
		cancelled = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cancelled {
		if c.metrics != nil {
			c.metrics.RecordOrderCancelled()
			c.metrics.AddRestingOrders(-1)
		}
		c.publishEvent(ctx, result, EventTypeOrderCancelled)
		logger.Info(ctx, "Order cancelled", "order_id", orderID)
	}
	return toOrderDTO(result), nil
}

// OnQuote 行情 tick 回调，重新评估该标的下的全部挂单
func (c *Coordinator) OnQuote(ctx context.Context, symbol string) {
	orders, err := c.orderRepo.ListRestingBySymbol(ctx, symbol)
	if err != nil {
		logger.Error(ctx, "Failed to list resting orders", "symbol", symbol, "error", err)
		return
	}

	for _, order := range orders {
		filled, err := c.attemptFill(ctx, order)
		if err != nil {
			logger.Error(ctx, "Fill attempt on quote tick failed",
				"order_id", order.OrderID, "error", err)
			continue
		}
		if filled && c.metrics != nil {
			c.metrics.AddRestingOrders(-1)
		}
	}
}

// attemptFill 执行一次成交尝试
// 定价决策基于加锁前读取的报价；事务内重读订单复核 ACCEPTED 状态，
// 锁定账户行与持仓行后依次写入成交记录、持仓、流水与余额。
// 防御性余额校验失败按瞬时冲突处理：整体回滚，订单保持 ACCEPTED
func (c *Coordinator) attemptFill(ctx context.Context, order *domain.Order) (bool, error) {
	decision := c.pricing.DecideFill(order, c.latestPrice(order.Symbol))
	if !decision.Marketable {
		return false, nil
	}

	start := time.Now()
	err := c.txManager.WithTx(ctx, func(txCtx context.Context) error {
		locked, err := c.orderRepo.GetForUpdate(txCtx, order.OrderID)
		if err != nil {
			return err
		}
		if locked.Status != domain.OrderStatusAccepted {
			return errFillSkipped
		}

		account, err := c.accountRepo.GetForUpdate(txCtx, locked.AccountID)
		if err != nil {
			return err
		}
		if !account.IsActive() {
			return accdomain.ErrAccountInactive
		}

		position, err := c.positionRepo.GetForUpdate(txCtx, locked.AccountID, locked.Symbol)
		if err != nil {
			return err
		}
		if position == nil {
			position = posdomain.NewPosition(c.ids.PositionID(), locked.AccountID, locked.Symbol)
		}
		if !locked.IsBuy() && decision.Quantity.GreaterThan(position.Quantity) {
			return errInsufficientPosition
		}

		now := time.Now()
		var entry *accdomain.LedgerEntry
		if locked.IsBuy() {
			entry, err = c.settlement.SettleBuyFill(account, decision.Quantity, decision.Price, c.flatFee, locked.OrderID, now)
		} else {
			entry, err = c.settlement.SettleSellFill(account, decision.Quantity, decision.Price, c.flatFee, locked.OrderID, now)
		}
		if err != nil {
			return err
		}

		execution := &domain.Execution{
			ExecutionID:   c.ids.ExecutionID(),
			OrderID:       locked.OrderID,
			ExecutedAt:    now,
			Price:         decision.Price,
			Quantity:      decision.Quantity,
			LiquidityFlag: domain.LiquidityFlagTaker,
			Fee:           c.flatFee,
		}
		if err := c.executionRepo.Append(txCtx, execution); err != nil {
			return err
		}

		signedQty := decision.Quantity
		if !locked.IsBuy() {
			signedQty = signedQty.Neg()
		}
		if err := position.ApplyFill(signedQty, decision.Price); err != nil {
			return err
		}
		if err := c.positionRepo.Save(txCtx, position); err != nil {
			return err
		}

		if err := c.ledgerRepo.Append(txCtx, entry); err != nil {
			return err
		}
		if err := c.accountRepo.Save(txCtx, account); err != nil {
			return err
		}

		if err := locked.Fill(decision.Quantity, decision.Price); err != nil {
			return err
		}
		if err := c.orderRepo.Save(txCtx, locked); err != nil {
			return err
		}

		order.Status = locked.Status
		order.FilledQuantity = locked.FilledQuantity
		order.AvgFillPrice = locked.AvgFillPrice
		return nil
	})

	switch {
	case err == nil:
		if c.metrics != nil {
			c.metrics.RecordOrderFilled(time.Since(start))
			c.metrics.RecordExecution()
		}
		c.publishEvent(ctx, order, EventTypeOrderFilled)
		logger.Info(ctx, "Order filled",
			"order_id", order.OrderID,
			"price", order.AvgFillPrice.String(),
			"quantity", order.FilledQuantity.String())
		return true, nil

	case errors.Is(err, errFillSkipped):
		return false, nil

	case errors.Is(err, accdomain.ErrInsufficientBalance), errors.Is(err, errInsufficientPosition):
		if c.metrics != nil {
			c.metrics.RecordSettlementConflict()
		}
		logger.Warn(ctx, "Fill aborted by defensive settlement check, order remains accepted",
			"order_id", order.OrderID, "error", err)
		return false, nil

	case errors.Is(err, accdomain.ErrAccountInactive):
		logger.Warn(ctx, "Fill aborted, account inactive", "order_id", order.OrderID)
		return false, nil

	default:
		return false, err
	}
}

// buildOrder 依据下单命令构建 NEW 状态订单
func (c *Coordinator) buildOrder(cmd SubmitOrderCommand) (*domain.Order, error) {
	side := domain.OrderSide(cmd.Side)
	if side != domain.OrderSideBuy && side != domain.OrderSideSell {
		return nil, fmt.Errorf("invalid side: %s", cmd.Side)
	}

	orderType := domain.OrderType(cmd.OrderType)
	if orderType != domain.OrderTypeMarket && orderType != domain.OrderTypeLimit {
		return nil, fmt.Errorf("invalid order type: %s", cmd.OrderType)
	}

	quantity, err := decimal.NewFromString(cmd.Quantity)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity: %w", err)
	}

	limitPrice := decimal.Zero
	if orderType == domain.OrderTypeLimit {
		limitPrice, err = decimal.NewFromString(cmd.LimitPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid limit price: %w", err)
		}
		if !limitPrice.IsPositive() {
			return nil, fmt.Errorf("limit price must be positive")
		}
	}

	tif := domain.TimeInForce(cmd.TimeInForce)
	if tif == "" {
		tif = domain.TimeInForceDay
	}
	if tif != domain.TimeInForceDay && tif != domain.TimeInForceGTC {
		return nil, fmt.Errorf("invalid time in force: %s", cmd.TimeInForce)
	}

	return &domain.Order{
		OrderID:     c.ids.OrderID(),
		AccountID:   cmd.AccountID,
		Symbol:      cmd.Symbol,
		Side:        side,
		OrderType:   orderType,
		Quantity:    quantity,
		LimitPrice:  limitPrice,
		TimeInForce: tif,
		Venue:       c.venue,
		Status:      domain.OrderStatusNew,
		Margin:      cmd.Margin,
		ShortSell:   cmd.ShortSell,
		Intraday:    cmd.Intraday,
		ComplexFee:  cmd.ComplexFee,
		SubmittedAt: time.Now(),
	}, nil
}

// collectSnapshots 在加锁前采集校验所需的标的、账户、持仓与报价快照
func (c *Coordinator) collectSnapshots(ctx context.Context, order *domain.Order) (domain.ValidationContext, error) {
	var vc domain.ValidationContext

	account, err := c.accountRepo.Get(ctx, order.AccountID)
	if err != nil {
		return vc, err
	}
	if !account.IsActive() {
		return vc, accdomain.ErrAccountInactive
	}
	vc.AvailableBalance = account.Balance

	instrument, err := c.instrumentRepo.GetBySymbol(ctx, order.Symbol)
	switch {
	case err == nil:
		vc.Instrument = &domain.InstrumentInfo{
			Active:  instrument.IsActive(),
			LotSize: instrument.LotSize,
		}
	case errors.Is(err, refdomain.ErrInstrumentNotFound):
		// 标的不存在与不可交易同样处理
	default:
		return vc, err
	}

	position, err := c.positionRepo.Get(ctx, order.AccountID, order.Symbol)
	switch {
	case err == nil:
		vc.PositionQuantity = position.Quantity
	case errors.Is(err, posdomain.ErrPositionNotFound):
		vc.PositionQuantity = decimal.Zero
	default:
		return vc, err
	}

	vc.QuotePrice = c.latestPrice(order.Symbol)
	vc.FlatFee = c.flatFee
	return vc, nil
}

// latestPrice 无等待读取最新报价，无可用报价时返回 nil
func (c *Coordinator) latestPrice(symbol string) *decimal.Decimal {
	quote, ok := c.quotes.Latest(symbol)
	if !ok {
		return nil
	}
	price := quote.LastPrice
	return &price
}

// publishEvent 发布订单事件，发布失败仅记录日志
func (c *Coordinator) publishEvent(ctx context.Context, order *domain.Order, eventType string) {
	if c.events == nil {
		return
	}

	event := &OrderEvent{
		EventType:    eventType,
		OrderID:      order.OrderID,
		AccountID:    order.AccountID,
		Symbol:       order.Symbol,
		Side:         string(order.Side),
		Status:       string(order.Status),
		RejectReason: string(order.RejectReason),
		OccurredAt:   time.Now().UnixMilli(),
	}
	if eventType == EventTypeOrderFilled {
		event.FilledQty = order.FilledQuantity.String()
		event.FillPrice = order.AvgFillPrice.String()
	}

	if err := c.events.PublishOrderEvent(ctx, event); err != nil {
		logger.Error(ctx, "Failed to publish order event",
			"order_id", order.OrderID, "event_type", eventType, "error", err)
	}
}
