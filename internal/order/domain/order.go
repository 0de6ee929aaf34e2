// Package domain 包含订单服务的领域模型：订单实体、状态机、校验器与成交定价
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderSide 订单方向
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType 订单类型
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// TimeInForce 订单有效期
type TimeInForce string

const (
	TimeInForceDay TimeInForce = "DAY"
	TimeInForceGTC TimeInForce = "GTC"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	// OrderStatusNew 已提交，尚未通过校验
	OrderStatusNew OrderStatus = "NEW"
	// OrderStatusAccepted 校验通过，等待成交
	OrderStatusAccepted OrderStatus = "ACCEPTED"
	// OrderStatusFilled 已全部成交（终态）
	OrderStatusFilled OrderStatus = "FILLED"
	// OrderStatusRejected 校验未通过（终态）
	OrderStatusRejected OrderStatus = "REJECTED"
	// OrderStatusCancelled 已撤销（终态）
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidStateTransition 非法状态迁移
	ErrInvalidStateTransition = errors.New("invalid order state transition")
	// ErrOrderTerminal 订单已处于终态
	ErrOrderTerminal = errors.New("order is in terminal state")
)

// 允许的状态迁移
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusNew:      {OrderStatusAccepted, OrderStatusRejected},
	OrderStatusAccepted: {OrderStatusFilled, OrderStatusCancelled},
}

// Order 订单实体
type Order struct {
	gorm.Model
	// 订单 ID (业务主键)
	OrderID string `gorm:"column:order_id;type:varchar(32);uniqueIndex;not null" json:"order_id"`
	// 账户 ID
	AccountID string `gorm:"column:account_id;type:varchar(32);index;not null" json:"account_id"`
	// 标的代码
	Symbol string `gorm:"column:symbol;type:varchar(20);index:idx_symbol_status;not null" json:"symbol"`
	// 方向
	Side OrderSide `gorm:"column:side;type:varchar(10);not null" json:"side"`
	// 类型
	OrderType OrderType `gorm:"column:order_type;type:varchar(10);not null" json:"order_type"`
	// 数量
	Quantity decimal.Decimal `gorm:"column:quantity;type:decimal(32,18);not null" json:"quantity"`
	// 限价，市价单为零
	LimitPrice decimal.Decimal `gorm:"column:limit_price;type:decimal(32,18);default:0" json:"limit_price"`
	// 有效期
	TimeInForce TimeInForce `gorm:"column:time_in_force;type:varchar(10);not null" json:"time_in_force"`
	// 交易场所
	Venue string `gorm:"column:venue;type:varchar(20)" json:"venue"`
	// 状态
	Status OrderStatus `gorm:"column:status;type:varchar(20);index:idx_symbol_status;not null" json:"status"`
	// 拒绝原因，仅 REJECTED 订单有值
	RejectReason RejectReason `gorm:"column:reject_reason;type:varchar(40)" json:"reject_reason"`
	// 已成交数量
	FilledQuantity decimal.Decimal `gorm:"column:filled_quantity;type:decimal(32,18);default:0" json:"filled_quantity"`
	// 成交均价
	AvgFillPrice decimal.Decimal `gorm:"column:avg_fill_price;type:decimal(32,18);default:0" json:"avg_fill_price"`
	// 保证金交易标记
	Margin bool `gorm:"column:margin;default:false" json:"margin"`
	// 卖空标记
	ShortSell bool `gorm:"column:short_sell;default:false" json:"short_sell"`
	// 日内交易标记
	Intraday bool `gorm:"column:intraday;default:false" json:"intraday"`
	// 复杂费用模型标记
	ComplexFee bool `gorm:"column:complex_fee;default:false" json:"complex_fee"`
	// 提交时间
	SubmittedAt time.Time `gorm:"column:submitted_at;not null" json:"submitted_at"`
}

// TableName 表名
func (Order) TableName() string {
	return "orders"
}

// IsBuy 是否买单
func (o *Order) IsBuy() bool {
	return o.Side == OrderSideBuy
}

// IsMarket 是否市价单
func (o *Order) IsMarket() bool {
	return o.OrderType == OrderTypeMarket
}

// IsTerminal 是否处于终态
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusFilled, OrderStatusRejected, OrderStatusCancelled:
		return true
	}
	return false
}

// SignedQuantity 有符号数量，买入为正
func (o *Order) SignedQuantity() decimal.Decimal {
	if o.IsBuy() {
		return o.Quantity
	}
	return o.Quantity.Neg()
}

// TransitionTo 执行状态迁移，终态订单与未定义迁移一律拒绝
func (o *Order) TransitionTo(target OrderStatus) error {
	if o.IsTerminal() {
		return fmt.Errorf("%w: %s -> %s: %s", ErrOrderTerminal, o.Status, target, o.OrderID)
	}
	for _, allowed := range allowedTransitions[o.Status] {
		if allowed == target {
			o.Status = target
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s: %s", ErrInvalidStateTransition, o.Status, target, o.OrderID)
}

// Accept 订单校验通过
func (o *Order) Accept() error {
	return o.TransitionTo(OrderStatusAccepted)
}

// Reject 订单校验未通过，记录拒绝原因
func (o *Order) Reject(reason RejectReason) error {
	if err := o.TransitionTo(OrderStatusRejected); err != nil {
		return err
	}
	o.RejectReason = reason
	return nil
}

// Fill 订单全部成交
func (o *Order) Fill(quantity, price decimal.Decimal) error {
	if err := o.TransitionTo(OrderStatusFilled); err != nil {
		return err
	}
	o.FilledQuantity = quantity
	o.AvgFillPrice = price
	return nil
}

// Cancel 撤销挂单
func (o *Order) Cancel() error {
	return o.TransitionTo(OrderStatusCancelled)
}

// OrderRepository 订单仓储接口
type OrderRepository interface {
	// Create 创建订单
	Create(ctx context.Context, order *Order) error
	// Get 按订单 ID 获取订单快照
	Get(ctx context.Context, orderID string) (*Order, error)
	// GetForUpdate 在当前事务内加排他锁后获取订单
	GetForUpdate(ctx context.Context, orderID string) (*Order, error)
	// Save 保存订单
	Save(ctx context.Context, order *Order) error
	// ListByAccount 分页获取账户订单
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*Order, int64, error)
	// ListRestingBySymbol 获取标的下全部挂单（ACCEPTED）
	ListRestingBySymbol(ctx context.Context, symbol string) ([]*Order, error)
}
