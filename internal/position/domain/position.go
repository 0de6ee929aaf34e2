// Package domain 包含持仓服务的领域模型：持仓实体与加权平均成本算法
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrPositionNotFound 持仓不存在
	ErrPositionNotFound = errors.New("position not found")
)

// Position 持仓实体
// 每个 (账户, 标的) 至多一条记录，成交按加权平均成本法入仓：
// 同向加仓重算均价，反向减仓按当前均价实现盈亏且均价不变，
// 穿仓反向后以成交价作为新均价
type Position struct {
	gorm.Model
	// 持仓 ID (业务主键)
	PositionID string `gorm:"column:position_id;type:varchar(32);uniqueIndex;not null" json:"position_id"`
	// 账户 ID
	AccountID string `gorm:"column:account_id;type:varchar(32);uniqueIndex:idx_account_symbol;not null" json:"account_id"`
	// 标的代码
	Symbol string `gorm:"column:symbol;type:varchar(20);uniqueIndex:idx_account_symbol;not null" json:"symbol"`
	// 持仓数量，有符号，多头为正
	Quantity decimal.Decimal `gorm:"column:quantity;type:decimal(32,18);default:0;not null" json:"quantity"`
	// 加权平均成本
	AverageCost decimal.Decimal `gorm:"column:average_cost;type:decimal(32,18);default:0;not null" json:"average_cost"`
	// 最新成交价
	LastPx decimal.Decimal `gorm:"column:last_px;type:decimal(32,18);default:0" json:"last_px"`
	// 浮动盈亏
	UnrealizedPnl decimal.Decimal `gorm:"column:unrealized_pnl;type:decimal(32,18);default:0" json:"unrealized_pnl"`
	// 已实现盈亏（累计）
	RealizedPnl decimal.Decimal `gorm:"column:realized_pnl;type:decimal(32,18);default:0" json:"realized_pnl"`
}

// TableName 表名
func (Position) TableName() string {
	return "positions"
}

// NewPosition 创建空持仓
func NewPosition(positionID, accountID, symbol string) *Position {
	return &Position{
		PositionID:  positionID,
		AccountID:   accountID,
		Symbol:      symbol,
		Quantity:    decimal.Zero,
		AverageCost: decimal.Zero,
	}
}

// IsFlat 是否空仓
func (p *Position) IsFlat() bool {
	return p.Quantity.IsZero()
}

// ApplyFill 将一笔成交并入持仓，signedQty 买入为正、卖出为负
//
// 同向（或空仓开仓）：均价按数量加权重算；
// 反向减仓：按 (price - avgCost) * 平仓数量 * 方向 计提已实现盈亏，均价不变，平光后归零；
// 反向穿仓：先对原有数量全额计提盈亏，剩余数量以成交价开新仓
func (p *Position) ApplyFill(signedQty, price decimal.Decimal) error {
	if signedQty.IsZero() {
		return errors.New("fill quantity must be non-zero")
	}
	if !price.IsPositive() {
		return errors.New("fill price must be positive")
	}

	newQty := p.Quantity.Add(signedQty)

	switch {
	case p.Quantity.IsZero() || p.Quantity.Sign() == signedQty.Sign():
		// 开仓或同向加仓
		totalCost := p.Quantity.Abs().Mul(p.AverageCost).Add(signedQty.Abs().Mul(price))
		p.AverageCost = totalCost.Div(newQty.Abs())

	case newQty.IsZero() || newQty.Sign() == p.Quantity.Sign():
		// 反向减仓或平仓
		closedQty := signedQty.Abs()
		direction := decimal.NewFromInt(int64(p.Quantity.Sign()))
		p.RealizedPnl = p.RealizedPnl.Add(price.Sub(p.AverageCost).Mul(closedQty).Mul(direction))
		if newQty.IsZero() {
			p.AverageCost = decimal.Zero
		}

	default:
		// 穿仓：原持仓全部平掉，剩余部分反向开仓
		closedQty := p.Quantity.Abs()
		direction := decimal.NewFromInt(int64(p.Quantity.Sign()))
		p.RealizedPnl = p.RealizedPnl.Add(price.Sub(p.AverageCost).Mul(closedQty).Mul(direction))
		p.AverageCost = price
	}

	p.Quantity = newQty
	p.MarkPrice(price)
	return nil
}

// MarkPrice 按最新价刷新浮动盈亏
func (p *Position) MarkPrice(price decimal.Decimal) {
	p.LastPx = price
	if p.Quantity.IsZero() {
		p.UnrealizedPnl = decimal.Zero
		return
	}
	p.UnrealizedPnl = price.Sub(p.AverageCost).Mul(p.Quantity)
}

// PositionRepository 持仓仓储接口
type PositionRepository interface {
	// Get 按账户与标的获取持仓快照，不存在时返回 ErrPositionNotFound
	Get(ctx context.Context, accountID, symbol string) (*Position, error)
	// GetForUpdate 在当前事务内加排他锁后获取持仓，不存在时返回 (nil, nil)
	GetForUpdate(ctx context.Context, accountID, symbol string) (*Position, error)
	// Save 保存持仓
	Save(ctx context.Context, position *Position) error
	// ListByAccount 获取账户全部持仓
	ListByAccount(ctx context.Context, accountID string) ([]*Position, error)
}
