// Package domain 包含参考数据服务的领域模型
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InstrumentStatus 标的状态
type InstrumentStatus string

const (
	InstrumentStatusActive   InstrumentStatus = "ACTIVE"
	InstrumentStatusInactive InstrumentStatus = "INACTIVE"
)

// ErrInstrumentNotFound 标的不存在
var ErrInstrumentNotFound = errors.New("instrument not found")

// Instrument 标的实体
// 核心只读取其快照：最小交易单位、状态、币种
type Instrument struct {
	gorm.Model
	// 标的 ID (业务主键)
	InstrumentID string `gorm:"column:instrument_id;type:varchar(32);uniqueIndex;not null" json:"instrument_id"`
	// 交易符号
	Symbol string `gorm:"column:symbol;type:varchar(20);uniqueIndex;not null" json:"symbol"`
	// 名称
	Name string `gorm:"column:name;type:varchar(100)" json:"name"`
	// 最小交易单位，订单数量必须是其整数倍
	LotSize decimal.Decimal `gorm:"column:lot_size;type:decimal(20,8);not null" json:"lot_size"`
	// 最小报价单位
	TickSize decimal.Decimal `gorm:"column:tick_size;type:decimal(20,8);not null" json:"tick_size"`
	// 币种
	Currency string `gorm:"column:currency;type:varchar(10);not null" json:"currency"`
	// 状态
	Status InstrumentStatus `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
}

// TableName 表名
func (Instrument) TableName() string {
	return "instruments"
}

// NewInstrument 创建标的
func NewInstrument(instrumentID, symbol, name string, lotSize, tickSize decimal.Decimal, currency string) *Instrument {
	return &Instrument{
		InstrumentID: instrumentID,
		Symbol:       symbol,
		Name:         name,
		LotSize:      lotSize,
		TickSize:     tickSize,
		Currency:     currency,
		Status:       InstrumentStatusActive,
	}
}

// IsActive 是否可交易
func (i *Instrument) IsActive() bool {
	return i.Status == InstrumentStatusActive
}

// IsValidQuantity 数量是否为正且为最小交易单位的整数倍
func (i *Instrument) IsValidQuantity(qty decimal.Decimal) bool {
	if !qty.IsPositive() {
		return false
	}
	if !i.LotSize.IsPositive() {
		return false
	}
	return qty.Mod(i.LotSize).IsZero()
}

// Deactivate 停牌
func (i *Instrument) Deactivate() {
	i.Status = InstrumentStatusInactive
}

// Activate 复牌
func (i *Instrument) Activate() {
	i.Status = InstrumentStatusActive
}

// InstrumentRepository 标的仓储接口
type InstrumentRepository interface {
	// Save 保存或更新标的
	Save(ctx context.Context, instrument *Instrument) error
	// GetBySymbol 按符号获取标的
	GetBySymbol(ctx context.Context, symbol string) (*Instrument, error)
	// List 分页获取标的列表
	List(ctx context.Context, limit, offset int) ([]*Instrument, int64, error)
}
