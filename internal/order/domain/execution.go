package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LiquidityFlag 流动性标记
type LiquidityFlag string

const (
	// LiquidityFlagTaker 吃单方
	LiquidityFlagTaker LiquidityFlag = "TAKER"
	// LiquidityFlagMaker 挂单方
	LiquidityFlagMaker LiquidityFlag = "MAKER"
)

// Execution 成交记录实体，创建后不再变更
type Execution struct {
	gorm.Model
	// 成交 ID (业务主键)
	ExecutionID string `gorm:"column:execution_id;type:varchar(32);uniqueIndex;not null" json:"execution_id"`
	// 订单 ID
	OrderID string `gorm:"column:order_id;type:varchar(32);index;not null" json:"order_id"`
	// 成交时间
	ExecutedAt time.Time `gorm:"column:executed_at;not null" json:"executed_at"`
	// 成交价
	Price decimal.Decimal `gorm:"column:price;type:decimal(32,18);not null" json:"price"`
	// 成交数量
	Quantity decimal.Decimal `gorm:"column:quantity;type:decimal(32,18);not null" json:"quantity"`
	// 流动性标记
	LiquidityFlag LiquidityFlag `gorm:"column:liquidity_flag;type:varchar(10);not null" json:"liquidity_flag"`
	// 费用
	Fee decimal.Decimal `gorm:"column:fee;type:decimal(32,18);default:0;not null" json:"fee"`
}

// TableName 表名
func (Execution) TableName() string {
	return "executions"
}

// ExecutionRepository 成交仓储接口，只追加
type ExecutionRepository interface {
	// Append 追加一条成交记录
	Append(ctx context.Context, execution *Execution) error
	// ListByOrder 获取订单的全部成交
	ListByOrder(ctx context.Context, orderID string) ([]*Execution, error)
}
