// Package idgen 提供基于雪花算法的业务 ID 分配器，ID 由存储层统一分配而非隐式计数器
package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// 业务 ID 前缀
const (
	PrefixOrder      = "ORD"
	PrefixExecution  = "EXE"
	PrefixLedger     = "LED"
	PrefixAccount    = "ACC"
	PrefixPosition   = "POS"
	PrefixInstrument = "INS"
)

// Generator 业务 ID 生成器
type Generator struct {
	node *snowflake.Node
}

// New 创建 ID 生成器，nodeID 区分部署实例
func New(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}
	return &Generator{node: node}, nil
}

// next 生成带前缀的雪花 ID
func (g *Generator) next(prefix string) string {
	return prefix + g.node.Generate().String()
}

// OrderID 生成订单 ID
func (g *Generator) OrderID() string {
	return g.next(PrefixOrder)
}

// ExecutionID 生成成交记录 ID
func (g *Generator) ExecutionID() string {
	return g.next(PrefixExecution)
}

// LedgerEntryID 生成资金流水 ID
func (g *Generator) LedgerEntryID() string {
	return g.next(PrefixLedger)
}

// AccountID 生成账户 ID
func (g *Generator) AccountID() string {
	return g.next(PrefixAccount)
}

// PositionID 生成持仓 ID
func (g *Generator) PositionID() string {
	return g.next(PrefixPosition)
}

// InstrumentID 生成标的 ID
func (g *Generator) InstrumentID() string {
	return g.next(PrefixInstrument)
}
