// Package domain 包含行情服务的领域模型
package domain

import (
	"github.com/shopspring/decimal"
)

// FeedState 行情源状态
type FeedState int32

const (
	FeedStateStopped  FeedState = 0 // 已停止
	FeedStateStarting FeedState = 1 // 启动中
	FeedStateRunning  FeedState = 2 // 运行中
)

// String 状态名称
func (s FeedState) String() string {
	switch s {
	case FeedStateStopped:
		return "STOPPED"
	case FeedStateStarting:
		return "STARTING"
	case FeedStateRunning:
		return "RUNNING"
	default:
		return "UNKNOWN"
	}
}

// ParseFeedState 解析状态名称
func ParseFeedState(s string) (FeedState, bool) {
	switch s {
	case "STOPPED":
		return FeedStateStopped, true
	case "STARTING":
		return FeedStateStarting, true
	case "RUNNING":
		return FeedStateRunning, true
	default:
		return FeedStateStopped, false
	}
}

// Quote 行情数据实体
// 代表某个标的在某个时刻的最新行情
type Quote struct {
	// 交易符号
	Symbol string
	// 买价
	BidPrice decimal.Decimal
	// 卖价
	AskPrice decimal.Decimal
	// 最后成交价，可成交性判定以该价为准
	LastPrice decimal.Decimal
	// 时间戳（毫秒）
	Timestamp int64
	// 数据来源
	Source string
}

// NewQuote 创建行情数据
func NewQuote(symbol string, bidPrice, askPrice, lastPrice decimal.Decimal, timestamp int64, source string) *Quote {
	return &Quote{
		Symbol:    symbol,
		BidPrice:  bidPrice,
		AskPrice:  askPrice,
		LastPrice: lastPrice,
		Timestamp: timestamp,
		Source:    source,
	}
}

// GetSpread 获取买卖价差
func (q *Quote) GetSpread() decimal.Decimal {
	return q.AskPrice.Sub(q.BidPrice)
}

// GetMidPrice 获取中间价
func (q *Quote) GetMidPrice() decimal.Decimal {
	return q.BidPrice.Add(q.AskPrice).Div(decimal.NewFromInt(2))
}

// QuoteSource 最新行情查询接口，供订单核心消费
// 返回 false 表示无可用报价（行情源未运行、无报价或报价过期）
type QuoteSource interface {
	Latest(symbol string) (*Quote, bool)
}
