// Package application 行情应用服务
package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wyfcoding/tradingvenue/internal/marketdata/domain"
	"github.com/wyfcoding/tradingvenue/pkg/logger"
)

// TickHandler 行情 tick 回调，用于触发挂单重估
type TickHandler func(ctx context.Context, symbol string)

// Board 最新行情板
// 保存每个标的最近发布的报价，读取不阻塞订单处理；
// 行情源未运行或报价过期时按无报价处理，绝不作为错误传播
type Board struct {
	mu     sync.RWMutex
	quotes map[string]*domain.Quote
	state  atomic.Int32
	// 报价过期时间，0 表示永不过期
	quoteTTL time.Duration

	handlerMu sync.RWMutex
	handlers  []TickHandler
}

// NewBoard 创建行情板，初始状态为 STOPPED
func NewBoard(quoteTTL time.Duration) *Board {
	b := &Board{
		quotes:   make(map[string]*domain.Quote),
		quoteTTL: quoteTTL,
	}
	b.state.Store(int32(domain.FeedStateStopped))
	return b
}

// State 当前行情源状态
func (b *Board) State() domain.FeedState {
	return domain.FeedState(b.state.Load())
}

// SetState 变更行情源状态
func (b *Board) SetState(ctx context.Context, state domain.FeedState) {
	old := domain.FeedState(b.state.Swap(int32(state)))
	if old != state {
		logger.Info(ctx, "Market data feed state changed", "from", old.String(), "to", state.String())
	}
}

// OnTick 注册行情 tick 回调
func (b *Board) OnTick(handler TickHandler) {
	b.handlerMu.Lock()
	defer b.handlerMu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish 发布一条报价并触发 tick 回调
// 行情源非 RUNNING 时报价仍会存储，但 Latest 不可见
func (b *Board) Publish(ctx context.Context, quote *domain.Quote) {
	b.mu.Lock()
	b.quotes[quote.Symbol] = quote
	b.mu.Unlock()

	logger.Debug(ctx, "Quote published",
		"symbol", quote.Symbol,
		"last", quote.LastPrice.String(),
		"source", quote.Source,
	)

	b.handlerMu.RLock()
	handlers := b.handlers
	b.handlerMu.RUnlock()
	for _, handler := range handlers {
		handler(ctx, quote.Symbol)
	}
}

// Latest 读取最新报价
// 行情源非 RUNNING、无报价或报价过期时返回 false
func (b *Board) Latest(symbol string) (*domain.Quote, bool) {
	if b.State() != domain.FeedStateRunning {
		return nil, false
	}

	b.mu.RLock()
	quote, ok := b.quotes[symbol]
	b.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if b.quoteTTL > 0 {
		age := time.Since(time.UnixMilli(quote.Timestamp))
		if age > b.quoteTTL {
			return nil, false
		}
	}

	q := *quote
	return &q, true
}
