package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/tradingvenue/internal/marketdata/domain"
)

// PublishTickCommand 行情 tick 命令
type PublishTickCommand struct {
	Symbol    string
	BidPrice  string
	AskPrice  string
	LastPrice string
	Source    string
}

// QuoteDTO 行情 DTO
type QuoteDTO struct {
	Symbol    string `json:"symbol"`
	BidPrice  string `json:"bid_price"`
	AskPrice  string `json:"ask_price"`
	LastPrice string `json:"last_price"`
	Timestamp int64  `json:"timestamp"`
	Source    string `json:"source"`
}

// MetricsRecorder 行情指标回调
type MetricsRecorder interface {
	RecordQuoteTick()
}

// QuoteService 行情应用服务
// 封装行情板的发布与查询用例
type QuoteService struct {
	board   *Board
	metrics MetricsRecorder
}

// NewQuoteService 创建行情应用服务，metrics 可为 nil
func NewQuoteService(board *Board, metrics MetricsRecorder) *QuoteService {
	return &QuoteService{
		board:   board,
		metrics: metrics,
	}
}

// PublishTick 发布一条报价
func (s *QuoteService) PublishTick(ctx context.Context, cmd PublishTickCommand) error {
	if cmd.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}

	lastPrice, err := decimal.NewFromString(cmd.LastPrice)
	if err != nil || !lastPrice.IsPositive() {
		return fmt.Errorf("last_price must be a positive decimal")
	}

	bidPrice := lastPrice
	if cmd.BidPrice != "" {
		if bidPrice, err = decimal.NewFromString(cmd.BidPrice); err != nil {
			return fmt.Errorf("invalid bid_price: %w", err)
		}
	}
	askPrice := lastPrice
	if cmd.AskPrice != "" {
		if askPrice, err = decimal.NewFromString(cmd.AskPrice); err != nil {
			return fmt.Errorf("invalid ask_price: %w", err)
		}
	}

	quote := domain.NewQuote(cmd.Symbol, bidPrice, askPrice, lastPrice, time.Now().UnixMilli(), cmd.Source)
	s.board.Publish(ctx, quote)

	if s.metrics != nil {
		s.metrics.RecordQuoteTick()
	}
	return nil
}

// GetLatestQuote 获取最新报价
func (s *QuoteService) GetLatestQuote(ctx context.Context, symbol string) (*QuoteDTO, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	quote, ok := s.board.Latest(symbol)
	if !ok {
		return nil, fmt.Errorf("no quote available for symbol: %s", symbol)
	}

	return &QuoteDTO{
		Symbol:    quote.Symbol,
		BidPrice:  quote.BidPrice.String(),
		AskPrice:  quote.AskPrice.String(),
		LastPrice: quote.LastPrice.String(),
		Timestamp: quote.Timestamp,
		Source:    quote.Source,
	}, nil
}

// FeedState 当前行情源状态
func (s *QuoteService) FeedState() string {
	return s.board.State().String()
}

// SetFeedState 变更行情源状态
func (s *QuoteService) SetFeedState(ctx context.Context, state string) error {
	parsed, ok := domain.ParseFeedState(state)
	if !ok {
		return fmt.Errorf("invalid feed state: %s", state)
	}
	s.board.SetState(ctx, parsed)
	return nil
}
