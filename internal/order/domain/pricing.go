package domain

import (
	"github.com/shopspring/decimal"
)

// FillDecision 成交决策
type FillDecision struct {
	// Marketable 是否可立即成交，false 表示继续挂单等待后续报价
	Marketable bool
	// Price 成交价，整单按最新报价成交
	Price decimal.Decimal
	// Quantity 成交数量，不拆分，整单一次成交
	Quantity decimal.Decimal
}

// PricingService 成交定价领域服务
// 市价单始终可成交；限价买单在报价不高于限价时成交，
// 限价卖单在报价不低于限价时成交，成交价一律取最新报价（价格改善归吃单方）
type PricingService struct{}

// NewPricingService 创建成交定价领域服务
func NewPricingService() *PricingService {
	return &PricingService{}
}

// DecideFill 依据最新报价判定订单是否可成交
// quote 为 nil 表示无可用报价（含行情源停止），订单继续挂单，不报错也不拒绝
func (s *PricingService) DecideFill(order *Order, quote *decimal.Decimal) FillDecision {
	if quote == nil {
		return FillDecision{Marketable: false}
	}

	if order.IsMarket() {
		return FillDecision{Marketable: true, Price: *quote, Quantity: order.Quantity}
	}

	var marketable bool
	if order.IsBuy() {
		marketable = quote.LessThanOrEqual(order.LimitPrice)
	} else {
		marketable = quote.GreaterThanOrEqual(order.LimitPrice)
	}
	if !marketable {
		return FillDecision{Marketable: false}
	}

	return FillDecision{Marketable: true, Price: *quote, Quantity: order.Quantity}
}
