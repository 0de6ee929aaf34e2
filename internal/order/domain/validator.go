package domain

import (
	"github.com/shopspring/decimal"
)

// InstrumentInfo 校验所需的标的快照
type InstrumentInfo struct {
	Active  bool
	LotSize decimal.Decimal
}

// ValidationContext 校验所需的外部快照，由协调器在加锁前采集
type ValidationContext struct {
	// 标的快照，nil 表示标的不存在
	Instrument *InstrumentInfo
	// 账户可用余额
	AvailableBalance decimal.Decimal
	// 当前持仓数量（有符号），无持仓为零
	PositionQuantity decimal.Decimal
	// 参考价，无可用报价时为 nil
	QuotePrice *decimal.Decimal
	// 固定费用
	FlatFee decimal.Decimal
}

// OrderValidator 订单校验器
// 校验顺序固定：标的可交易性、数量合法性、订单能力范围、资金充足性，
// 返回第一个命中的拒绝原因。基于快照的资金校验只是预检，
// 最终以结算时行锁内的余额复核为准
type OrderValidator struct{}

// NewOrderValidator 创建订单校验器
func NewOrderValidator() *OrderValidator {
	return &OrderValidator{}
}

// Validate 校验订单，通过时返回空拒绝原因
func (v *OrderValidator) Validate(order *Order, vc ValidationContext) RejectReason {
	if vc.Instrument == nil || !vc.Instrument.Active {
		return RejectReasonInstrumentInactive
	}

	if !order.Quantity.IsPositive() {
		return RejectReasonInvalidQuantity
	}
	if vc.Instrument.LotSize.IsPositive() && !order.Quantity.Mod(vc.Instrument.LotSize).IsZero() {
		return RejectReasonInvalidQuantity
	}

	if order.Margin || order.ShortSell || order.Intraday || order.ComplexFee {
		return RejectReasonUnsupportedOrderScope
	}

	if order.IsBuy() {
		return v.validateBuyingPower(order, vc)
	}
	return v.validateSellableQuantity(order, vc)
}

// validateBuyingPower 买单按参考价预估成本：限价单用限价，市价单用最新报价；
// 市价单在无报价时跳过预估，留给结算时的防御性复核
func (v *OrderValidator) validateBuyingPower(order *Order, vc ValidationContext) RejectReason {
	var refPrice decimal.Decimal
	switch {
	case !order.IsMarket():
		refPrice = order.LimitPrice
	case vc.QuotePrice != nil:
		refPrice = *vc.QuotePrice
	default:
		return ""
	}

	estimatedCost := order.Quantity.Mul(refPrice).Add(vc.FlatFee)
	if estimatedCost.GreaterThan(vc.AvailableBalance) {
		return RejectReasonInsufficientFunds
	}
	return ""
}

// validateSellableQuantity 卖单只允许平多头持仓
func (v *OrderValidator) validateSellableQuantity(order *Order, vc ValidationContext) RejectReason {
	sellable := vc.PositionQuantity
	if sellable.IsNegative() {
		sellable = decimal.Zero
	}
	if order.Quantity.GreaterThan(sellable) {
		return RejectReasonInsufficientFunds
	}
	return ""
}
