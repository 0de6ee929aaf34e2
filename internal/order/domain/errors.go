package domain

// RejectReason 订单拒绝原因
// 校验按固定顺序执行，返回第一个命中的原因
type RejectReason string

const (
	// RejectReasonInstrumentInactive 标的不存在或不可交易
	RejectReasonInstrumentInactive RejectReason = "INSTRUMENT_INACTIVE"
	// RejectReasonInvalidQuantity 数量非正或不是最小交易单位的整数倍
	RejectReasonInvalidQuantity RejectReason = "INVALID_QUANTITY"
	// RejectReasonUnsupportedOrderScope 订单要求的能力不在支持范围内
	RejectReasonUnsupportedOrderScope RejectReason = "UNSUPPORTED_ORDER_SCOPE"
	// RejectReasonInsufficientFunds 可用资金（或可卖持仓）不足
	RejectReasonInsufficientFunds RejectReason = "INSUFFICIENT_FUNDS"
)
