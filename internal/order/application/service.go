package application

import (
	"context"

	"github.com/wyfcoding/tradingvenue/internal/order/domain"
)

// OrderDTO 订单 DTO
type OrderDTO struct {
	OrderID        string `json:"order_id"`
	AccountID      string `json:"account_id"`
	Symbol         string `json:"symbol"`
	Side           string `json:"side"`
	OrderType      string `json:"order_type"`
	Quantity       string `json:"quantity"`
	LimitPrice     string `json:"limit_price,omitempty"`
	TimeInForce    string `json:"time_in_force"`
	Venue          string `json:"venue"`
	Status         string `json:"status"`
	RejectReason   string `json:"reject_reason,omitempty"`
	FilledQuantity string `json:"filled_quantity"`
	AvgFillPrice   string `json:"avg_fill_price"`
	SubmittedAt    int64  `json:"submitted_at"`
}

// ExecutionDTO 成交 DTO
type ExecutionDTO struct {
	ExecutionID   string `json:"execution_id"`
	OrderID       string `json:"order_id"`
	ExecutedAt    int64  `json:"executed_at"`
	Price         string `json:"price"`
	Quantity      string `json:"quantity"`
	LiquidityFlag string `json:"liquidity_flag"`
	Fee           string `json:"fee"`
}

// QueryService 订单查询应用服务
type QueryService struct {
	orderRepo     domain.OrderRepository
	executionRepo domain.ExecutionRepository
}

// NewQueryService 创建订单查询应用服务
func NewQueryService(orderRepo domain.OrderRepository, executionRepo domain.ExecutionRepository) *QueryService {
	return &QueryService{
		orderRepo:     orderRepo,
		executionRepo: executionRepo,
	}
}

// GetOrder 获取订单快照
func (s *QueryService) GetOrder(ctx context.Context, orderID string) (*OrderDTO, error) {
	order, err := s.orderRepo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toOrderDTO(order), nil
}

// ListOrders 分页获取账户订单
func (s *QueryService) ListOrders(ctx context.Context, accountID string, limit, offset int) ([]*OrderDTO, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	orders, total, err := s.orderRepo.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]*OrderDTO, 0, len(orders))
	for _, order := range orders {
		dtos = append(dtos, toOrderDTO(order))
	}
	return dtos, total, nil
}

// ListExecutions 获取订单的全部成交
func (s *QueryService) ListExecutions(ctx context.Context, orderID string) ([]*ExecutionDTO, error) {
	executions, err := s.executionRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	dtos := make([]*ExecutionDTO, 0, len(executions))
	for _, execution := range executions {
		dtos = append(dtos, &ExecutionDTO{
			ExecutionID:   execution.ExecutionID,
			OrderID:       execution.OrderID,
			ExecutedAt:    execution.ExecutedAt.UnixMilli(),
			Price:         execution.Price.String(),
			Quantity:      execution.Quantity.String(),
			LiquidityFlag: string(execution.LiquidityFlag),
			Fee:           execution.Fee.String(),
		})
	}
	return dtos, nil
}

func toOrderDTO(order *domain.Order) *OrderDTO {
	dto := &OrderDTO{
		OrderID:        order.OrderID,
		AccountID:      order.AccountID,
		Symbol:         order.Symbol,
		Side:           string(order.Side),
		OrderType:      string(order.OrderType),
		Quantity:       order.Quantity.String(),
		TimeInForce:    string(order.TimeInForce),
		Venue:          order.Venue,
		Status:         string(order.Status),
		RejectReason:   string(order.RejectReason),
		FilledQuantity: order.FilledQuantity.String(),
		AvgFillPrice:   order.AvgFillPrice.String(),
		SubmittedAt:    order.SubmittedAt.UnixMilli(),
	}
	if !order.LimitPrice.IsZero() {
		dto.LimitPrice = order.LimitPrice.String()
	}
	return dto
}
