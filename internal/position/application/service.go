// Package application 持仓服务的应用层：持仓查询用例
package application

import (
	"context"

	"github.com/wyfcoding/tradingvenue/internal/position/domain"
)

// PositionDTO 持仓 DTO
type PositionDTO struct {
	PositionID    string `json:"position_id"`
	AccountID     string `json:"account_id"`
	Symbol        string `json:"symbol"`
	Quantity      string `json:"quantity"`
	AverageCost   string `json:"average_cost"`
	LastPx        string `json:"last_px"`
	UnrealizedPnl string `json:"unrealized_pnl"`
	RealizedPnl   string `json:"realized_pnl"`
}

// PositionService 持仓应用服务
// 持仓的变更只发生在订单结算事务内，这里仅提供查询
type PositionService struct {
	positionRepo domain.PositionRepository
}

// NewPositionService 创建持仓应用服务
func NewPositionService(positionRepo domain.PositionRepository) *PositionService {
	return &PositionService{positionRepo: positionRepo}
}

// GetPosition 获取单个持仓快照
func (s *PositionService) GetPosition(ctx context.Context, accountID, symbol string) (*PositionDTO, error) {
	position, err := s.positionRepo.Get(ctx, accountID, symbol)
	if err != nil {
		return nil, err
	}
	return toPositionDTO(position), nil
}

// ListPositions 获取账户全部持仓
func (s *PositionService) ListPositions(ctx context.Context, accountID string) ([]*PositionDTO, error) {
	positions, err := s.positionRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	dtos := make([]*PositionDTO, 0, len(positions))
	for _, position := range positions {
		dtos = append(dtos, toPositionDTO(position))
	}
	return dtos, nil
}

func toPositionDTO(position *domain.Position) *PositionDTO {
	return &PositionDTO{
		PositionID:    position.PositionID,
		AccountID:     position.AccountID,
		Symbol:        position.Symbol,
		Quantity:      position.Quantity.String(),
		AverageCost:   position.AverageCost.String(),
		LastPx:        position.LastPx.String(),
		UnrealizedPnl: position.UnrealizedPnl.String(),
		RealizedPnl:   position.RealizedPnl.String(),
	}
}
