// Package application 参考数据应用服务
package application

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/tradingvenue/internal/referencedata/domain"
	"github.com/wyfcoding/tradingvenue/pkg/logger"
)

// IDAllocator 标的 ID 分配接口
type IDAllocator interface {
	InstrumentID() string
}

// CreateInstrumentCommand 创建标的命令
type CreateInstrumentCommand struct {
	Symbol   string
	Name     string
	LotSize  string
	TickSize string
	Currency string
}

// InstrumentDTO 标的 DTO
type InstrumentDTO struct {
	InstrumentID string `json:"instrument_id"`
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	LotSize      string `json:"lot_size"`
	TickSize     string `json:"tick_size"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// InstrumentService 标的应用服务
type InstrumentService struct {
	repo domain.InstrumentRepository
	ids  IDAllocator
}

// NewInstrumentService 创建标的应用服务
func NewInstrumentService(repo domain.InstrumentRepository, ids IDAllocator) *InstrumentService {
	return &InstrumentService{
		repo: repo,
		ids:  ids,
	}
}

// CreateInstrument 创建标的
func (s *InstrumentService) CreateInstrument(ctx context.Context, cmd CreateInstrumentCommand) (*InstrumentDTO, error) {
	if cmd.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	lotSize, err := decimal.NewFromString(cmd.LotSize)
	if err != nil || !lotSize.IsPositive() {
		return nil, fmt.Errorf("lot_size must be a positive decimal")
	}
	tickSize, err := decimal.NewFromString(cmd.TickSize)
	if err != nil || !tickSize.IsPositive() {
		return nil, fmt.Errorf("tick_size must be a positive decimal")
	}

	instrument := domain.NewInstrument(s.ids.InstrumentID(), cmd.Symbol, cmd.Name, lotSize, tickSize, cmd.Currency)
	if err := s.repo.Save(ctx, instrument); err != nil {
		logger.Error(ctx, "Failed to save instrument", "symbol", cmd.Symbol, "error", err)
		return nil, fmt.Errorf("failed to save instrument: %w", err)
	}

	logger.Info(ctx, "Instrument created", "symbol", cmd.Symbol, "instrument_id", instrument.InstrumentID)
	return toInstrumentDTO(instrument), nil
}

// GetInstrument 按符号获取标的
func (s *InstrumentService) GetInstrument(ctx context.Context, symbol string) (*InstrumentDTO, error) {
	instrument, err := s.repo.GetBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return toInstrumentDTO(instrument), nil
}

// ListInstruments 分页获取标的列表
func (s *InstrumentService) ListInstruments(ctx context.Context, limit, offset int) ([]*InstrumentDTO, int64, error) {
	instruments, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list instruments: %w", err)
	}

	dtos := make([]*InstrumentDTO, 0, len(instruments))
	for _, instrument := range instruments {
		dtos = append(dtos, toInstrumentDTO(instrument))
	}
	return dtos, total, nil
}

// SetInstrumentStatus 启停标的交易
func (s *InstrumentService) SetInstrumentStatus(ctx context.Context, symbol string, active bool) (*InstrumentDTO, error) {
	instrument, err := s.repo.GetBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if active {
		instrument.Activate()
	} else {
		instrument.Deactivate()
	}

	if err := s.repo.Save(ctx, instrument); err != nil {
		return nil, fmt.Errorf("failed to update instrument status: %w", err)
	}

	logger.Info(ctx, "Instrument status updated", "symbol", symbol, "status", instrument.Status)
	return toInstrumentDTO(instrument), nil
}

// toInstrumentDTO 领域对象转 DTO
func toInstrumentDTO(i *domain.Instrument) *InstrumentDTO {
	return &InstrumentDTO{
		InstrumentID: i.InstrumentID,
		Symbol:       i.Symbol,
		Name:         i.Name,
		LotSize:      i.LotSize.String(),
		TickSize:     i.TickSize.String(),
		Currency:     i.Currency,
		Status:       string(i.Status),
	}
}
